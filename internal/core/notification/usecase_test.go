package notification

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"weathersub.app/internal/core/subscription"
	"weathersub.app/internal/core/weather"
	"weathersub.app/internal/mocks"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

type testDeps struct {
	repo     *mocks.SubscriptionRepository
	email    ports.EmailProvider
	provider *mocks.WeatherProviderManager
	config   *mocks.ConfigProvider
	logger   *mocks.Logger
	metrics  *mocks.Metrics
}

func newTestDeps(t *testing.T, email ports.EmailProvider, scheduler ports.SchedulerConfig) testDeps {
	d := testDeps{
		repo:     mocks.NewSubscriptionRepository(t),
		email:    email,
		provider: mocks.NewWeatherProviderManager(t),
		config:   mocks.NewConfigProvider(t),
		logger:   mocks.NewLogger(t),
		metrics:  mocks.NewMetrics(t),
	}
	d.config.On("GetAppConfig").Return(ports.AppConfig{BaseURL: "https://weather.example"}).Maybe()
	d.config.On("GetWeatherConfig").Return(ports.WeatherConfig{EnableCache: false}).Maybe()
	d.config.On("GetSchedulerConfig").Return(scheduler).Maybe()
	return d
}

func (d testDeps) useCase(t *testing.T) *UseCase {
	weatherUseCase, err := weather.NewUseCase(weather.UseCaseDependencies{
		WeatherProvider: d.provider,
		Cache:           mocks.NewWeatherCache(t),
		Config:          d.config,
		Logger:          d.logger,
		Metrics:         d.metrics,
	})
	require.NoError(t, err)

	uc, err := NewUseCase(UseCaseDependencies{
		SubscriptionRepo: d.repo,
		EmailProvider:    d.email,
		WeatherLookup:    weatherUseCase,
		Config:           d.config,
		Logger:           d.logger,
		Metrics:          d.metrics,
	})
	require.NoError(t, err)
	return uc
}

func sunny(city string) *ports.WeatherData {
	return &ports.WeatherData{Temperature: 21.5, Humidity: 55, Description: "Sunny", City: city}
}

// recordingEmail is a concurrency-safe email provider that can be told to misbehave
// per recipient.
type recordingEmail struct {
	mu       sync.Mutex
	sent     []ports.EmailParams
	inFlight int32
	peak     int32
	delay    time.Duration
	hangFor  map[string]bool
}

func (r *recordingEmail) SendEmail(ctx context.Context, params ports.EmailParams) error {
	current := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&r.peak)
		if current <= peak || atomic.CompareAndSwapInt32(&r.peak, peak, current) {
			break
		}
	}

	if r.hangFor[params.To] {
		<-ctx.Done()
		return ctx.Err()
	}
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	r.sent = append(r.sent, params)
	r.mu.Unlock()
	return nil
}

func (r *recordingEmail) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, p := range r.sent {
		out = append(out, p.To)
	}
	return out
}

func TestUseCase_Notify_Success(t *testing.T) {
	email := mocks.NewEmailProvider(t)
	d := newTestDeps(t, email, ports.SchedulerConfig{})
	d.provider.On("GetWeather", mock.Anything, "Berlin").Return(sunny("Berlin"), nil)
	email.On("SendEmail", mock.Anything, mock.MatchedBy(func(p ports.EmailParams) bool {
		return p.To == "a@x.com" &&
			p.Subject == "Weather Update for Berlin" &&
			assert.Contains(t, p.Text, "21.5") &&
			assert.Contains(t, p.Text, "Sunny") &&
			assert.Contains(t, p.HTML, "https://weather.example/api/unsubscribe/u-token")
	})).Return(nil)

	err := d.useCase(t).Notify(context.Background(), NotifyParams{
		Email:            "a@x.com",
		City:             "Berlin",
		UnsubscribeToken: "u-token",
	})

	assert.NoError(t, err)
}

func TestUseCase_Notify_LookupFailure(t *testing.T) {
	email := mocks.NewEmailProvider(t)
	d := newTestDeps(t, email, ports.SchedulerConfig{})
	cityErr := errors.NewCityNotFoundError("city not found")
	d.provider.On("GetWeather", mock.Anything, "Atlantis").Return(nil, cityErr)

	err := d.useCase(t).Notify(context.Background(), NotifyParams{Email: "a@x.com", City: "Atlantis"})

	assert.True(t, errors.IsNotificationFailedError(err))
	assert.True(t, stderrors.Is(err, cityErr))
	email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestUseCase_Notify_SendFailure(t *testing.T) {
	email := mocks.NewEmailProvider(t)
	d := newTestDeps(t, email, ports.SchedulerConfig{})
	d.provider.On("GetWeather", mock.Anything, "Kyiv").Return(sunny("Kyiv"), nil)
	sendErr := errors.NewEmailError("smtp rejected recipient", fmt.Errorf("550 no such user"))
	email.On("SendEmail", mock.Anything, mock.Anything).Return(sendErr)

	err := d.useCase(t).Notify(context.Background(), NotifyParams{Email: "a@x.com", City: "Kyiv"})

	assert.True(t, errors.IsNotificationFailedError(err))
	assert.True(t, stderrors.Is(err, sendErr))
}

func TestUseCase_Notify_InvalidParams(t *testing.T) {
	d := newTestDeps(t, mocks.NewEmailProvider(t), ports.SchedulerConfig{})
	uc := d.useCase(t)

	assert.True(t, errors.IsValidationError(uc.Notify(context.Background(), NotifyParams{City: "Kyiv"})))
	assert.True(t, errors.IsValidationError(uc.Notify(context.Background(), NotifyParams{Email: "a@x.com"})))
}

func TestUseCase_SendFirstUpdate(t *testing.T) {
	email := &recordingEmail{}
	d := newTestDeps(t, email, ports.SchedulerConfig{})
	d.provider.On("GetWeather", mock.Anything, "Lviv").Return(sunny("Lviv"), nil)
	uc := d.useCase(t)

	err := uc.SendFirstUpdate(context.Background(), &subscription.Subscription{
		ID: 9, Email: "c@x.com", City: "Lviv", Frequency: subscription.FrequencyDaily,
		Confirmed: true, UnsubscribeToken: "u-9",
	})

	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "Weather Update for Lviv", email.sent[0].Subject)
	assert.Contains(t, email.sent[0].Text, "https://weather.example/api/unsubscribe/u-9")

	assert.True(t, errors.IsValidationError(uc.SendFirstUpdate(context.Background(), nil)))
}

func TestUseCase_SendWeatherUpdates_OneFailingCity(t *testing.T) {
	email := &recordingEmail{}
	d := newTestDeps(t, email, ports.SchedulerConfig{MaxConcurrency: 4, RecipientTimeout: time.Second})

	d.repo.On("ListConfirmedByFrequency", mock.Anything, "hourly").Return([]*ports.SubscriptionData{
		{ID: 1, Email: "a@x.com", City: "Berlin", Frequency: "hourly", Confirmed: true, UnsubscribeToken: "u1"},
		{ID: 2, Email: "b@x.com", City: "Atlantis", Frequency: "hourly", Confirmed: true, UnsubscribeToken: "u2"},
		{ID: 3, Email: "c@x.com", City: "Kyiv", Frequency: "hourly", Confirmed: true, UnsubscribeToken: "u3"},
	}, nil).Once()
	d.provider.On("GetWeather", mock.Anything, "Berlin").Return(sunny("Berlin"), nil)
	d.provider.On("GetWeather", mock.Anything, "Kyiv").Return(sunny("Kyiv"), nil)
	d.provider.On("GetWeather", mock.Anything, "Atlantis").Return(nil, errors.NewCityNotFoundError("city not found"))

	result, err := d.useCase(t).SendWeatherUpdates(context.Background(), subscription.FrequencyHourly)

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, subscription.FrequencyHourly, result.Frequency)
	assert.Len(t, result.Deliveries, 3)
	assert.Equal(t, 2, result.Sent())

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, uint(2), failures[0].SubscriptionID)
	assert.True(t, errors.IsNotificationFailedError(failures[0].Err))
	assert.ElementsMatch(t, []string{"a@x.com", "c@x.com"}, email.recipients())

	assert.Equal(t, 2, d.metrics.Delivery("hourly", true))
	assert.Equal(t, 1, d.metrics.Delivery("hourly", false))
	batches := d.metrics.BatchRecords()
	require.Len(t, batches, 1)
	assert.Equal(t, mocks.BatchRecord{Frequency: "hourly", Duration: batches[0].Duration, Sent: 2, Failed: 1}, batches[0])
}

func TestUseCase_SendWeatherUpdates_ReadsOnlyRequestedClass(t *testing.T) {
	email := &recordingEmail{}
	d := newTestDeps(t, email, ports.SchedulerConfig{MaxConcurrency: 1, RecipientTimeout: time.Second})
	d.repo.On("ListConfirmedByFrequency", mock.Anything, "daily").Return([]*ports.SubscriptionData{
		{ID: 8, Email: "daily@x.com", City: "Lviv", Frequency: "daily", Confirmed: true},
	}, nil).Once()
	d.provider.On("GetWeather", mock.Anything, "Lviv").Return(sunny("Lviv"), nil)

	result, err := d.useCase(t).SendWeatherUpdates(context.Background(), subscription.FrequencyDaily)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent())
	d.repo.AssertNotCalled(t, "ListConfirmedByFrequency", mock.Anything, "hourly")
}

func TestUseCase_SendWeatherUpdates_SnapshotFailure(t *testing.T) {
	email := mocks.NewEmailProvider(t)
	d := newTestDeps(t, email, ports.SchedulerConfig{})
	d.repo.On("ListConfirmedByFrequency", mock.Anything, "hourly").
		Return(nil, errors.NewDatabaseError("failed to list subscriptions", fmt.Errorf("connection reset")))

	result, err := d.useCase(t).SendWeatherUpdates(context.Background(), subscription.FrequencyHourly)

	assert.Nil(t, result)
	assert.True(t, errors.IsDatabaseError(err))
	assert.Empty(t, d.metrics.BatchRecords())
}

func TestUseCase_SendWeatherUpdates_EmptyClass(t *testing.T) {
	d := newTestDeps(t, mocks.NewEmailProvider(t), ports.SchedulerConfig{MaxConcurrency: 2})
	d.repo.On("ListConfirmedByFrequency", mock.Anything, "daily").Return([]*ports.SubscriptionData{}, nil)

	result, err := d.useCase(t).SendWeatherUpdates(context.Background(), subscription.FrequencyDaily)

	require.NoError(t, err)
	assert.Empty(t, result.Deliveries)
	assert.Equal(t, 0, result.Sent())
}

func TestUseCase_SendWeatherUpdates_InvalidFrequency(t *testing.T) {
	d := newTestDeps(t, mocks.NewEmailProvider(t), ports.SchedulerConfig{})

	_, err := d.useCase(t).SendWeatherUpdates(context.Background(), subscription.FrequencyUnknown)

	assert.True(t, errors.IsValidationError(err))
}

func TestUseCase_SendWeatherUpdates_HungRecipientIsBounded(t *testing.T) {
	email := &recordingEmail{hangFor: map[string]bool{"stuck@x.com": true}}
	d := newTestDeps(t, email, ports.SchedulerConfig{MaxConcurrency: 2, RecipientTimeout: 50 * time.Millisecond})

	d.repo.On("ListConfirmedByFrequency", mock.Anything, "hourly").Return([]*ports.SubscriptionData{
		{ID: 1, Email: "stuck@x.com", City: "Berlin"},
		{ID: 2, Email: "ok@x.com", City: "Berlin"},
	}, nil)
	d.provider.On("GetWeather", mock.Anything, "Berlin").Return(sunny("Berlin"), nil)

	start := time.Now()
	result, err := d.useCase(t).SendWeatherUpdates(context.Background(), subscription.FrequencyHourly)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, result.Failures(), 1)
	assert.ErrorIs(t, result.Failures()[0].Err, context.DeadlineExceeded)
	assert.Equal(t, []string{"ok@x.com"}, email.recipients())
}

func TestUseCase_SendWeatherUpdates_RespectsConcurrencyLimit(t *testing.T) {
	email := &recordingEmail{delay: 20 * time.Millisecond}
	d := newTestDeps(t, email, ports.SchedulerConfig{MaxConcurrency: 2, RecipientTimeout: time.Second})

	recipients := make([]*ports.SubscriptionData, 8)
	for i := range recipients {
		recipients[i] = &ports.SubscriptionData{ID: uint(i + 1), Email: fmt.Sprintf("user%d@x.com", i), City: "Berlin"}
	}
	d.repo.On("ListConfirmedByFrequency", mock.Anything, "hourly").Return(recipients, nil)
	d.provider.On("GetWeather", mock.Anything, "Berlin").Return(sunny("Berlin"), nil)

	result, err := d.useCase(t).SendWeatherUpdates(context.Background(), subscription.FrequencyHourly)

	require.NoError(t, err)
	assert.Equal(t, 8, result.Sent())
	assert.LessOrEqual(t, atomic.LoadInt32(&email.peak), int32(2))
}

func TestNewUseCase_MissingDependencies(t *testing.T) {
	_, err := NewUseCase(UseCaseDependencies{})
	assert.True(t, errors.IsValidationError(err))
}
