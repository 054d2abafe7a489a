package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"weathersub.app/internal/core/subscription"
	"weathersub.app/internal/core/weather"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

const defaultRecipientTimeout = 30 * time.Second

// WeatherLookup resolves current conditions for a city
type WeatherLookup interface {
	GetWeather(ctx context.Context, request weather.WeatherRequest) (*weather.Weather, error)
}

type UseCase struct {
	subscriptionRepo ports.SubscriptionRepository
	emailProvider    ports.EmailProvider
	weatherLookup    WeatherLookup
	config           ports.ConfigProvider
	logger           ports.Logger
	metrics          ports.MetricsCollector
	now              func() time.Time
}

type UseCaseDependencies struct {
	SubscriptionRepo ports.SubscriptionRepository
	EmailProvider    ports.EmailProvider
	WeatherLookup    WeatherLookup
	Config           ports.ConfigProvider
	Logger           ports.Logger
	Metrics          ports.MetricsCollector
}

func NewUseCase(deps UseCaseDependencies) (*UseCase, error) {
	if deps.SubscriptionRepo == nil {
		return nil, errors.NewValidationError("subscription repository is required")
	}
	if deps.EmailProvider == nil {
		return nil, errors.NewValidationError("email provider is required")
	}
	if deps.WeatherLookup == nil {
		return nil, errors.NewValidationError("weather lookup is required")
	}
	if deps.Config == nil {
		return nil, errors.NewValidationError("config is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics collector is required")
	}

	return &UseCase{
		subscriptionRepo: deps.SubscriptionRepo,
		emailProvider:    deps.EmailProvider,
		weatherLookup:    deps.WeatherLookup,
		config:           deps.Config,
		logger:           deps.Logger,
		metrics:          deps.Metrics,
		now:              time.Now,
	}, nil
}

// Notify sends the current weather for params.City to params.Email. Any failure,
// whether in the lookup or the send, is returned as NotificationFailed wrapping the
// cause. There is no retry.
func (uc *UseCase) Notify(ctx context.Context, params NotifyParams) error {
	if err := params.IsValid(); err != nil {
		return errors.NewValidationError("invalid notification: " + err.Error())
	}

	current, err := uc.weatherLookup.GetWeather(ctx, weather.WeatherRequest{City: params.City})
	if err != nil {
		return errors.NewNotificationFailedError(fmt.Sprintf("weather lookup for %s", params.City), err)
	}

	message := BuildWeatherMessage(current, params.City, uc.unsubscribeURL(params.UnsubscribeToken))

	emailParams := ports.EmailParams{
		To:      params.Email,
		Subject: message.Subject,
		Text:    message.Text,
		HTML:    message.HTML,
	}
	if err := uc.emailProvider.SendEmail(ctx, emailParams); err != nil {
		return errors.NewNotificationFailedError("send weather update email", err)
	}

	uc.logger.Debug("Weather update sent",
		ports.F("email", params.Email),
		ports.F("city", params.City),
		ports.F("temperature", current.Temperature))
	return nil
}

// SendFirstUpdate notifies a freshly confirmed subscription without waiting for the
// next boundary of its frequency class
func (uc *UseCase) SendFirstUpdate(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return errors.NewValidationError("subscription is required")
	}
	return uc.Notify(ctx, NotifyParams{
		Email:            sub.Email,
		City:             sub.City,
		UnsubscribeToken: sub.UnsubscribeToken,
	})
}

// SendWeatherUpdates performs one batch run for a frequency class. The recipient set is
// read once at the start; each recipient is notified under its own timeout and a
// failure is recorded in the result without stopping the others. An error is returned
// only when the run could not start.
func (uc *UseCase) SendWeatherUpdates(ctx context.Context, frequency subscription.Frequency) (*BatchResult, error) {
	if !frequency.IsValid() {
		return nil, errors.NewValidationError("invalid frequency")
	}

	result := &BatchResult{
		RunID:     uuid.NewString(),
		Frequency: frequency,
		StartedAt: uc.now(),
	}

	recipients, err := uc.subscriptionRepo.ListConfirmedByFrequency(ctx, frequency.String())
	if err != nil {
		return nil, fmt.Errorf("list %s subscriptions: %w", frequency, err)
	}

	uc.logger.Info("Starting weather update run",
		ports.F("runID", result.RunID),
		ports.F("frequency", frequency.String()),
		ports.F("recipients", len(recipients)))

	result.Deliveries = uc.dispatch(ctx, frequency, recipients)
	result.FinishedAt = uc.now()

	failures := result.Failures()
	for _, failure := range failures {
		uc.logger.Warn("Weather update failed",
			ports.F("runID", result.RunID),
			ports.F("subscriptionID", failure.SubscriptionID),
			ports.F("city", failure.City),
			ports.F("error", failure.Err))
	}

	uc.metrics.RecordBatch(frequency.String(), result.Duration(), result.Sent(), len(failures))
	uc.logger.Info("Weather update run completed",
		ports.F("runID", result.RunID),
		ports.F("frequency", frequency.String()),
		ports.F("total", len(result.Deliveries)),
		ports.F("sent", result.Sent()),
		ports.F("failed", len(failures)),
		ports.F("duration", result.Duration().String()))

	return result, nil
}

func (uc *UseCase) dispatch(ctx context.Context, frequency subscription.Frequency, recipients []*ports.SubscriptionData) []DeliveryResult {
	schedulerConfig := uc.config.GetSchedulerConfig()
	timeout := schedulerConfig.RecipientTimeout
	if timeout <= 0 {
		timeout = defaultRecipientTimeout
	}

	results := make([]DeliveryResult, len(recipients))

	var g errgroup.Group
	if schedulerConfig.MaxConcurrency > 0 {
		g.SetLimit(schedulerConfig.MaxConcurrency)
	}

	for i, recipient := range recipients {
		i, recipient := i, recipient
		g.Go(func() error {
			recipientCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			err := uc.Notify(recipientCtx, NotifyParams{
				Email:            recipient.Email,
				City:             recipient.City,
				UnsubscribeToken: recipient.UnsubscribeToken,
			})
			if err != nil && !errors.IsNotificationFailedError(err) {
				err = errors.NewNotificationFailedError("notify subscriber", err)
			}

			results[i] = DeliveryResult{
				SubscriptionID: recipient.ID,
				Email:          recipient.Email,
				City:           recipient.City,
				Err:            err,
			}

			uc.metrics.RecordDelivery(frequency.String(), err == nil)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (uc *UseCase) unsubscribeURL(token string) string {
	if token == "" {
		return ""
	}
	baseURL := strings.TrimRight(uc.config.GetAppConfig().BaseURL, "/")
	return fmt.Sprintf("%s/api/unsubscribe/%s", baseURL, token)
}
