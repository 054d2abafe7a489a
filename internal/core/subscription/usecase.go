package subscription

import (
	"context"
	"fmt"
	"html"
	"strings"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
	"weathersub.app/pkg/validation"
)

const maxTokenAttempts = 3

// Lifecycle events reported to metrics
const (
	EventSubscribed   = "subscribed"
	EventConfirmed    = "confirmed"
	EventUnsubscribed = "unsubscribed"
)

// FirstUpdateSender delivers the current weather to a subscription that was just confirmed
type FirstUpdateSender interface {
	SendFirstUpdate(ctx context.Context, subscription *Subscription) error
}

type UseCase struct {
	subscriptionRepo ports.SubscriptionRepository
	tokenGenerator   ports.TokenGenerator
	emailProvider    ports.EmailProvider
	firstUpdate      FirstUpdateSender
	config           ports.ConfigProvider
	logger           ports.Logger
	metrics          ports.MetricsCollector
}

// UseCaseDependencies wires a UseCase. FirstUpdate is optional: without it, or when it
// fails, a confirmed subscriber gets a welcome note instead of the first weather update.
type UseCaseDependencies struct {
	SubscriptionRepo ports.SubscriptionRepository
	TokenGenerator   ports.TokenGenerator
	EmailProvider    ports.EmailProvider
	FirstUpdate      FirstUpdateSender
	Config           ports.ConfigProvider
	Logger           ports.Logger
	Metrics          ports.MetricsCollector
}

type SubscribeParams struct {
	Email     string
	City      string
	Frequency Frequency
}

type ConfirmParams struct {
	Token string
}

type UnsubscribeParams struct {
	Token string
}

// Stats summarizes the subscription table
type Stats struct {
	Hourly    int64 `json:"hourly"`
	Daily     int64 `json:"daily"`
	Confirmed int64 `json:"confirmed"`
}

func NewUseCase(deps UseCaseDependencies) (*UseCase, error) {
	if deps.SubscriptionRepo == nil {
		return nil, errors.NewValidationError("subscription repository is required")
	}
	if deps.TokenGenerator == nil {
		return nil, errors.NewValidationError("token generator is required")
	}
	if deps.EmailProvider == nil {
		return nil, errors.NewValidationError("email provider is required")
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
		tokenGenerator:   deps.TokenGenerator,
		emailProvider:    deps.EmailProvider,
		firstUpdate:      deps.FirstUpdate,
		config:           deps.Config,
		logger:           deps.Logger,
		metrics:          deps.Metrics,
	}, nil
}

func (uc *UseCase) validateSubscribeParams(params SubscribeParams) error {
	if !validation.IsNotEmpty(params.Email) {
		return errors.NewValidationError("email is required")
	}
	if !validation.IsValidEmail(params.Email) {
		return errors.NewValidationError("invalid email format")
	}
	if !validation.IsNotEmpty(params.City) {
		return errors.NewValidationError("city is required")
	}
	if !params.Frequency.IsValid() {
		return errors.NewValidationError("invalid frequency")
	}
	return nil
}

// Subscribe creates an unconfirmed subscription with fresh confirm and unsubscribe
// tokens and sends the confirmation link. The email lookup is only a fast path; the
// store's unique index decides concurrent subscribes for the same address.
func (uc *UseCase) Subscribe(ctx context.Context, params SubscribeParams) (*Subscription, error) {
	if err := uc.validateSubscribeParams(params); err != nil {
		return nil, err
	}

	email := validation.NormalizeEmail(params.Email)
	city := strings.TrimSpace(params.City)

	uc.logger.Debug("Processing subscription",
		ports.F("email", email),
		ports.F("city", city),
		ports.F("frequency", params.Frequency.String()))

	existing, err := uc.subscriptionRepo.FindByEmail(ctx, email)
	if err != nil && !errors.IsNotFoundError(err) {
		return nil, fmt.Errorf("check existing subscription: %w", err)
	}
	if existing != nil {
		return nil, errors.NewAlreadySubscribedError("email already subscribed")
	}

	confirmToken, unsubscribeToken, err := uc.newTokenPair()
	if err != nil {
		return nil, err
	}

	data := &ports.SubscriptionData{
		Email:            email,
		City:             city,
		Frequency:        params.Frequency.String(),
		Confirmed:        false,
		ConfirmToken:     confirmToken,
		UnsubscribeToken: unsubscribeToken,
	}

	if err := uc.subscriptionRepo.Create(ctx, data); err != nil {
		if errors.IsAlreadyExistsError(err) {
			return nil, errors.NewAlreadySubscribedError("email already subscribed")
		}
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	subscription := toEntity(data)
	uc.metrics.RecordLifecycleEvent(EventSubscribed)

	if err := uc.sendConfirmationEmail(ctx, subscription); err != nil {
		uc.logger.Warn("Failed to send confirmation email",
			ports.F("error", err),
			ports.F("email", email))
	}

	uc.logger.Info("Subscription created",
		ports.F("subscriptionID", subscription.ID),
		ports.F("city", subscription.City),
		ports.F("frequency", subscription.Frequency.String()))
	return subscription, nil
}

// Confirm flips the record behind token to confirmed. Only one caller per token ever
// succeeds; every other caller sees AlreadyConfirmed.
func (uc *UseCase) Confirm(ctx context.Context, params ConfirmParams) (*Subscription, error) {
	if !validation.IsNotEmpty(params.Token) {
		return nil, errors.NewValidationError("token is required")
	}

	data, err := uc.subscriptionRepo.FindByConfirmToken(ctx, params.Token)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewTokenNotFoundError("confirmation token not found")
		}
		return nil, fmt.Errorf("find subscription by confirm token: %w", err)
	}

	if data.Confirmed {
		return nil, errors.NewAlreadyConfirmedError("subscription is already confirmed")
	}

	flipped, err := uc.subscriptionRepo.MarkConfirmed(ctx, data.ID)
	if err != nil {
		return nil, fmt.Errorf("confirm subscription: %w", err)
	}
	if !flipped {
		return nil, errors.NewAlreadyConfirmedError("subscription is already confirmed")
	}

	data.Confirmed = true
	subscription := toEntity(data)
	uc.metrics.RecordLifecycleEvent(EventConfirmed)

	uc.greet(ctx, subscription)

	uc.logger.Info("Subscription confirmed", ports.F("subscriptionID", subscription.ID))
	return subscription, nil
}

// Unsubscribe deletes the record behind token. A token stops resolving once its record
// is gone, so a repeated call reports InvalidToken.
func (uc *UseCase) Unsubscribe(ctx context.Context, params UnsubscribeParams) error {
	if !validation.IsNotEmpty(params.Token) {
		return errors.NewValidationError("token is required")
	}

	data, err := uc.subscriptionRepo.FindByUnsubscribeToken(ctx, params.Token)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return errors.NewInvalidTokenError("invalid unsubscribe token")
		}
		return fmt.Errorf("find subscription by unsubscribe token: %w", err)
	}

	deleted, err := uc.subscriptionRepo.Delete(ctx, data.ID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if !deleted {
		return errors.NewInvalidTokenError("invalid unsubscribe token")
	}

	subscription := toEntity(data)
	uc.metrics.RecordLifecycleEvent(EventUnsubscribed)

	if err := uc.sendUnsubscribeConfirmationEmail(ctx, subscription); err != nil {
		uc.logger.Warn("Failed to send unsubscribe confirmation email",
			ports.F("error", err),
			ports.F("subscriptionID", subscription.ID))
	}

	uc.logger.Info("Subscription deleted", ports.F("subscriptionID", subscription.ID))
	return nil
}

// Status reports whether the subscription for email is confirmed
func (uc *UseCase) Status(ctx context.Context, email string) (bool, error) {
	if !validation.IsNotEmpty(email) {
		return false, errors.NewValidationError("email is required")
	}

	data, err := uc.subscriptionRepo.FindByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.IsNotFoundError(err) {
			return false, errors.NewNotFoundError("subscription not found")
		}
		return false, fmt.Errorf("find subscription by email: %w", err)
	}

	return data.Confirmed, nil
}

// Stats counts subscriptions per frequency class and the confirmed total
func (uc *UseCase) Stats(ctx context.Context) (*Stats, error) {
	hourly, err := uc.subscriptionRepo.CountByFrequency(ctx, FrequencyHourly.String())
	if err != nil {
		return nil, fmt.Errorf("count hourly subscriptions: %w", err)
	}
	daily, err := uc.subscriptionRepo.CountByFrequency(ctx, FrequencyDaily.String())
	if err != nil {
		return nil, fmt.Errorf("count daily subscriptions: %w", err)
	}
	confirmed, err := uc.subscriptionRepo.CountConfirmed(ctx)
	if err != nil {
		return nil, fmt.Errorf("count confirmed subscriptions: %w", err)
	}

	return &Stats{Hourly: hourly, Daily: daily, Confirmed: confirmed}, nil
}

func (uc *UseCase) newTokenPair() (string, string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		confirmToken, err := uc.tokenGenerator.NewToken()
		if err != nil {
			return "", "", fmt.Errorf("generate confirm token: %w", err)
		}
		unsubscribeToken, err := uc.tokenGenerator.NewToken()
		if err != nil {
			return "", "", fmt.Errorf("generate unsubscribe token: %w", err)
		}
		if confirmToken != "" && unsubscribeToken != "" && confirmToken != unsubscribeToken {
			return confirmToken, unsubscribeToken, nil
		}
	}
	return "", "", errors.New(errors.ErrorTypeUnknown, "token generator returned colliding tokens")
}

func (uc *UseCase) sendConfirmationEmail(ctx context.Context, subscription *Subscription) error {
	confirmURL := uc.link("confirm", subscription.ConfirmToken)

	emailParams := ports.EmailParams{
		To:      subscription.Email,
		Subject: "Confirm your weather subscription",
		Text: fmt.Sprintf("Thank you for subscribing to %s weather updates for %s.\n\n"+
			"Confirm your subscription: %s\n\n"+
			"If you didn't request this subscription, you can safely ignore this email.\n",
			subscription.Frequency, subscription.City, confirmURL),
		HTML: fmt.Sprintf(`<h2>Confirm Your Weather Subscription</h2>
<p>Thank you for subscribing to %s weather updates for <strong>%s</strong>.</p>
<p><a href="%s">Confirm Subscription</a></p>
<p>If you didn't request this subscription, you can safely ignore this email.</p>`,
			subscription.Frequency, html.EscapeString(subscription.City), confirmURL),
	}

	if err := uc.emailProvider.SendEmail(ctx, emailParams); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

// greet sends the first weather update, falling back to a welcome note so the
// subscriber always receives the unsubscribe link. Failures never undo the confirm.
func (uc *UseCase) greet(ctx context.Context, subscription *Subscription) {
	if uc.firstUpdate != nil {
		err := uc.firstUpdate.SendFirstUpdate(ctx, subscription)
		if err == nil {
			return
		}
		uc.logger.Warn("Failed to send first weather update",
			ports.F("error", err),
			ports.F("subscriptionID", subscription.ID),
			ports.F("city", subscription.City))
	}

	if err := uc.sendWelcomeEmail(ctx, subscription); err != nil {
		uc.logger.Warn("Failed to send welcome email",
			ports.F("error", err),
			ports.F("subscriptionID", subscription.ID))
	}
}

func (uc *UseCase) sendWelcomeEmail(ctx context.Context, subscription *Subscription) error {
	unsubscribeURL := uc.link("unsubscribe", subscription.UnsubscribeToken)

	emailParams := ports.EmailParams{
		To:      subscription.Email,
		Subject: "Welcome to Weather Updates!",
		Text: fmt.Sprintf("Your subscription for %s weather updates has been confirmed.\n"+
			"You will receive %s updates.\n\n"+
			"Unsubscribe at any time: %s\n",
			subscription.City, subscription.Frequency, unsubscribeURL),
		HTML: fmt.Sprintf(`<h2>Welcome to Weather Updates!</h2>
<p>Your subscription for <strong>%s</strong> weather updates has been confirmed.</p>
<p>You will receive <strong>%s</strong> updates.</p>
<p>If you wish to unsubscribe, click <a href="%s">here</a>.</p>`,
			html.EscapeString(subscription.City), subscription.Frequency, unsubscribeURL),
	}

	if err := uc.emailProvider.SendEmail(ctx, emailParams); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}

func (uc *UseCase) sendUnsubscribeConfirmationEmail(ctx context.Context, subscription *Subscription) error {
	emailParams := ports.EmailParams{
		To:      subscription.Email,
		Subject: "You have been unsubscribed from weather updates",
		Text: fmt.Sprintf("You have been unsubscribed from weather updates for %s.\n"+
			"We're sorry to see you go!\n", subscription.City),
		HTML: fmt.Sprintf(`<h2>Unsubscribed Successfully</h2>
<p>You have been unsubscribed from weather updates for <strong>%s</strong>.</p>
<p>We're sorry to see you go!</p>`, html.EscapeString(subscription.City)),
	}

	if err := uc.emailProvider.SendEmail(ctx, emailParams); err != nil {
		return fmt.Errorf("send unsubscribe confirmation email: %w", err)
	}
	return nil
}

func (uc *UseCase) link(action, token string) string {
	baseURL := strings.TrimRight(uc.config.GetAppConfig().BaseURL, "/")
	return fmt.Sprintf("%s/api/%s/%s", baseURL, action, token)
}

func toEntity(data *ports.SubscriptionData) *Subscription {
	return &Subscription{
		ID:               data.ID,
		Email:            data.Email,
		City:             data.City,
		Frequency:        FrequencyFromString(data.Frequency),
		Confirmed:        data.Confirmed,
		ConfirmToken:     data.ConfirmToken,
		UnsubscribeToken: data.UnsubscribeToken,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}
