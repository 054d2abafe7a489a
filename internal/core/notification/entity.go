package notification

import (
	"fmt"
	"html"
	"strings"
	"time"

	"weathersub.app/internal/core/subscription"
	"weathersub.app/internal/core/weather"
)

// NotifyParams identifies one recipient of a weather notification
type NotifyParams struct {
	Email            string
	City             string
	UnsubscribeToken string
}

// IsValid validates notify parameters
func (p *NotifyParams) IsValid() error {
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("recipient email is required")
	}
	if strings.TrimSpace(p.City) == "" {
		return fmt.Errorf("city is required")
	}
	return nil
}

// Message is a rendered notification ready for the email provider
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// DeliveryResult is the outcome of notifying one subscriber during a batch run
type DeliveryResult struct {
	SubscriptionID uint
	Email          string
	City           string
	Err            error
}

// Succeeded reports whether the notification was handed to the email provider
func (r DeliveryResult) Succeeded() bool {
	return r.Err == nil
}

// BatchResult collects every delivery attempted in one run of a frequency class
type BatchResult struct {
	RunID      string
	Frequency  subscription.Frequency
	StartedAt  time.Time
	FinishedAt time.Time
	Deliveries []DeliveryResult
}

// Sent counts successful deliveries
func (b *BatchResult) Sent() int {
	n := 0
	for _, d := range b.Deliveries {
		if d.Succeeded() {
			n++
		}
	}
	return n
}

// Failures returns the deliveries that did not succeed
func (b *BatchResult) Failures() []DeliveryResult {
	var failed []DeliveryResult
	for _, d := range b.Deliveries {
		if !d.Succeeded() {
			failed = append(failed, d)
		}
	}
	return failed
}

// Duration is the wall time the run took
func (b *BatchResult) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}

// BuildWeatherMessage renders the weather update email. unsubscribeURL may be empty,
// in which case the message carries no unsubscribe link.
func BuildWeatherMessage(w *weather.Weather, city, unsubscribeURL string) Message {
	displayCity := w.City
	if strings.TrimSpace(displayCity) == "" {
		displayCity = city
	}

	subject := fmt.Sprintf("Weather Update for %s", displayCity)

	var text strings.Builder
	fmt.Fprintf(&text, "Current weather in %s\n\n", displayCity)
	fmt.Fprintf(&text, "Temperature: %.1f°C (%.1f°F)\n", w.Temperature, w.Fahrenheit())
	fmt.Fprintf(&text, "Humidity: %.0f%% (%s)\n", w.Humidity, w.HumidityLevel())
	fmt.Fprintf(&text, "Conditions: %s\n", w.Description)
	if !w.Timestamp.IsZero() {
		fmt.Fprintf(&text, "Last updated: %s\n", w.Timestamp.Format("2006-01-02 15:04 MST"))
	}
	if unsubscribeURL != "" {
		fmt.Fprintf(&text, "\nTo stop receiving these updates, visit %s\n", unsubscribeURL)
	}

	var body strings.Builder
	fmt.Fprintf(&body, `<h2>Weather Update for %s</h2>
<div style="background-color: #f5f5f5; padding: 20px; border-radius: 8px; margin: 20px 0;">
	<p style="font-size: 18px; margin: 10px 0;"><strong>Temperature:</strong> %.1f&deg;C</p>
	<p style="font-size: 16px; margin: 10px 0;"><strong>Humidity:</strong> %.0f%%</p>
	<p style="font-size: 16px; margin: 10px 0;"><strong>Conditions:</strong> %s</p>
</div>`,
		html.EscapeString(displayCity),
		w.Temperature,
		w.Humidity,
		html.EscapeString(w.Description))
	if unsubscribeURL != "" {
		fmt.Fprintf(&body, `
<p style="font-size: 12px; color: #888;">To unsubscribe from these updates, <a href="%s" style="color: #0066cc;">click here</a>.</p>`,
			html.EscapeString(unsubscribeURL))
	}

	return Message{
		Subject: subject,
		Text:    text.String(),
		HTML:    body.String(),
	}
}
