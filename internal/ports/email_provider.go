package ports

import "context"

// EmailParams represents parameters for sending emails. Text and HTML are sent as
// alternative parts; at least one of them must be set.
type EmailParams struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailProvider defines the contract for email sending
type EmailProvider interface {
	SendEmail(ctx context.Context, params EmailParams) error
}
