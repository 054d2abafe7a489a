package external

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

const defaultSMTPTimeout = 30 * time.Second

// SMTPEmailProviderAdapter implements EmailProvider port using SMTP
type SMTPEmailProviderAdapter struct {
	host     string
	port     int
	username string
	password string
	fromName string
	fromAddr string
	timeout  time.Duration
}

// EmailProviderConfig represents SMTP configuration
type EmailProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	FromAddr string
	Timeout  time.Duration
}

// NewSMTPEmailProviderAdapter creates a new SMTP email provider adapter
func NewSMTPEmailProviderAdapter(config EmailProviderConfig) *SMTPEmailProviderAdapter {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	return &SMTPEmailProviderAdapter{
		host:     config.Host,
		port:     config.Port,
		username: config.Username,
		password: config.Password,
		fromName: config.FromName,
		fromAddr: config.FromAddr,
		timeout:  timeout,
	}
}

// SendEmail delivers one message. The whole SMTP exchange is bounded by the earlier of
// ctx's deadline and the configured timeout.
func (p *SMTPEmailProviderAdapter) SendEmail(ctx context.Context, params ports.EmailParams) error {
	if params.To == "" {
		return errors.NewValidationError("recipient email cannot be empty")
	}
	if _, err := mail.ParseAddress(params.To); err != nil {
		return errors.NewValidationError("recipient email is invalid")
	}
	if params.Subject == "" {
		return errors.NewValidationError("email subject cannot be empty")
	}
	if params.Text == "" && params.HTML == "" {
		return errors.NewValidationError("email body cannot be empty")
	}

	msg, err := p.buildMessage(params)
	if err != nil {
		return errors.NewEmailError("failed to build message", err)
	}

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	addr := net.JoinHostPort(p.host, strconv.Itoa(p.port))
	dialer := &net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.NewEmailError("failed to connect to SMTP server", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return errors.NewEmailError("failed to set SMTP deadline", err)
	}

	// Abort the exchange when ctx ends before the deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		_ = conn.Close()
		return errors.NewEmailError("failed to start SMTP session", err)
	}
	defer func() {
		_ = client.Close()
	}()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: p.host}); err != nil {
			return errors.NewEmailError("failed to establish secure TLS connection", err)
		}
	}

	// Authenticate only if credentials are provided
	if p.username != "" && p.password != "" {
		if err := client.Auth(smtp.PlainAuth("", p.username, p.password, p.host)); err != nil {
			return errors.NewEmailError("failed to authenticate", err)
		}
	}

	if err := client.Mail(p.fromAddr); err != nil {
		return errors.NewEmailError("failed to set sender", err)
	}
	if err := client.Rcpt(params.To); err != nil {
		return errors.NewEmailError("failed to set recipient", err)
	}

	writer, err := client.Data()
	if err != nil {
		return errors.NewEmailError("failed to get data writer", err)
	}
	if _, err := writer.Write(msg); err != nil {
		_ = writer.Close()
		return errors.NewEmailError("failed to write message", err)
	}
	// The server accepts or rejects the message when the data section is closed.
	if err := writer.Close(); err != nil {
		return errors.NewEmailError("server rejected message", err)
	}

	if err := client.Quit(); err != nil {
		return errors.NewEmailError("failed to close SMTP session", err)
	}
	return nil
}

// ValidateConfiguration validates the email provider configuration
func (p *SMTPEmailProviderAdapter) ValidateConfiguration() error {
	if p.host == "" {
		return errors.NewConfigurationError("SMTP host cannot be empty", nil)
	}
	if p.port < 1 || p.port > 65535 {
		return errors.NewConfigurationError("SMTP port must be between 1 and 65535", nil)
	}
	if p.fromAddr == "" {
		return errors.NewConfigurationError("from address cannot be empty", nil)
	}
	if p.fromName == "" {
		return errors.NewConfigurationError("from name cannot be empty", nil)
	}
	return nil
}

// buildMessage renders headers and a multipart/alternative body, or a single part when
// only one of Text and HTML is set
func (p *SMTPEmailProviderAdapter) buildMessage(params ports.EmailParams) ([]byte, error) {
	var buf bytes.Buffer

	from := mail.Address{Name: p.fromName, Address: p.fromAddr}
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", params.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", params.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case params.Text != "" && params.HTML != "":
		mw := multipart.NewWriter(&buf)
		fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())
		if err := writePart(mw, "text/plain", params.Text); err != nil {
			return nil, err
		}
		if err := writePart(mw, "text/html", params.HTML); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
	case params.HTML != "":
		if err := writeSinglePart(&buf, "text/html", params.HTML); err != nil {
			return nil, err
		}
	default:
		if err := writeSinglePart(&buf, "text/plain", params.Text); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType+"; charset=UTF-8")
	header.Set("Content-Transfer-Encoding", "quoted-printable")
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	return writeQuotedPrintable(part, body)
}

func writeSinglePart(buf *bytes.Buffer, contentType, body string) error {
	fmt.Fprintf(buf, "Content-Type: %s; charset=UTF-8\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	return writeQuotedPrintable(buf, body)
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}
