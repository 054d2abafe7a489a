package external

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"weathersub.app/internal/mocks"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// fakeSMTPServer speaks just enough SMTP for net/smtp to deliver one message per session
type fakeSMTPServer struct {
	listener   net.Listener
	rejectData bool

	mu       sync.Mutex
	messages []string
	rcpts    []string
}

func newFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSMTPServer{listener: listener}
	go s.serve()
	t.Cleanup(func() { _ = listener.Close() })
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeSMTPServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 fake")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			s.mu.Lock()
			s.rcpts = append(s.rcpts, strings.TrimSpace(line[len("RCPT TO:"):]))
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 go ahead")
			var data strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				data.WriteString(l)
			}
			if s.rejectData {
				reply("554 rejected")
				continue
			}
			s.mu.Lock()
			s.messages = append(s.messages, data.String())
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func (s *fakeSMTPServer) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rcpts...)
}

func (s *fakeSMTPServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func TestSMTPEmailProviderAdapter_SendEmail_Multipart(t *testing.T) {
	server := newFakeSMTPServer(t)
	provider := NewSMTPEmailProviderAdapter(EmailProviderConfig{
		Host:     "127.0.0.1",
		Port:     server.port(),
		FromName: "Weather Updates",
		FromAddr: "noreply@weather.example",
		Timeout:  5 * time.Second,
	})

	err := provider.SendEmail(context.Background(), ports.EmailParams{
		To:      "user@example.com",
		Subject: "Weather Update for Zürich",
		Text:    "Temperature: 12.3°C",
		HTML:    "<p>Temperature: 12.3&deg;C</p>",
	})
	require.NoError(t, err)

	messages := server.received()
	require.Len(t, messages, 1)
	msg := messages[0]
	assert.Contains(t, msg, `From: "Weather Updates" <noreply@weather.example>`)
	assert.Contains(t, msg, "To: user@example.com")
	assert.Contains(t, msg, "Subject: =?utf-8?q?Weather_Update_for_Z=C3=BCrich?=")
	assert.Contains(t, msg, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, msg, "<p>Temperature: 12.3&deg;C</p>")
	assert.Equal(t, []string{"<user@example.com>"}, server.recipients())
}

func TestSMTPEmailProviderAdapter_SendEmail_Rejected(t *testing.T) {
	server := newFakeSMTPServer(t)
	server.rejectData = true
	provider := NewSMTPEmailProviderAdapter(EmailProviderConfig{
		Host: "127.0.0.1", Port: server.port(), FromName: "W", FromAddr: "w@example.com",
	})

	err := provider.SendEmail(context.Background(), ports.EmailParams{To: "a@example.com", Subject: "s", Text: "t"})
	assert.True(t, errors.IsEmailError(err))
}

func TestSMTPEmailProviderAdapter_SendEmail_Unreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	provider := NewSMTPEmailProviderAdapter(EmailProviderConfig{
		Host: "127.0.0.1", Port: port, FromName: "W", FromAddr: "w@example.com", Timeout: time.Second,
	})

	err = provider.SendEmail(context.Background(), ports.EmailParams{To: "a@example.com", Subject: "s", Text: "t"})
	assert.True(t, errors.IsEmailError(err))
}

func TestSMTPEmailProviderAdapter_SendEmail_Validation(t *testing.T) {
	provider := NewSMTPEmailProviderAdapter(EmailProviderConfig{Host: "localhost", Port: 25})

	tests := []struct {
		name   string
		params ports.EmailParams
	}{
		{name: "missing_recipient", params: ports.EmailParams{Subject: "s", Text: "t"}},
		{name: "invalid_recipient", params: ports.EmailParams{To: "not-an-email", Subject: "s", Text: "t"}},
		{name: "missing_subject", params: ports.EmailParams{To: "a@example.com", Text: "t"}},
		{name: "missing_body", params: ports.EmailParams{To: "a@example.com", Subject: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := provider.SendEmail(context.Background(), tt.params)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestSMTPEmailProviderAdapter_BuildMessage_SinglePart(t *testing.T) {
	provider := NewSMTPEmailProviderAdapter(EmailProviderConfig{FromName: "W", FromAddr: "w@example.com"})

	msg, err := provider.buildMessage(ports.EmailParams{To: "a@example.com", Subject: "Hello", Text: "plain body"})
	require.NoError(t, err)

	body := string(msg)
	assert.Contains(t, body, "Content-Type: text/plain; charset=UTF-8")
	assert.NotContains(t, body, "multipart")
	assert.True(t, strings.HasSuffix(body, "plain body"))
}

func TestSMTPEmailProviderAdapter_ValidateConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		config      EmailProviderConfig
		expectError bool
	}{
		{
			name:   "local_relay_without_auth",
			config: EmailProviderConfig{Host: "mailhog", Port: 1025, FromName: "Weather", FromAddr: "test@weather.example"},
		},
		{
			name: "authenticated_relay",
			config: EmailProviderConfig{
				Host: "smtp.gmail.com", Port: 587, Username: "user@gmail.com", Password: "secret",
				FromName: "Weather", FromAddr: "noreply@weather.example",
			},
		},
		{
			name:        "missing_host",
			config:      EmailProviderConfig{Port: 587, FromName: "App", FromAddr: "app@company.com"},
			expectError: true,
		},
		{
			name:        "invalid_port",
			config:      EmailProviderConfig{Host: "smtp.example.com", Port: 70000, FromName: "App", FromAddr: "app@company.com"},
			expectError: true,
		},
		{
			name:        "missing_from_address",
			config:      EmailProviderConfig{Host: "smtp.example.com", Port: 587, FromName: "App"},
			expectError: true,
		},
		{
			name:        "missing_from_name",
			config:      EmailProviderConfig{Host: "smtp.example.com", Port: 587, FromAddr: "app@company.com"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSMTPEmailProviderAdapter(tt.config).ValidateConfiguration()
			if tt.expectError {
				assert.True(t, errors.IsConfigurationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRateLimitedEmailProvider(t *testing.T) {
	next := mocks.NewEmailProvider(t)
	next.On("SendEmail", mock.Anything, mock.Anything).Return(nil).Times(2)

	provider := NewRateLimitedEmailProvider(next, 0.5, 2)
	params := ports.EmailParams{To: "a@example.com", Subject: "s", Text: "t"}

	// The burst is spent immediately, the third send has to wait two seconds.
	require.NoError(t, provider.SendEmail(context.Background(), params))
	require.NoError(t, provider.SendEmail(context.Background(), params))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := provider.SendEmail(ctx, params)
	assert.True(t, errors.IsEmailError(err))
}

func TestRateLimitedEmailProvider_DisabledReturnsNext(t *testing.T) {
	next := mocks.NewEmailProvider(t)
	assert.Same(t, next, NewRateLimitedEmailProvider(next, 0, 10))
}
