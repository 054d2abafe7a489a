package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"weathersub.app/internal/ports"
)

// EmailProvider is a mock of ports.EmailProvider
type EmailProvider struct {
	mock.Mock
}

// NewEmailProvider creates a mock that asserts its expectations on cleanup
func NewEmailProvider(t testing.TB) *EmailProvider {
	m := &EmailProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EmailProvider) SendEmail(ctx context.Context, params ports.EmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
