package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"weathersub.app/internal/ports"
)

// SubscriptionRepository is a mock of ports.SubscriptionRepository
type SubscriptionRepository struct {
	mock.Mock
}

// NewSubscriptionRepository creates a mock that asserts its expectations on cleanup
func NewSubscriptionRepository(t testing.TB) *SubscriptionRepository {
	m := &SubscriptionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SubscriptionRepository) Create(ctx context.Context, sub *ports.SubscriptionData) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *SubscriptionRepository) FindByEmail(ctx context.Context, email string) (*ports.SubscriptionData, error) {
	args := m.Called(ctx, email)
	return subscriptionData(args, 0), args.Error(1)
}

func (m *SubscriptionRepository) FindByConfirmToken(ctx context.Context, token string) (*ports.SubscriptionData, error) {
	args := m.Called(ctx, token)
	return subscriptionData(args, 0), args.Error(1)
}

func (m *SubscriptionRepository) FindByUnsubscribeToken(ctx context.Context, token string) (*ports.SubscriptionData, error) {
	args := m.Called(ctx, token)
	return subscriptionData(args, 0), args.Error(1)
}

func (m *SubscriptionRepository) MarkConfirmed(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *SubscriptionRepository) Delete(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *SubscriptionRepository) ListConfirmedByFrequency(ctx context.Context, frequency string) ([]*ports.SubscriptionData, error) {
	args := m.Called(ctx, frequency)
	var subs []*ports.SubscriptionData
	if v := args.Get(0); v != nil {
		subs = v.([]*ports.SubscriptionData)
	}
	return subs, args.Error(1)
}

func (m *SubscriptionRepository) CountByFrequency(ctx context.Context, frequency string) (int64, error) {
	args := m.Called(ctx, frequency)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SubscriptionRepository) CountConfirmed(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func subscriptionData(args mock.Arguments, index int) *ports.SubscriptionData {
	if v := args.Get(index); v != nil {
		return v.(*ports.SubscriptionData)
	}
	return nil
}

// TokenGenerator is a mock of ports.TokenGenerator
type TokenGenerator struct {
	mock.Mock
}

// NewTokenGenerator creates a mock that asserts its expectations on cleanup
func NewTokenGenerator(t testing.TB) *TokenGenerator {
	m := &TokenGenerator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TokenGenerator) NewToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
