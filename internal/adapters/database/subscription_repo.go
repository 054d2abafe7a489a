package database

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

const defaultQueryTimeout = 5 * time.Second

// SubscriptionModel represents the database model for subscriptions. Rows are hard
// deleted so an address can subscribe again after unsubscribing.
type SubscriptionModel struct {
	ID               uint   `gorm:"primaryKey"`
	Email            string `gorm:"uniqueIndex;not null"`
	City             string `gorm:"not null"`
	Frequency        string `gorm:"index:idx_subscriptions_frequency_confirmed;not null"`
	Confirmed        bool   `gorm:"index:idx_subscriptions_frequency_confirmed;not null;default:false"`
	ConfirmToken     string `gorm:"uniqueIndex;not null"`
	UnsubscribeToken string `gorm:"uniqueIndex;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// SubscriptionRepositoryAdapter implements the SubscriptionRepository port using GORM
type SubscriptionRepositoryAdapter struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

// NewSubscriptionRepositoryAdapter creates a new subscription repository adapter. Every
// call is bounded by queryTimeout.
func NewSubscriptionRepositoryAdapter(db *gorm.DB, queryTimeout time.Duration) ports.SubscriptionRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &SubscriptionRepositoryAdapter{db: db, queryTimeout: queryTimeout}
}

// Create inserts a new subscription and assigns its ID
func (r *SubscriptionRepositoryAdapter) Create(ctx context.Context, sub *ports.SubscriptionData) error {
	if sub == nil {
		return errors.NewValidationError("subscription cannot be nil")
	}
	if sub.ID != 0 {
		return errors.NewValidationError("subscription ID must be zero for create")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	model := dataToModel(sub)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(errors.AlreadyExistsError, "subscription already exists", err)
		}
		return errors.NewDatabaseError("failed to create subscription", err)
	}

	sub.ID = model.ID
	sub.CreatedAt = model.CreatedAt
	sub.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByEmail retrieves the subscription for an email address
func (r *SubscriptionRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*ports.SubscriptionData, error) {
	if email == "" {
		return nil, errors.NewValidationError("email cannot be empty")
	}
	return r.findOne(ctx, "email = ?", email)
}

// FindByConfirmToken retrieves the subscription owning a confirm token
func (r *SubscriptionRepositoryAdapter) FindByConfirmToken(ctx context.Context, token string) (*ports.SubscriptionData, error) {
	if token == "" {
		return nil, errors.NewValidationError("token cannot be empty")
	}
	return r.findOne(ctx, "confirm_token = ?", token)
}

// FindByUnsubscribeToken retrieves the subscription owning an unsubscribe token
func (r *SubscriptionRepositoryAdapter) FindByUnsubscribeToken(ctx context.Context, token string) (*ports.SubscriptionData, error) {
	if token == "" {
		return nil, errors.NewValidationError("token cannot be empty")
	}
	return r.findOne(ctx, "unsubscribe_token = ?", token)
}

// MarkConfirmed sets confirmed with a conditional update, so of several concurrent
// callers exactly one sees true.
func (r *SubscriptionRepositoryAdapter) MarkConfirmed(ctx context.Context, id uint) (bool, error) {
	if id == 0 {
		return false, errors.NewValidationError("subscription ID cannot be zero")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&SubscriptionModel{}).
		Where("id = ? AND confirmed = ?", id, false).
		Updates(map[string]interface{}{
			"confirmed":  true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, errors.NewDatabaseError("failed to confirm subscription", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// Delete removes a subscription and reports whether a row was removed
func (r *SubscriptionRepositoryAdapter) Delete(ctx context.Context, id uint) (bool, error) {
	if id == 0 {
		return false, errors.NewValidationError("subscription ID cannot be zero for delete")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).Delete(&SubscriptionModel{}, id)
	if result.Error != nil {
		return false, errors.NewDatabaseError("failed to delete subscription", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// ListConfirmedByFrequency retrieves all confirmed subscriptions for a specific frequency
func (r *SubscriptionRepositoryAdapter) ListConfirmedByFrequency(ctx context.Context, frequency string) ([]*ports.SubscriptionData, error) {
	if frequency == "" {
		return nil, errors.NewValidationError("frequency cannot be empty")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var models []SubscriptionModel
	result := r.db.WithContext(ctx).
		Where("frequency = ? AND confirmed = ?", frequency, true).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to list confirmed subscriptions", result.Error)
	}

	subscriptions := make([]*ports.SubscriptionData, len(models))
	for i := range models {
		subscriptions[i] = modelToData(&models[i])
	}

	return subscriptions, nil
}

// CountByFrequency counts confirmed subscriptions by frequency
func (r *SubscriptionRepositoryAdapter) CountByFrequency(ctx context.Context, frequency string) (int64, error) {
	if frequency == "" {
		return 0, errors.NewValidationError("frequency cannot be empty")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	result := r.db.WithContext(ctx).Model(&SubscriptionModel{}).Where("frequency = ? AND confirmed = ?", frequency, true).Count(&count)
	if result.Error != nil {
		return 0, errors.NewDatabaseError("failed to count subscriptions by frequency", result.Error)
	}

	return count, nil
}

// CountConfirmed counts all confirmed subscriptions
func (r *SubscriptionRepositoryAdapter) CountConfirmed(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var count int64
	result := r.db.WithContext(ctx).Model(&SubscriptionModel{}).Where("confirmed = ?", true).Count(&count)
	if result.Error != nil {
		return 0, errors.NewDatabaseError("failed to count confirmed subscriptions", result.Error)
	}

	return count, nil
}

func (r *SubscriptionRepositoryAdapter) findOne(ctx context.Context, query string, arg interface{}) (*ports.SubscriptionData, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var model SubscriptionModel
	result := r.db.WithContext(ctx).Where(query, arg).First(&model)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("subscription not found")
		}
		return nil, errors.NewDatabaseError("failed to find subscription", result.Error)
	}

	return modelToData(&model), nil
}

func (r *SubscriptionRepositoryAdapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// dataToModel converts port data to database model
func dataToModel(data *ports.SubscriptionData) *SubscriptionModel {
	return &SubscriptionModel{
		ID:               data.ID,
		Email:            data.Email,
		City:             data.City,
		Frequency:        data.Frequency,
		Confirmed:        data.Confirmed,
		ConfirmToken:     data.ConfirmToken,
		UnsubscribeToken: data.UnsubscribeToken,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

// modelToData converts database model to port data
func modelToData(model *SubscriptionModel) *ports.SubscriptionData {
	return &ports.SubscriptionData{
		ID:               model.ID,
		Email:            model.Email,
		City:             model.City,
		Frequency:        model.Frequency,
		Confirmed:        model.Confirmed,
		ConfirmToken:     model.ConfirmToken,
		UnsubscribeToken: model.UnsubscribeToken,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}
