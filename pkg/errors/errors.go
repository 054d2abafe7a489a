package errors

import (
	stderrors "errors"
	"fmt"
)

// Application error types organized by category for better error handling

type ErrorType int

// Domain/Business Logic Errors - errors related to business rules and validation
const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeNotFound
	ErrorTypeAlreadyExists

	// Subscription lifecycle errors - expected, user-facing conditions
	ErrorTypeAlreadySubscribed
	ErrorTypeTokenNotFound
	ErrorTypeAlreadyConfirmed
	ErrorTypeInvalidToken

	// Weather lookup and delivery errors
	ErrorTypeCityNotFound
	ErrorTypeLookup
	ErrorTypeNotificationFailed

	// Infrastructure Errors - errors related to external systems and services
	ErrorTypeDatabase
	ErrorTypeEmail
	ErrorTypeCache

	// System/Configuration Errors - errors related to system setup and configuration
	ErrorTypeConfiguration
)

// String returns the string representation of error type
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND_ERROR"
	case ErrorTypeAlreadyExists:
		return "ALREADY_EXISTS_ERROR"
	case ErrorTypeAlreadySubscribed:
		return "ALREADY_SUBSCRIBED"
	case ErrorTypeTokenNotFound:
		return "TOKEN_NOT_FOUND"
	case ErrorTypeAlreadyConfirmed:
		return "ALREADY_CONFIRMED"
	case ErrorTypeInvalidToken:
		return "INVALID_TOKEN"
	case ErrorTypeCityNotFound:
		return "CITY_NOT_FOUND"
	case ErrorTypeLookup:
		return "LOOKUP_ERROR"
	case ErrorTypeNotificationFailed:
		return "NOTIFICATION_FAILED"
	case ErrorTypeDatabase:
		return "DATABASE_ERROR"
	case ErrorTypeEmail:
		return "EMAIL_ERROR"
	case ErrorTypeCache:
		return "CACHE_ERROR"
	case ErrorTypeConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Short aliases used across adapters
const (
	ValidationError         = ErrorTypeValidation
	NotFoundError           = ErrorTypeNotFound
	AlreadyExistsError      = ErrorTypeAlreadyExists
	AlreadySubscribedError  = ErrorTypeAlreadySubscribed
	TokenNotFoundError      = ErrorTypeTokenNotFound
	AlreadyConfirmedError   = ErrorTypeAlreadyConfirmed
	InvalidTokenError       = ErrorTypeInvalidToken
	CityNotFoundError       = ErrorTypeCityNotFound
	LookupError             = ErrorTypeLookup
	NotificationFailedError = ErrorTypeNotificationFailed
	DatabaseError           = ErrorTypeDatabase
	EmailError              = ErrorTypeEmail
	CacheError              = ErrorTypeCache
	ConfigurationError      = ErrorTypeConfiguration
)

// ErrMissingCredentials marks a lookup failure caused by absent provider credentials.
// It travels as the cause of a LookupError so callers see one kind while logs can tell
// misconfiguration apart from a transient upstream failure.
var ErrMissingCredentials = stderrors.New("missing provider credentials")

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Domain/Business Logic Error Constructors
func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

func NewNotFoundError(message string) *AppError {
	return New(NotFoundError, message)
}

func NewAlreadyExistsError(message string) *AppError {
	return New(AlreadyExistsError, message)
}

func NewAlreadySubscribedError(message string) *AppError {
	return New(AlreadySubscribedError, message)
}

func NewTokenNotFoundError(message string) *AppError {
	return New(TokenNotFoundError, message)
}

func NewAlreadyConfirmedError(message string) *AppError {
	return New(AlreadyConfirmedError, message)
}

func NewInvalidTokenError(message string) *AppError {
	return New(InvalidTokenError, message)
}

func NewCityNotFoundError(message string) *AppError {
	return New(CityNotFoundError, message)
}

func NewLookupError(message string, cause error) *AppError {
	return Wrap(LookupError, message, cause)
}

func NewNotificationFailedError(message string, cause error) *AppError {
	return Wrap(NotificationFailedError, message, cause)
}

// Infrastructure Error Constructors
func NewDatabaseError(message string, cause error) *AppError {
	return Wrap(DatabaseError, message, cause)
}

func NewEmailError(message string, cause error) *AppError {
	return Wrap(EmailError, message, cause)
}

func NewCacheError(message string, cause error) *AppError {
	return Wrap(CacheError, message, cause)
}

// System/Configuration Error Constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}

// TypeOf returns the type of the outermost AppError in the chain.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

func isType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// Helper functions for error type checking
func IsNotFoundError(err error) bool {
	return isType(err, NotFoundError)
}

func IsAlreadyExistsError(err error) bool {
	return isType(err, AlreadyExistsError)
}

func IsValidationError(err error) bool {
	return isType(err, ValidationError)
}

func IsAlreadySubscribedError(err error) bool {
	return isType(err, AlreadySubscribedError)
}

func IsTokenNotFoundError(err error) bool {
	return isType(err, TokenNotFoundError)
}

func IsAlreadyConfirmedError(err error) bool {
	return isType(err, AlreadyConfirmedError)
}

func IsInvalidTokenError(err error) bool {
	return isType(err, InvalidTokenError)
}

func IsCityNotFoundError(err error) bool {
	return isType(err, CityNotFoundError)
}

func IsLookupError(err error) bool {
	return isType(err, LookupError)
}

func IsNotificationFailedError(err error) bool {
	return isType(err, NotificationFailedError)
}

func IsDatabaseError(err error) bool {
	return isType(err, DatabaseError)
}

func IsEmailError(err error) bool {
	return isType(err, EmailError)
}

func IsCacheError(err error) bool {
	return isType(err, CacheError)
}

func IsConfigurationError(err error) bool {
	return isType(err, ConfigurationError)
}

// IsMisconfiguration reports whether err was caused by missing provider credentials.
func IsMisconfiguration(err error) bool {
	return stderrors.Is(err, ErrMissingCredentials)
}
