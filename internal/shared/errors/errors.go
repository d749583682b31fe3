package errors

import (
	goerrors "errors"
	"fmt"
)

// Error categories. Every error produced by the relay wraps exactly one of them.
var (
	ErrValidation  = goerrors.New("validation error")
	ErrTransport   = goerrors.New("transport error")
	ErrPersistence = goerrors.New("persistence error")
)

var (
	ErrMissingBotToken = goerrors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrMissingAdminID  = goerrors.New("ADMIN_ID environment variable is required")
	ErrUnauthorized    = goerrors.New("unauthorized user")

	ErrInvalidTime     = fmt.Errorf("%w: time must be in HH:MM format", ErrValidation)
	ErrInvalidWindow   = fmt.Errorf("%w: schedule window must be HH:MM", ErrValidation)
	ErrInvalidChannel  = fmt.Errorf("%w: channel could not be resolved", ErrValidation)
	ErrEmptyIdentifier = fmt.Errorf("%w: chat identifier must not be empty", ErrValidation)
	ErrInvalidChatRef  = fmt.Errorf("%w: chat identifier must be a numeric id or @username", ErrValidation)
	ErrRuleNotFound    = fmt.Errorf("%w: rule not found", ErrPersistence)
)

// Transport marks err as an outbound send failure.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// Persistence marks err as a store failure.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func IsValidation(err error) bool  { return goerrors.Is(err, ErrValidation) }
func IsTransport(err error) bool   { return goerrors.Is(err, ErrTransport) }
func IsPersistence(err error) bool { return goerrors.Is(err, ErrPersistence) }
