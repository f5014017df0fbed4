// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"errors"
	"fmt"
	"time"
)

// Business flow error constants
var (
	// Registration
	ErrValidationFailed        = errors.New("validation failed")
	ErrRoleNotAllowed          = errors.New("role is not allowed for public registration")
	ErrEmailAlreadyExists      = errors.New("email already registered")
	ErrNationalIDAlreadyExists = errors.New("national ID already registered")
	ErrTransactionFailed       = errors.New("transaction failed")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrAccountUnverified  = errors.New("email address is not verified")
	ErrRateLimited        = errors.New("too many failed login attempts")

	// Email verification
	ErrVerificationTokenInvalid = errors.New("verification token is invalid")
	ErrVerificationTokenExpired = errors.New("verification token has expired")

	// Administration
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidSetting  = errors.New("invalid setting")

	// Collaborators
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// ValidationError carries one user-facing message per offending field, keyed by JSON name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// RateLimitedError tells the caller how long to wait before retrying
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// RetryAfterSeconds rounds up so a client never retries early
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

// invalidCredentials is shared by the not-found and wrong-secret paths so both
// produce the same code and message.
func invalidCredentials() *BusinessError {
	return NewBusinessError("LOGIN_FAILED", "Invalid email or password", ErrInvalidCredentials)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// ValidationFields returns the per-field messages carried by err, if any
func ValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

func IsForbiddenRole(err error) bool {
	return errors.Is(err, ErrRoleNotAllowed)
}

func IsConflict(err error) bool {
	return IsEmailAlreadyExists(err) || IsNationalIDAlreadyExists(err)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsNationalIDAlreadyExists(err error) bool {
	return errors.Is(err, ErrNationalIDAlreadyExists)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsAccountUnverified(err error) bool {
	return errors.Is(err, ErrAccountUnverified)
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// RetryAfter extracts the wait carried by a rate-limit error
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

func IsVerificationTokenInvalid(err error) bool {
	return errors.Is(err, ErrVerificationTokenInvalid)
}

func IsVerificationTokenExpired(err error) bool {
	return errors.Is(err, ErrVerificationTokenExpired)
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsInvalidSetting(err error) bool {
	return errors.Is(err, ErrInvalidSetting)
}

func IsDependencyUnavailable(err error) bool {
	return errors.Is(err, ErrDependencyUnavailable)
}

func IsTransactionFailed(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}
