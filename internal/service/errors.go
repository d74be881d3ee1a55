package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrUserNotFound           = errors.New("user not found")
	ErrSessionNotFound        = errors.New("session not found")

	ErrSelfAction             = errors.New("cannot send to yourself")
	ErrNotFriends             = errors.New("users are not friends")
	ErrResourceNotFound       = errors.New("resource not found")
	ErrResourceNotOwned       = errors.New("resource does not belong to receiver")
	ErrQuotaExceeded          = errors.New("daily quota exceeded")
	ErrCooldownActive         = errors.New("cooldown active")
	ErrInteractionNotFound    = errors.New("interaction not found")
	ErrNotInteractionReceiver = errors.New("interaction belongs to another receiver")

	ErrInvalidCode         = errors.New("invalid code")
	ErrTokenExpired        = errors.New("code expired")
	ErrTokenUsed           = errors.New("code already used")
	ErrMaxAttemptsExceeded = errors.New("too many attempts")
	ErrTokenNotFound       = errors.New("no active code")
	ErrResendTooSoon       = errors.New("code requested too recently")

	// ErrTxConflict is an infrastructure failure; the whole operation is safe to retry.
	ErrTxConflict = errors.New("transaction conflict")
)

type QuotaExceededError struct {
	Feature  string
	Used     int
	Limit    int
	ResetsAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily quota exceeded: used %d of %d", e.Used, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

type CooldownActiveError struct {
	Feature          string
	RemainingSeconds int
	EndsAt           time.Time
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown active: retry in %ds", e.RemainingSeconds)
}

func (e *CooldownActiveError) Is(target error) bool {
	return target == ErrCooldownActive
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrEmailAlreadyRegistered, "email_already_registered"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrEmailNotVerified, "email_not_verified"},
	{ErrInvalidToken, "invalid_token"},
	{ErrUserNotFound, "user_not_found"},
	{ErrSessionNotFound, "session_not_found"},
	{ErrSelfAction, "self_action_not_allowed"},
	{ErrNotFriends, "not_friends"},
	{ErrResourceNotFound, "resource_not_found"},
	{ErrResourceNotOwned, "resource_not_owned_by_receiver"},
	{ErrQuotaExceeded, "quota_exceeded"},
	{ErrCooldownActive, "cooldown_active"},
	{ErrInteractionNotFound, "interaction_not_found"},
	{ErrNotInteractionReceiver, "not_interaction_receiver"},
	{ErrInvalidCode, "invalid_code"},
	{ErrTokenExpired, "expired"},
	{ErrTokenUsed, "token_used"},
	{ErrMaxAttemptsExceeded, "max_attempts_exceeded"},
	{ErrTokenNotFound, "token_not_found"},
	{ErrResendTooSoon, "resend_too_soon"},
	{ErrTxConflict, "conflict"},
}

// ErrorKind returns the stable machine-readable kind of err, or "internal".
func ErrorKind(err error) string {
	for _, candidate := range errorKinds {
		if errors.Is(err, candidate.err) {
			return candidate.kind
		}
	}
	return "internal"
}
