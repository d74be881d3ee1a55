package service

import (
	"context"
	"errors"
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
}

// EmailSender delivers a rendered message. Implementations must not log the body.
type EmailSender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// Notifier publishes an event for push/in-app delivery. Delivery guarantees
// belong to the implementation; callers treat it as fire-and-forget.
type Notifier interface {
	Emit(ctx context.Context, event string, payload any) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type AccessTokenIssuer interface {
	IssueAccessToken(user entity.User, sessionID uuid.UUID) (string, time.Duration, error)
}

// SessionTokenIssuer signs short-lived access tokens bound to a session.
type SessionTokenIssuer struct {
	JWT *utils.JWTManager
}

func (i SessionTokenIssuer) IssueAccessToken(user entity.User, sessionID uuid.UUID) (string, time.Duration, error) {
	if i.JWT == nil {
		return "", 0, errors.New("access token signer not configured")
	}
	return i.JWT.IssueAccessToken(user.ID.String(), string(user.Role), sessionID.String())
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func nowFrom(clock Clock) time.Time {
	if clock == nil {
		return time.Now()
	}
	return clock.Now()
}
