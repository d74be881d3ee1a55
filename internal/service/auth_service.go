package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/repository"
	"togetherdo/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	securityLogs repository.SecurityLogRepository
	codes        *VerificationService

	emailSender  EmailSender
	passwordHash PasswordHasher
	accessTokens AccessTokenIssuer
	clock        Clock
	config       AuthConfig
	logger       logrus.FieldLogger
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	securityLogs repository.SecurityLogRepository,
	codes *VerificationService,
	emailSender EmailSender,
	passwordHash PasswordHasher,
	accessTokens AccessTokenIssuer,
	clock Clock,
	config AuthConfig,
	logger logrus.FieldLogger,
) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		securityLogs: securityLogs,
		codes:        codes,
		emailSender:  emailSender,
		passwordHash: passwordHash,
		accessTokens: accessTokens,
		clock:        clock,
		config:       config,
		logger:       loggerOrDiscard(logger),
	}
}

// Register creates an unverified account and mails an email-verify code.
// Registering again with an unverified address only re-sends the code.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil {
		if user.EmailVerifiedAt != nil {
			return ErrEmailAlreadyRegistered
		}
		return s.sendCode(ctx, user, entity.EmailVerify)
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return err
	}

	newUser := &entity.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: &hash,
		Role:         entity.UserRoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		if repository.IsDuplicateKey(err) {
			return ErrEmailAlreadyRegistered
		}
		return err
	}

	return s.sendCode(ctx, newUser, entity.EmailVerify)
}

// ResendVerification is silent for unknown or already verified addresses.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.lookupForCode(ctx, email)
	if err != nil || user == nil {
		return err
	}
	if user.EmailVerifiedAt != nil {
		return nil
	}
	return s.sendCode(ctx, user, entity.EmailVerify)
}

func (s *AuthService) VerifyEmail(ctx context.Context, email string, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrTokenNotFound
	}

	err = s.codes.Redeem(ctx, user.ID, entity.EmailVerify, strings.TrimSpace(code), func(tx repository.Tx) error {
		return tx.Users().VerifyEmail(ctx, user.ID, s.now())
	})
	s.logRedemption(ctx, user.ID, entity.EmailVerify, err)
	return err
}

// RequestPasswordReset mails a reset code. Unknown and unverified addresses
// get the same empty success so accounts cannot be probed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.lookupForCode(ctx, email)
	if err != nil || user == nil {
		return err
	}
	if user.EmailVerifiedAt == nil {
		return nil
	}
	return s.sendCode(ctx, user, entity.PasswordReset)
}

// ResetPassword sets the new password and revokes every session in the same
// transaction that consumes the code.
func (s *AuthService) ResetPassword(ctx context.Context, email string, code string, newPassword string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" || strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrTokenNotFound
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}

	err = s.codes.Redeem(ctx, user.ID, entity.PasswordReset, strings.TrimSpace(code), func(tx repository.Tx) error {
		if err := tx.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return tx.Sessions().RevokeAllByUser(ctx, user.ID)
	})
	s.logRedemption(ctx, user.ID, entity.PasswordReset, err)
	if err != nil {
		return err
	}

	s.logSecurity(ctx, &user.ID, nil, entity.Reset, map[string]any{"sessions_revoked": true})
	return nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" || strings.TrimSpace(input.DeviceID) == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil || !user.IsActive {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		s.logSecurity(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !s.passwordHash.Verify(*user.PasswordHash, input.Password) {
		s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if user.EmailVerifiedAt == nil {
		return nil, ErrEmailNotVerified
	}

	result, err := s.createSessionAndTokens(ctx, user, input)
	if err != nil {
		return nil, err
	}

	s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginSuccess, map[string]any{"device_id": input.DeviceID})
	return result, nil
}

// Refresh rotates the refresh token. A token that lost a concurrent rotation
// is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidInput
	}

	oldHash := utils.HashToken(refreshToken)
	session, err := s.sessions.FindByTokenHash(ctx, oldHash, s.now())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}

	newRefreshToken, newRefreshHash, newRefreshExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}

	rotated, err := s.sessions.RotateToken(ctx, session.ID, oldHash, newRefreshHash, newRefreshExpiry)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrInvalidToken
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     newRefreshToken,
		RefreshExpiresIn: int64(newRefreshExpiry.Sub(s.now()).Seconds()),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID, ipAddress *string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.logSecurity(ctx, &userID, ipAddress, entity.Logout, map[string]any{"session_id": sessionID})
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID, ipAddress *string) error {
	if err := s.sessions.RevokeAllByUser(ctx, userID); err != nil {
		return err
	}
	s.logSecurity(ctx, &userID, ipAddress, entity.SessionRevoked, map[string]any{"scope": "all"})
	return nil
}

// ListSessions returns the caller's signed-in devices, most recently active first.
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]entity.Session, error) {
	return s.sessions.ListLiveByUser(ctx, userID, s.now())
}

func (s *AuthService) RevokeSession(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID, ipAddress *string) error {
	revoked, err := s.sessions.RevokeOwned(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !revoked {
		return ErrSessionNotFound
	}
	s.logSecurity(ctx, &userID, ipAddress, entity.SessionRevoked, map[string]any{"session_id": sessionID})
	return nil
}

// SecurityEvents lists a user's audit trail for support staff. An empty
// actions filter returns every kind.
func (s *AuthService) SecurityEvents(ctx context.Context, userID uuid.UUID, actions []entity.SecurityAction, limit int) ([]entity.SecurityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.securityLogs.ListByUser(ctx, userID, actions, limit)
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]entity.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

func (s *AuthService) lookupForCode(ctx context.Context, email string) (*entity.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrInvalidInput
	}
	return s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
}

// sendCode issues a fresh code and mails it. Delivery failures are logged and
// swallowed: the code is stored and the user can ask again after the resend
// window.
func (s *AuthService) sendCode(ctx context.Context, user *entity.User, tokenType entity.VerificationType) error {
	ttl := s.codeTTL(tokenType)
	issued, err := s.codes.Issue(ctx, user.ID, tokenType, ttl)
	if err != nil {
		return err
	}
	s.logSecurity(ctx, &user.ID, nil, entity.CodeIssued, map[string]any{
		"type":     tokenType,
		"token_id": issued.Token.ID,
	})

	if s.emailSender == nil {
		return nil
	}
	subject, body := renderCodeEmail(tokenType, issued.Plaintext, ttl)
	if err := s.emailSender.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"type":    tokenType,
		}).WithError(err).Error("deliver verification code")
	}
	return nil
}

func renderCodeEmail(tokenType entity.VerificationType, code string, ttl time.Duration) (string, string) {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	switch tokenType {
	case entity.PasswordReset:
		return "Reset your password",
			fmt.Sprintf("Your password reset code is %s.\nIt expires in %d minutes. If you did not ask for it, ignore this email.", code, minutes)
	default:
		return "Verify your email",
			fmt.Sprintf("Your verification code is %s.\nIt expires in %d minutes.", code, minutes)
	}
}

func (s *AuthService) logRedemption(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, err error) {
	if err == nil {
		s.logSecurity(ctx, &userID, nil, entity.CodeRedeemed, map[string]any{"type": tokenType})
		return
	}
	if ErrorKind(err) == "internal" {
		return
	}
	s.logSecurity(ctx, &userID, nil, entity.CodeRejected, map[string]any{
		"type":   tokenType,
		"reason": ErrorKind(err),
	})
}

func (s *AuthService) createSessionAndTokens(ctx context.Context, user *entity.User, input LoginInput) (*LoginResult, error) {
	refreshToken, refreshHash, refreshExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		ID:         uuid.New(),
		UserID:     user.ID,
		TokenHash:  refreshHash,
		DeviceID:   input.DeviceID,
		DeviceName: input.DeviceName,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		ExpiresAt:  refreshExpiry,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: int64(refreshExpiry.Sub(s.now()).Seconds()),
	}, nil
}

func (s *AuthService) buildRefreshToken() (string, string, time.Time, error) {
	rawToken, err := utils.GenerateRandomToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.refreshTokenTTL())
	return rawToken, utils.HashToken(rawToken), expiresAt, nil
}

// logSecurity never fails the calling flow.
func (s *AuthService) logSecurity(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) {
	if s.securityLogs == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.logger.WithError(err).Warn("encode security log metadata")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	entry := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := s.securityLogs.Log(ctx, entry); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WithField("action", action).WithError(err).Warn("write security log")
	}
}

func (s *AuthService) now() time.Time {
	return nowFrom(s.clock)
}

func (s *AuthService) codeTTL(tokenType entity.VerificationType) time.Duration {
	if tokenType == entity.PasswordReset {
		if s.config.ResetTokenTTL > 0 {
			return s.config.ResetTokenTTL
		}
		return 15 * time.Minute
	}
	if s.config.VerificationTokenTTL > 0 {
		return s.config.VerificationTokenTTL
	}
	return 15 * time.Minute
}

func (s *AuthService) refreshTokenTTL() time.Duration {
	if s.config.RefreshTokenTTL > 0 {
		return s.config.RefreshTokenTTL
	}
	return 30 * 24 * time.Hour
}

func (s *AuthService) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeAllByUser(ctx, userID); err != nil {
		return err
	}
	s.logSecurity(ctx, &userID, nil, entity.SessionRevoked, map[string]any{"scope": "all", "by": "admin"})
	return nil
}
