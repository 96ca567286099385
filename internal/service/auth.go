package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/internal/repository"
	"QH_quranhabits/pkg/auth"
	"QH_quranhabits/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthConfig struct {
	ResetTTL time.Duration
	HashCost int
}

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AuthService struct {
	repo     AuthRepository
	mailer   Mailer
	tokens   *auth.TokenIssuer
	notifier *auth.Notifier
	resetTTL time.Duration
	hashCost int
	now      func() time.Time
}

func NewAuthService(repo AuthRepository, mailer Mailer, tokens *auth.TokenIssuer, notifier *auth.Notifier, cfg AuthConfig) *AuthService {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	return &AuthService{
		repo:     repo,
		mailer:   mailer,
		tokens:   tokens,
		notifier: notifier,
		resetTTL: cfg.ResetTTL,
		hashCost: cfg.HashCost,
		now:      time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*model.AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     name,
		JoinedAt: s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user, string(hash)); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	user, hash, err := s.repo.GetUserCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*model.AuthResult, error) {
	now := s.now().UTC()
	session := &model.AuthSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(session.ID, user.ID, now)
	if err != nil {
		return nil, err
	}

	s.publish(auth.EventSignedIn, user)
	return &model.AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// GetSession resolves a token to its user. Expired, revoked and unknown sessions
// all yield ErrInvalidSession.
func (s *AuthService) GetSession(ctx context.Context, token string) (*model.User, *model.AuthSession, error) {
	now := s.now()
	claims, err := s.tokens.Parse(token, now)
	if err != nil {
		return nil, nil, ErrInvalidSession
	}

	session, err := s.repo.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !session.Active(now) {
		return nil, nil, ErrInvalidSession
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, session, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	user, session, err := s.GetSession(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.RevokeSession(ctx, session.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.publish(auth.EventSignedOut, user)
	return nil
}

// RequestPasswordReset emails a reset link. Unknown addresses succeed silently
// so the endpoint does not reveal which emails are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, _, err := s.repo.GetUserCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Logger().Debug("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	reset := &model.PasswordReset{
		TokenHash: hashResetToken(token),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	}
	if err := s.repo.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("failed to store password reset: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	s.publish(auth.EventPasswordRecovery, user)
	return nil
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	now := s.now().UTC()
	userID, err := s.repo.ConsumePasswordReset(ctx, hashResetToken(token), now)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.repo.RevokeUserSessions(ctx, userID, now); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	logger.Logger().Info("Password reset completed", zap.String("user_id", userID.String()))
	s.publish(auth.EventUserUpdated, &model.User{ID: userID})
	return nil
}

func (s *AuthService) Subscribe(userID uuid.UUID) (<-chan auth.Event, func()) {
	return s.notifier.Subscribe(userID)
}

func (s *AuthService) publish(event auth.EventType, user *model.User) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(auth.Event{
		Type:   event,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		At:     s.now().UTC(),
	})
}

func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
