package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"classhub/api/internal/config"
	"classhub/api/internal/ids"
	"classhub/api/internal/models"
	"classhub/api/internal/repository"
	"classhub/api/internal/security"
	"classhub/api/internal/session"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountSuspended    = errors.New("account suspended")
	ErrAccountUnverified   = errors.New("account pending verification")
	ErrVerificationReplay  = errors.New("verification token already used")
	ErrVerificationInvalid = errors.New("invalid verification token")
)

type AuthService struct {
	users    *repository.UserRepository
	sessions *session.Manager
	cache    *redis.Client
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users *repository.UserRepository,
	sessions *session.Manager,
	cache *redis.Client,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cache:    cache,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type RegisterResult struct {
	User models.User
	// VerificationToken would be mailed out; returned here for the caller
	// to hand to the mail sender.
	VerificationToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return RegisterResult{}, fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return RegisterResult{}, fmt.Errorf("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return RegisterResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  input.DisplayName,
		Status:       models.UserStatusPending,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return RegisterResult{}, err
	}

	token, err := security.GenerateVerificationToken(
		s.cfg.Auth.VerificationSecret,
		user.ID,
		ids.New(),
		s.cfg.Auth.VerificationTTL,
	)
	if err != nil {
		return RegisterResult{}, err
	}

	return RegisterResult{User: user, VerificationToken: token}, nil
}

// VerifyEmail redeems a verification token and activates the account. The
// token's nonce is burned in redis so a leaked token cannot be replayed.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := security.ParseVerificationToken(token, s.cfg.Auth.VerificationSecret)
	if err != nil {
		return ErrVerificationInvalid
	}

	nonceKey := fmt.Sprintf("verify:%s", claims.ID)
	ok, err := s.cache.SetNX(ctx, nonceKey, "1", s.cfg.Auth.VerificationTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerificationReplay
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrVerificationInvalid
		}
		return err
	}
	if user.Status != models.UserStatusPending {
		return nil
	}

	return s.users.UpdateStatus(ctx, user.ID, models.UserStatusActive)
}

type LoginInput struct {
	Email    string
	Password string
	Context  models.AuthContext
}

type LoginResult struct {
	User         models.User
	Session      models.Session
	SessionToken string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	switch user.Status {
	case models.UserStatusActive:
	case models.UserStatusPending:
		return LoginResult{}, ErrAccountUnverified
	default:
		return LoginResult{}, ErrAccountSuspended
	}

	authContext := input.Context
	if authContext == "" {
		authContext = models.AuthContextPassword
	}

	sess, token, err := s.sessions.Create(ctx, user.ID, authContext)
	if err != nil {
		return LoginResult{}, err
	}

	s.log.Info().Str("user_id", user.ID).Str("auth_context", string(authContext)).
		Msg("login succeeded")

	return LoginResult{User: user, Session: sess, SessionToken: token}, nil
}

type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// ChangePassword rotates the password, invalidates every existing session
// for the user, and opens a fresh one so the current device stays signed in.
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) (LoginResult, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	newHash, err := security.HashPassword(input.NewPassword)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return LoginResult{}, err
	}

	if err := s.sessions.InvalidateAll(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}

	sess, token, err := s.sessions.Create(ctx, user.ID, models.AuthContextPassword)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{User: user, Session: sess, SessionToken: token}, nil
}

// Suspend marks a user suspended and drops all their sessions.
func (s *AuthService) Suspend(ctx context.Context, userID string) error {
	if err := s.users.UpdateStatus(ctx, userID, models.UserStatusSuspended); err != nil {
		return err
	}
	return s.sessions.InvalidateAll(ctx, userID)
}

