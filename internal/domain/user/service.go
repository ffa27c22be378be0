// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
)

// Deps collects the collaborators of the account service
type Deps struct {
	Users     Repository
	Tokens    TokenStore
	Passwords *auth.PasswordManager
	JWT       *auth.JWTManager
	Mailer    Mailer
	Profiles  ProfileProvisioner
	Sessions  SessionInvalidator
	Config    *config.Config
	Logger    *logrus.Logger
}

// Service handles account business logic
type Service struct {
	users     Repository
	tokens    TokenStore
	passwords *auth.PasswordManager
	jwt       *auth.JWTManager
	mailer    Mailer
	profiles  ProfileProvisioner
	sessions  SessionInvalidator
	config    *config.Config
	logger    *logrus.Logger
}

// NewService creates a new account service
func NewService(deps Deps) *Service {
	s := &Service{
		users:     deps.Users,
		tokens:    deps.Tokens,
		passwords: deps.Passwords,
		jwt:       deps.JWT,
		mailer:    deps.Mailer,
		profiles:  deps.Profiles,
		sessions:  deps.Sessions,
		config:    deps.Config,
		logger:    logger.OrDiscard(deps.Logger),
	}
	if s.mailer == nil {
		s.mailer = nopMailer{}
	}
	if s.profiles == nil {
		s.profiles = nopProvisioner{}
	}
	return s
}

type nopMailer struct{}

func (nopMailer) SendConfirmation(context.Context, string, string) error  { return nil }
func (nopMailer) SendPasswordReset(context.Context, string, string) error { return nil }
func (nopMailer) SendPasswordChanged(context.Context, string) error       { return nil }

type nopProvisioner struct{}

func (nopProvisioner) Provision(context.Context, uuid.UUID, string, string) error { return nil }

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FullName        string `json:"full_name"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest represents a password reset from an emailed link
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ChangePasswordRequest represents a password change by a signed-in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User *User `json:"user"`
	auth.TokenPair
}

// Register creates an unconfirmed account and mails the confirmation link
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := NormalizeEmail(req.Email)
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := s.passwords.ValidatePassword(req.Password); err != nil {
		return nil, apperror.Validation(capitalize(err.Error()))
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	log := s.logger.WithField("user_id", u.ID)
	if err := s.profiles.Provision(ctx, u.ID, u.Email, strings.TrimSpace(req.FullName)); err != nil {
		log.WithError(err).Warn("Failed to create profile at registration")
	}
	if err := s.sendConfirmation(ctx, u); err != nil {
		log.WithError(err).Warn("Failed to send confirmation email")
	}

	log.Info("Account registered")
	return u, nil
}

// ConfirmEmail redeems a confirmation token
func (s *Service) ConfirmEmail(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Consume(ctx, PurposeConfirmEmail, token)
	if err != nil {
		return nil, err
	}

	if err := s.users.MarkEmailConfirmed(ctx, userID, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)

	return s.users.FindByID(ctx, userID)
}

// ResendConfirmation mails a fresh confirmation link. Unknown or already
// confirmed addresses are ignored so the endpoint does not reveal accounts.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if u.IsEmailConfirmed() {
		return nil
	}
	return s.sendConfirmation(ctx, u)
}

// Login authenticates a user. A correct password on an unconfirmed account
// fails with EmailNotConfirmed rather than invalid credentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(req.Email))
	if errors.Is(err, ErrUserNotFound) {
		_ = s.passwords.VerifyNoAccount(req.Password)
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if err := s.passwords.VerifyPassword(req.Password, u.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsEmailConfirmed() {
		return nil, apperror.ErrEmailNotConfirmed
	}

	pair, err := s.jwt.GeneratePair(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	log := s.logger.WithField("user_id", u.ID)
	if s.passwords.NeedsRehash(u.PasswordHash) {
		if hash, err := s.passwords.HashPassword(req.Password); err != nil {
			log.WithError(err).Debug("Skipping password rehash")
		} else if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
			log.WithError(err).Warn("Failed to upgrade password hash")
		} else {
			u.PasswordHash = hash
		}
	}
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		log.WithError(err).Warn("Failed to record last login")
	} else {
		u.LastLoginAt = &now
	}
	if err := s.profiles.Provision(ctx, u.ID, u.Email, ""); err != nil {
		log.WithError(err).Warn("Failed to ensure profile at login")
	}

	return &AuthResponse{User: u, TokenPair: *pair}, nil
}

// Refresh exchanges a refresh token for a new pair. With rotation enabled the
// presented refresh token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidRefreshToken
	}

	userID, _ := claims.UserUUID()
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidRefreshToken
	} else if err != nil {
		return nil, err
	}
	if !u.IsEmailConfirmed() {
		return nil, apperror.ErrEmailNotConfirmed
	}

	resp := &AuthResponse{User: u}
	if s.config.JWT.RefreshTokenRotation {
		pair, err := s.jwt.GeneratePair(u.ID, u.Email)
		if err != nil {
			return nil, err
		}
		if err := s.tokens.Revoke(ctx, claims.ID, claims.TTL()); err != nil {
			return nil, err
		}
		resp.TokenPair = *pair
		return resp, nil
	}

	access, err := s.jwt.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	resp.TokenPair = auth.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}
	return resp, nil
}

// Logout revokes the presented access token and, when given, the refresh token
func (s *Service) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if access != nil {
		if err := s.tokens.Revoke(ctx, access.ID, access.TTL()); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if claims, err := s.jwt.ValidateRefreshToken(refreshToken); err == nil {
			if err := s.tokens.Revoke(ctx, claims.ID, claims.TTL()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ForgotPassword mails a reset link. Unknown addresses are ignored.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	token, err := s.tokens.Issue(ctx, PurposeResetPassword, u.ID, s.config.Store.PasswordResetTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, s.link("/reset-password", token)); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password from an emailed token
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := s.passwords.ValidatePassword(req.Password); err != nil {
		return apperror.Validation(capitalize(err.Error()))
	}

	userID, err := s.tokens.Consume(ctx, PurposeResetPassword, req.Token)
	if err != nil {
		return err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, u, req.Password); err != nil {
		return err
	}

	s.logger.WithField("user_id", userID).Info("Password reset")
	return nil
}

// ChangePassword changes the password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.VerifyPassword(req.CurrentPassword, u.PasswordHash); err != nil {
		return ErrWrongPassword
	}
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := s.passwords.ValidatePassword(req.NewPassword); err != nil {
		return apperror.Validation(capitalize(err.Error()))
	}

	return s.setPassword(ctx, u, req.NewPassword)
}

// Get returns an account by id
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *Service) setPassword(ctx context.Context, u *User, password string) error {
	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	s.invalidate(ctx, u.ID)
	if err := s.mailer.SendPasswordChanged(ctx, u.Email); err != nil {
		s.logger.WithField("user_id", u.ID).WithError(err).Warn("Failed to send password changed email")
	}
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, u *User) error {
	token, err := s.tokens.Issue(ctx, PurposeConfirmEmail, u.ID, s.config.Store.EmailConfirmationTTL)
	if err != nil {
		return err
	}
	return s.mailer.SendConfirmation(ctx, u.Email, s.link("/auth/confirm", token))
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Invalidate(ctx, userID); err != nil {
		s.logger.WithField("user_id", userID).WithError(err).Warn("Failed to invalidate cached session")
	}
}

func (s *Service) link(path, token string) string {
	return strings.TrimRight(s.config.App.FrontendURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
