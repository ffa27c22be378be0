package user_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/memory"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
)

const (
	testPassword = "Brew!Latte42x"
	newPassword  = "Mocha#Kape97z"
)

type sentMail struct {
	kind string
	to   string
	link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) record(kind, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, to: to, link: link})
	return nil
}

func (m *fakeMailer) SendConfirmation(ctx context.Context, to, link string) error {
	return m.record("confirm", to, link)
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	return m.record("reset", to, link)
}

func (m *fakeMailer) SendPasswordChanged(ctx context.Context, to string) error {
	return m.record("changed", to, "")
}

func (m *fakeMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

type fakeProvisioner struct {
	provisioned map[uuid.UUID]string
}

func (p *fakeProvisioner) Provision(ctx context.Context, userID uuid.UUID, email, fullName string) error {
	p.provisioned[userID] = fullName
	return nil
}

type fakeSessions struct {
	invalidated []uuid.UUID
}

func (s *fakeSessions) Invalidate(ctx context.Context, userID uuid.UUID) error {
	s.invalidated = append(s.invalidated, userID)
	return nil
}

type UserServiceSuite struct {
	suite.Suite

	ctx      context.Context
	store    *memory.Store
	redis    *miniredis.Miniredis
	mailer   *fakeMailer
	profiles *fakeProvisioner
	sessions *fakeSessions
	cfg      *config.Config
	service  *user.Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.redis = miniredis.RunT(s.T())
	s.mailer = &fakeMailer{}
	s.profiles = &fakeProvisioner{provisioned: make(map[uuid.UUID]string)}
	s.sessions = &fakeSessions{}

	s.cfg = &config.Config{
		App: config.AppConfig{Name: "cafe-storefront", FrontendURL: "http://localhost:3000/"},
		JWT: config.JWTConfig{
			Secret:               "test-secret-that-is-long-enough-for-hs256",
			AccessTokenExpiry:    15 * time.Minute,
			RefreshTokenExpiry:   24 * time.Hour,
			RefreshTokenRotation: true,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
		Store: config.StoreConfig{
			EmailConfirmationTTL: 24 * time.Hour,
			PasswordResetTTL:     time.Hour,
		},
	}

	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { client.Close() })

	s.service = user.NewService(user.Deps{
		Users:     s.store.Users(),
		Tokens:    user.NewRedisTokenStore(client),
		Passwords: auth.NewPasswordManager(s.cfg),
		JWT:       auth.NewJWTManager(s.cfg),
		Mailer:    s.mailer,
		Profiles:  s.profiles,
		Sessions:  s.sessions,
		Config:    s.cfg,
	})
}

func (s *UserServiceSuite) tokenFrom(kind string) string {
	mail, ok := s.mailer.last(kind)
	s.Require().True(ok, "no %s mail sent", kind)
	u, err := url.Parse(mail.link)
	s.Require().NoError(err)
	return u.Query().Get("token")
}

func (s *UserServiceSuite) register(email string) *user.User {
	u, err := s.service.Register(s.ctx, user.RegisterRequest{
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "Ana Reyes",
	})
	s.Require().NoError(err)
	return u
}

func (s *UserServiceSuite) registerConfirmed(email string) *user.User {
	u := s.register(email)
	_, err := s.service.ConfirmEmail(s.ctx, s.tokenFrom("confirm"))
	s.Require().NoError(err)
	return u
}

func (s *UserServiceSuite) TestRegister_CreatesUnconfirmedAccount() {
	u := s.register("  Ana@Example.com ")

	s.Equal("ana@example.com", u.Email)
	s.False(u.IsEmailConfirmed())
	s.NotEqual(testPassword, u.PasswordHash)
	s.Equal("Ana Reyes", s.profiles.provisioned[u.ID])

	mail, ok := s.mailer.last("confirm")
	s.Require().True(ok)
	s.Equal("ana@example.com", mail.to)
	s.Contains(mail.link, "http://localhost:3000/auth/confirm?token=")
}

func (s *UserServiceSuite) TestRegister_RejectsDuplicateEmail() {
	s.register("ana@example.com")

	_, err := s.service.Register(s.ctx, user.RegisterRequest{
		Email:           "ANA@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	s.ErrorIs(err, user.ErrEmailTaken)
	s.Equal(apperror.KindConflict, apperror.KindOf(err))
}

func (s *UserServiceSuite) TestRegister_ValidatesPasswords() {
	_, err := s.service.Register(s.ctx, user.RegisterRequest{
		Email:           "ana@example.com",
		Password:        testPassword,
		ConfirmPassword: newPassword,
	})
	s.ErrorIs(err, user.ErrPasswordMismatch)

	_, err = s.service.Register(s.ctx, user.RegisterRequest{
		Email:           "ana@example.com",
		Password:        "short",
		ConfirmPassword: "short",
	})
	s.ErrorIs(err, apperror.ErrValidation)
}

func (s *UserServiceSuite) TestLogin_UnconfirmedAccountWithCorrectPassword() {
	s.register("ana@example.com")

	_, err := s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: testPassword})
	s.ErrorIs(err, apperror.ErrEmailNotConfirmed)

	_, err = s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: newPassword})
	s.ErrorIs(err, user.ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, user.LoginRequest{Email: "nobody@example.com", Password: testPassword})
	s.ErrorIs(err, user.ErrInvalidCredentials)
}

func (s *UserServiceSuite) TestLogin_UnknownEmailMatchesWrongPassword() {
	s.register("ana@example.com")

	_, wrongPassword := s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: newPassword})
	_, unknownEmail := s.service.Login(s.ctx, user.LoginRequest{Email: "nobody@example.com", Password: newPassword})

	s.Require().Error(unknownEmail)
	s.Equal(wrongPassword.Error(), unknownEmail.Error())
	s.Equal(apperror.KindOf(wrongPassword), apperror.KindOf(unknownEmail))
}

func (s *UserServiceSuite) TestConfirmEmail_TokenIsSingleUse() {
	u := s.register("ana@example.com")
	token := s.tokenFrom("confirm")

	confirmed, err := s.service.ConfirmEmail(s.ctx, token)
	s.Require().NoError(err)
	s.True(confirmed.IsEmailConfirmed())
	s.Contains(s.sessions.invalidated, u.ID)

	_, err = s.service.ConfirmEmail(s.ctx, token)
	s.ErrorIs(err, user.ErrInvalidToken)

	_, err = s.service.ConfirmEmail(s.ctx, "")
	s.ErrorIs(err, user.ErrInvalidToken)
}

func (s *UserServiceSuite) TestResendConfirmation() {
	s.register("ana@example.com")
	first := s.tokenFrom("confirm")

	s.Require().NoError(s.service.ResendConfirmation(s.ctx, "ana@example.com"))
	second := s.tokenFrom("confirm")
	s.NotEqual(first, second)

	s.Require().NoError(s.service.ResendConfirmation(s.ctx, "ghost@example.com"))
}

func (s *UserServiceSuite) TestLogin_IssuesTokens() {
	u := s.registerConfirmed("ana@example.com")

	resp, err := s.service.Login(s.ctx, user.LoginRequest{Email: "ANA@example.com", Password: testPassword})
	s.Require().NoError(err)
	s.Equal(u.ID, resp.User.ID)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.EqualValues(900, resp.ExpiresIn)
	s.NotNil(resp.User.LastLoginAt)
}

func (s *UserServiceSuite) TestLogin_UpgradesStaleHashCost() {
	stale := *s.cfg
	stale.Security.BcryptCost = 5
	hash, err := auth.NewPasswordManager(&stale).HashPassword(testPassword)
	s.Require().NoError(err)

	confirmed := time.Now().UTC()
	s.Require().NoError(s.store.Users().Create(s.ctx, &user.User{
		Email:            "ana@example.com",
		PasswordHash:     hash,
		EmailConfirmedAt: &confirmed,
	}))

	_, err = s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: testPassword})
	s.Require().NoError(err)

	stored, err := s.store.Users().FindByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.NotEqual(hash, stored.PasswordHash)
	s.False(auth.NewPasswordManager(s.cfg).NeedsRehash(stored.PasswordHash))
}

func (s *UserServiceSuite) TestRefresh_RotatesAndRevokesOldToken() {
	s.registerConfirmed("ana@example.com")
	login, err := s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: testPassword})
	s.Require().NoError(err)

	refreshed, err := s.service.Refresh(s.ctx, login.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(login.RefreshToken, refreshed.RefreshToken)

	_, err = s.service.Refresh(s.ctx, login.RefreshToken)
	s.ErrorIs(err, user.ErrInvalidRefreshToken)

	_, err = s.service.Refresh(s.ctx, login.AccessToken)
	s.ErrorIs(err, user.ErrInvalidRefreshToken)
}

func (s *UserServiceSuite) TestLogout_RevokesTokens() {
	s.registerConfirmed("ana@example.com")
	login, err := s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: testPassword})
	s.Require().NoError(err)

	claims, err := auth.NewJWTManager(s.cfg).ValidateAccessToken(login.AccessToken)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, claims, login.RefreshToken))
	s.True(s.redis.Exists("token:revoked:" + claims.ID))

	_, err = s.service.Refresh(s.ctx, login.RefreshToken)
	s.ErrorIs(err, user.ErrInvalidRefreshToken)
}

func (s *UserServiceSuite) TestPasswordReset() {
	u := s.registerConfirmed("ana@example.com")

	s.Require().NoError(s.service.ForgotPassword(s.ctx, "ana@example.com"))
	token := s.tokenFrom("reset")

	err := s.service.ResetPassword(s.ctx, user.ResetPasswordRequest{
		Token:           token,
		Password:        newPassword,
		ConfirmPassword: newPassword,
	})
	s.Require().NoError(err)
	_, ok := s.mailer.last("changed")
	s.True(ok)
	s.Contains(s.sessions.invalidated, u.ID)

	_, err = s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: testPassword})
	s.ErrorIs(err, user.ErrInvalidCredentials)
	_, err = s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: newPassword})
	s.NoError(err)

	err = s.service.ResetPassword(s.ctx, user.ResetPasswordRequest{
		Token:           token,
		Password:        newPassword,
		ConfirmPassword: newPassword,
	})
	s.ErrorIs(err, user.ErrInvalidToken)
}

func (s *UserServiceSuite) TestForgotPassword_UnknownEmailIsSilent() {
	s.Require().NoError(s.service.ForgotPassword(s.ctx, "ghost@example.com"))
	_, ok := s.mailer.last("reset")
	s.False(ok)
}

func (s *UserServiceSuite) TestChangePassword() {
	u := s.registerConfirmed("ana@example.com")

	err := s.service.ChangePassword(s.ctx, u.ID, user.ChangePasswordRequest{
		CurrentPassword: newPassword,
		NewPassword:     newPassword,
		ConfirmPassword: newPassword,
	})
	s.ErrorIs(err, user.ErrWrongPassword)

	err = s.service.ChangePassword(s.ctx, u.ID, user.ChangePasswordRequest{
		CurrentPassword: testPassword,
		NewPassword:     newPassword,
		ConfirmPassword: newPassword,
	})
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, user.LoginRequest{Email: "ana@example.com", Password: newPassword})
	s.NoError(err)
}
