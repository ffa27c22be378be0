package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/cafe-storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "cafe-storefront"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-that-is-long-enough-for-hs256",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "ana@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)

	parsed, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.TTL(), 59*time.Minute)
}

func TestJWTManager_RejectsWrongTokenType(t *testing.T) {
	m := NewJWTManager(testConfig())

	pair, err := m.GeneratePair(uuid.New(), "ana@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)

	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)

	assert.Equal(t, int64(3600), pair.ExpiresIn)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	m := NewJWTManager(testConfig())
	token, err := m.GenerateAccessToken(uuid.New(), "ana@example.com")
	require.NoError(t, err)

	other := testConfig()
	other.JWT.Secret = "a-completely-different-secret-of-32-chars"
	_, err = NewJWTManager(other).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_TokenIDsAreUnique(t *testing.T) {
	m := NewJWTManager(testConfig())
	userID := uuid.New()

	first, err := m.GenerateAccessToken(userID, "ana@example.com")
	require.NoError(t, err)
	second, err := m.GenerateAccessToken(userID, "ana@example.com")
	require.NoError(t, err)

	c1, err := m.ValidateToken(first)
	require.NoError(t, err)
	c2, err := m.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestJWTManager_RejectsForeignIssuer(t *testing.T) {
	other := testConfig()
	other.App.Name = "someone-else"
	token, err := NewJWTManager(other).GenerateAccessToken(uuid.New(), "ana@example.com")
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig()).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc.def", ExtractTokenFromHeader("Bearer abc.def"))
	assert.Equal(t, "abc.def", ExtractTokenFromHeader("bearer  abc.def "))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}

func TestPasswordManager_ValidatePassword(t *testing.T) {
	p := NewPasswordManager(testConfig())

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"strong", "Brew!Latte42x", false},
		{"too short", "B!l4", true},
		{"no upper", "brew!latte42x", true},
		{"no number", "Brew!Lattexx", true},
		{"no special", "BrewLatte42x", true},
		{"sequential digits", "Brew!Latte123", true},
		{"common word", "Password!42x", true},
		{"repeated chars", "Brew!Laaatte42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordManager_HashAndVerify(t *testing.T) {
	p := NewPasswordManager(testConfig())

	hash, err := p.HashPassword("Brew!Latte42x")
	require.NoError(t, err)
	assert.NotEqual(t, "Brew!Latte42x", hash)

	assert.NoError(t, p.VerifyPassword("Brew!Latte42x", hash))
	assert.Error(t, p.VerifyPassword("Brew!Latte42y", hash))
}

func TestPasswordManager_NeedsRehash(t *testing.T) {
	p := NewPasswordManager(testConfig())

	hash, err := p.HashPassword("Brew!Latte42x")
	require.NoError(t, err)
	assert.False(t, p.NeedsRehash(hash))

	stronger := testConfig()
	stronger.Security.BcryptCost = 5
	assert.True(t, NewPasswordManager(stronger).NeedsRehash(hash))
	assert.True(t, p.NeedsRehash("not-a-bcrypt-hash"))
}

func TestPasswordManager_VerifyNoAccount(t *testing.T) {
	p := NewPasswordManager(testConfig())

	assert.ErrorIs(t, p.VerifyNoAccount("Brew!Latte42x"), bcrypt.ErrMismatchedHashAndPassword)
	assert.ErrorIs(t, p.VerifyNoAccount("no-such-account"), bcrypt.ErrMismatchedHashAndPassword)

	// the comparison runs against a real hash at the configured cost
	cost, err := bcrypt.Cost(p.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, 4, cost)
}
