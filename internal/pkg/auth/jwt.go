// internal/pkg/auth/jwt.go
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/config"
)

// TokenType separates access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// clockSkew tolerated on exp/nbf/iat
const clockSkew = 30 * time.Second

// Claims is the payload of both token types. RegisteredClaims.ID is the token
// id checked against the revocation list.
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// UserUUID parses the user id claim
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// TTL is the remaining lifetime, zero for tokens without expiry
func (c *Claims) TTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}

// TokenPair is what login and refresh hand back to the client
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// JWTManager signs and verifies HS256 tokens
type JWTManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
}

// NewJWTManager creates a JWT manager from the JWT config section
func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret:     []byte(cfg.JWT.Secret),
		issuer:     cfg.App.Name,
		accessTTL:  cfg.JWT.AccessTokenExpiry,
		refreshTTL: cfg.JWT.RefreshTokenExpiry,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.App.Name),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateAccessToken issues a short-lived access token
func (j *JWTManager) GenerateAccessToken(userID uuid.UUID, email string) (string, error) {
	return j.sign(userID, email, TokenTypeAccess, j.accessTTL)
}

// GenerateRefreshToken issues a refresh token
func (j *JWTManager) GenerateRefreshToken(userID uuid.UUID, email string) (string, error) {
	return j.sign(userID, email, TokenTypeRefresh, j.refreshTTL)
}

// GeneratePair issues an access and a refresh token
func (j *JWTManager) GeneratePair(userID uuid.UUID, email string) (*TokenPair, error) {
	access, err := j.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := j.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(j.accessTTL.Seconds()),
	}, nil
}

func (j *JWTManager) sign(userID uuid.UUID, email string, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID:    userID.String(),
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   "user:" + userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// ValidateToken verifies signature, issuer and time claims of either token type
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := j.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	switch claims.TokenType {
	case TokenTypeAccess, TokenTypeRefresh:
	default:
		return nil, fmt.Errorf("unknown token type %q", claims.TokenType)
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, fmt.Errorf("invalid user id claim: %w", err)
	}
	return claims, nil
}

// ValidateAccessToken accepts access tokens only
func (j *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validateAs(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken accepts refresh tokens only
func (j *JWTManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validateAs(tokenString, TokenTypeRefresh)
}

func (j *JWTManager) validateAs(tokenString string, want TokenType) (*Claims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", want, claims.TokenType)
	}
	return claims, nil
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" header. The
// scheme is matched case-insensitively.
func ExtractTokenFromHeader(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
