package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
)

// Accounts looks up the identity behind a token
type Accounts interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Roles returns the role of a user, creating the profile when absent
type Roles interface {
	Role(ctx context.Context, userID uuid.UUID, email string) (profile.Role, error)
}

// Revocations reports denylisted token ids
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ResolverDeps collects the collaborators of a Resolver. Cache may be nil.
type ResolverDeps struct {
	Accounts    Accounts
	Roles       Roles
	Revocations Revocations
	Cache       *redis.Client
	CacheTTL    time.Duration
	Logger      *logrus.Logger
}

// Resolver turns validated token claims into a Principal. Account state and
// role are cached per user under principal:<id> for a short time.
type Resolver struct {
	accounts    Accounts
	roles       Roles
	revocations Revocations
	cache       *redis.Client
	ttl         time.Duration
	logger      *logrus.Logger
}

// NewResolver creates a session resolver
func NewResolver(deps ResolverDeps) *Resolver {
	return &Resolver{
		accounts:    deps.Accounts,
		roles:       deps.Roles,
		revocations: deps.Revocations,
		cache:       deps.Cache,
		ttl:         deps.CacheTTL,
		logger:      logger.OrDiscard(deps.Logger),
	}
}

type cachedPrincipal struct {
	Email          string       `json:"email"`
	EmailConfirmed bool         `json:"email_confirmed"`
	Role           profile.Role `json:"role"`
}

func principalKey(userID uuid.UUID) string {
	return fmt.Sprintf("principal:%s", userID)
}

// Resolve returns the principal for claims. Missing claims, revoked tokens
// and deleted accounts resolve to Anonymous.
func (r *Resolver) Resolve(ctx context.Context, claims *auth.Claims) (Principal, error) {
	if claims == nil {
		return Anonymous, nil
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return Anonymous, nil
	}

	log := r.logger.WithField("user_id", userID)

	if r.revocations != nil {
		revoked, err := r.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.WithError(err).Warn("Revocation check failed, treating request as anonymous")
			return Anonymous, nil
		}
		if revoked {
			return Anonymous, nil
		}
	}

	if cached, ok := r.fromCache(ctx, userID); ok {
		return Principal{
			UserID:         userID,
			Email:          cached.Email,
			EmailConfirmed: cached.EmailConfirmed,
			Role:           cached.Role,
			TokenID:        claims.ID,
		}, nil
	}

	account, err := r.accounts.FindByID(ctx, userID)
	if errors.Is(err, user.ErrUserNotFound) {
		return Anonymous, nil
	} else if err != nil {
		return Anonymous, fmt.Errorf("failed to load account: %w", err)
	}

	role, err := r.roles.Role(ctx, userID, account.Email)
	if err != nil {
		return Anonymous, fmt.Errorf("failed to load role: %w", err)
	}

	entry := cachedPrincipal{
		Email:          account.Email,
		EmailConfirmed: account.IsEmailConfirmed(),
		Role:           role,
	}
	r.toCache(ctx, userID, entry)

	return Principal{
		UserID:         userID,
		Email:          entry.Email,
		EmailConfirmed: entry.EmailConfirmed,
		Role:           entry.Role,
		TokenID:        claims.ID,
	}, nil
}

// Invalidate drops the cached principal of userID. Called after email
// confirmation, password and role changes.
func (r *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return NewCacheInvalidator(r.cache).Invalidate(ctx, userID)
}

// CacheInvalidator drops cached principals without a full Resolver. The
// profile and account services take one, as the Resolver depends on them.
type CacheInvalidator struct {
	cache *redis.Client
}

// NewCacheInvalidator creates an invalidator over the principal cache
func NewCacheInvalidator(cache *redis.Client) *CacheInvalidator {
	return &CacheInvalidator{cache: cache}
}

// Invalidate drops the cached principal of userID
func (i *CacheInvalidator) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if i == nil || i.cache == nil {
		return nil
	}
	if err := i.cache.Del(ctx, principalKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate session cache: %w", err)
	}
	return nil
}

func (r *Resolver) fromCache(ctx context.Context, userID uuid.UUID) (cachedPrincipal, bool) {
	var entry cachedPrincipal
	if r.cache == nil {
		return entry, false
	}

	data, err := r.cache.Get(ctx, principalKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.WithField("user_id", userID).WithError(err).Warn("Session cache read failed")
		}
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, false
	}
	return entry, true
}

func (r *Resolver) toCache(ctx context.Context, userID uuid.UUID, entry cachedPrincipal) {
	if r.cache == nil || r.ttl <= 0 {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, principalKey(userID), data, r.ttl).Err(); err != nil {
		r.logger.WithField("user_id", userID).WithError(err).Warn("Session cache write failed")
	}
}
