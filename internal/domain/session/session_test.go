package session_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/session"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/memory"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
)

func TestRequireUser(t *testing.T) {
	err := session.RequireUser(session.Anonymous)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	unconfirmed := session.Principal{UserID: uuid.New(), Role: profile.RoleUser}
	err = session.RequireUser(unconfirmed)
	assert.ErrorIs(t, err, apperror.ErrEmailNotConfirmed)
	assert.NotErrorIs(t, err, apperror.ErrUnauthenticated)

	confirmed := session.Principal{UserID: uuid.New(), EmailConfirmed: true, Role: profile.RoleUser}
	assert.NoError(t, session.RequireUser(confirmed))
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, session.RequireAdmin(session.Anonymous), apperror.ErrUnauthenticated)

	customer := session.Principal{UserID: uuid.New(), EmailConfirmed: true, Role: profile.RoleUser}
	assert.ErrorIs(t, session.RequireAdmin(customer), apperror.ErrForbidden)

	unconfirmedAdmin := session.Principal{UserID: uuid.New(), Role: profile.RoleAdmin}
	assert.ErrorIs(t, session.RequireAdmin(unconfirmedAdmin), apperror.ErrEmailNotConfirmed)

	admin := session.Principal{UserID: uuid.New(), EmailConfirmed: true, Role: profile.RoleAdmin}
	assert.NoError(t, session.RequireAdmin(admin))
	assert.Equal(t, "admin", admin.Capability())
	assert.Equal(t, "user", customer.Capability())
	assert.Equal(t, "anonymous", session.Anonymous.Capability())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   session.RouteClass
	}{
		{http.MethodGet, "/", session.RoutePublic},
		{http.MethodGet, "/products", session.RoutePublic},
		{http.MethodGet, "/products/featured", session.RoutePublic},
		{http.MethodGet, "/products/" + uuid.NewString(), session.RoutePublic},
		{http.MethodGet, "/cart", session.RoutePublic},
		{http.MethodPost, "/cart/items", session.RoutePublic},
		{http.MethodGet, "/checkout", session.RoutePublic},
		{http.MethodGet, "/auth/confirm", session.RoutePublic},
		{http.MethodPost, "/auth/refresh", session.RoutePublic},
		{http.MethodGet, "/health", session.RoutePublic},

		{http.MethodPost, "/auth/login", session.RouteGuestOnly},
		{http.MethodPost, "/auth/register", session.RouteGuestOnly},
		{http.MethodPost, "/auth/forgot-password/", session.RouteGuestOnly},

		{http.MethodPost, "/checkout", session.RouteProtected},
		{http.MethodPost, "/cart/merge", session.RouteProtected},
		{http.MethodGet, "/orders", session.RouteProtected},
		{http.MethodGet, "/orders/" + uuid.NewString(), session.RouteProtected},
		{http.MethodGet, "/profile", session.RouteProtected},
		{http.MethodPost, "/auth/logout", session.RouteProtected},
		{http.MethodGet, "/productivity", session.RouteProtected},

		{http.MethodGet, "/admin", session.RouteAdmin},
		{http.MethodPut, "/admin/orders/1/status", session.RouteAdmin},
		{http.MethodGet, "/admin/dashboard", session.RouteAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, session.Classify(tt.method, tt.path))
		})
	}
}

func TestRedirectHint(t *testing.T) {
	assert.Equal(t, "/login?next=%2Forders%2F42", session.RedirectHint(apperror.ErrUnauthenticated, "/orders/42"))
	assert.Equal(t, "/login", session.RedirectHint(apperror.ErrUnauthenticated, ""))
	assert.Equal(t, "/login?error=confirm-email", session.RedirectHint(apperror.ErrEmailNotConfirmed, "/orders"))
	assert.Equal(t, "/", session.RedirectHint(apperror.ErrForbidden, "/admin"))
	assert.Equal(t, "/cart", session.RedirectHint(apperror.ErrEmptyCart, "/checkout"))
	assert.Empty(t, session.RedirectHint(apperror.Validation("bad"), "/checkout"))
	assert.Empty(t, session.RedirectHint(errors.New("boom"), "/checkout"))
}

func TestPrincipalContext(t *testing.T) {
	assert.True(t, session.FromContext(context.Background()).IsAnonymous())

	p := session.Principal{UserID: uuid.New(), Role: profile.RoleAdmin}
	ctx := session.NewContext(context.Background(), p)
	assert.Equal(t, p, session.FromContext(ctx))
	assert.True(t, session.FromContext(ctx).IsAdmin())
}

type countingRoles struct {
	roles map[uuid.UUID]profile.Role
	calls int
}

func (r *countingRoles) Role(ctx context.Context, userID uuid.UUID, email string) (profile.Role, error) {
	r.calls++
	if role, ok := r.roles[userID]; ok {
		return role, nil
	}
	return profile.RoleUser, nil
}

type resolverFixture struct {
	store    *memory.Store
	redis    *miniredis.Miniredis
	tokens   *user.RedisTokenStore
	roles    *countingRoles
	resolver *session.Resolver
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &resolverFixture{
		store:  memory.New(),
		redis:  mr,
		tokens: user.NewRedisTokenStore(client),
		roles:  &countingRoles{roles: make(map[uuid.UUID]profile.Role)},
	}
	f.resolver = session.NewResolver(session.ResolverDeps{
		Accounts:    f.store.Users(),
		Roles:       f.roles,
		Revocations: f.tokens,
		Cache:       client,
		CacheTTL:    time.Minute,
	})
	return f
}

func (f *resolverFixture) createUser(t *testing.T, confirmed bool) *user.User {
	t.Helper()
	u := &user.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: "x"}
	if confirmed {
		now := time.Now().UTC()
		u.EmailConfirmedAt = &now
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func claimsFor(id uuid.UUID) *auth.Claims {
	c := &auth.Claims{UserID: id.String(), Email: "ana@example.com", TokenType: auth.TokenTypeAccess}
	c.ID = uuid.NewString()
	return c
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)
	u := f.createUser(t, true)
	f.roles.roles[u.ID] = profile.RoleAdmin

	p, err := f.resolver.Resolve(ctx, claimsFor(u.ID))
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.True(t, p.EmailConfirmed)
	assert.True(t, p.IsAdmin())
	assert.True(t, f.redis.Exists("principal:"+u.ID.String()))

	_, err = f.resolver.Resolve(ctx, claimsFor(u.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, f.roles.calls)
}

func TestResolver_InvalidateReloads(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)
	u := f.createUser(t, false)

	p, err := f.resolver.Resolve(ctx, claimsFor(u.ID))
	require.NoError(t, err)
	assert.False(t, p.EmailConfirmed)

	require.NoError(t, f.store.Users().MarkEmailConfirmed(ctx, u.ID, time.Now()))
	require.NoError(t, f.resolver.Invalidate(ctx, u.ID))

	p, err = f.resolver.Resolve(ctx, claimsFor(u.ID))
	require.NoError(t, err)
	assert.True(t, p.EmailConfirmed)
	assert.Equal(t, 2, f.roles.calls)
}

func TestResolver_AnonymousCases(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)
	u := f.createUser(t, true)

	p, err := f.resolver.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.True(t, p.IsAnonymous())

	p, err = f.resolver.Resolve(ctx, claimsFor(uuid.New()))
	require.NoError(t, err)
	assert.True(t, p.IsAnonymous())

	claims := claimsFor(u.ID)
	require.NoError(t, f.tokens.Revoke(ctx, claims.ID, time.Minute))
	p, err = f.resolver.Resolve(ctx, claims)
	require.NoError(t, err)
	assert.True(t, p.IsAnonymous())

	f.redis.Close()
	p, err = f.resolver.Resolve(ctx, claimsFor(u.ID))
	require.NoError(t, err)
	assert.True(t, p.IsAnonymous())
}

func TestCacheInvalidator_DropsResolverEntry(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(t)
	u := f.createUser(t, true)

	_, err := f.resolver.Resolve(ctx, claimsFor(u.ID))
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: f.redis.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, session.NewCacheInvalidator(client).Invalidate(ctx, u.ID))

	_, err = f.resolver.Resolve(ctx, claimsFor(u.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, f.roles.calls)

	var nilInvalidator *session.CacheInvalidator
	assert.NoError(t, nilInvalidator.Invalidate(ctx, u.ID))
}
