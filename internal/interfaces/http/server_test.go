package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/analytics"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/session"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/memory"
	api "github.com/your-org/cafe-storefront/internal/interfaces/http"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/routes"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
)

const testPassword = "Brew!Latte42x"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRenderer struct{}

func (stubRenderer) RenderReceipt(o *order.Order, email string) ([]byte, error) {
	return []byte("%PDF-" + o.ShortID()), nil
}

type checker struct{ err error }

func (c checker) Health(ctx context.Context) error { return c.err }

type envelope struct {
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Code     string          `json:"code"`
	Redirect string          `json:"redirect"`
}

type ServerSuite struct {
	suite.Suite

	ctx       context.Context
	cfg       *config.Config
	store     *memory.Store
	redis     *miniredis.Miniredis
	jwt       *auth.JWTManager
	passwords *auth.PasswordManager
	server    *api.Server
	latte     product.Product
	croissant product.Product
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.redis = miniredis.RunT(s.T())
	s.cfg = &config.Config{
		App: config.AppConfig{Name: "Kape Corner", Environment: "test", FrontendURL: "http://localhost:3000"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-that-is-long-enough-for-hs256",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Server:   config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Security: config.SecurityConfig{BcryptCost: 4, RateLimitPerMinute: 1000},
		Store: config.StoreConfig{
			ShippingFee:          decimal.NewFromInt(50),
			Currency:             "PHP",
			GuestCartTTL:         time.Hour,
			ProfileCacheTTL:      time.Minute,
			PrincipalCacheTTL:    time.Minute,
			IdempotencyTTL:       time.Hour,
			EmailConfirmationTTL: time.Hour,
			PasswordResetTTL:     time.Hour,
		},
	}

	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { client.Close() })

	log := logger.Discard()
	s.jwt = auth.NewJWTManager(s.cfg)
	s.passwords = auth.NewPasswordManager(s.cfg)
	tokens := user.NewRedisTokenStore(client)
	invalidator := session.NewCacheInvalidator(client)

	profiles := profile.NewService(profile.Deps{
		Profiles: s.store.Profiles(),
		Sessions: invalidator,
		Logger:   log,
	})
	users := user.NewService(user.Deps{
		Users:     s.store.Users(),
		Tokens:    tokens,
		Passwords: s.passwords,
		JWT:       s.jwt,
		Profiles:  profiles,
		Sessions:  invalidator,
		Config:    s.cfg,
		Logger:    log,
	})
	orders := order.NewService(order.Deps{
		Orders:       s.store.Orders(),
		Transactions: memory.NewTransactionManager(s.store),
		Idempotency:  order.NewRedisIdempotencyStore(client, time.Minute, time.Hour),
		Receipts:     stubRenderer{},
		ShippingFee:  s.cfg.Store.ShippingFee,
		Logger:       log,
	})
	products := product.NewService(s.store.Products())

	services := routes.Services{
		Products:  products,
		Carts:     cart.NewService(s.store.Carts(), memory.NewCartTransactor(s.store), cart.NewRedisGuestStore(client, time.Hour), s.store.Products(), log),
		Orders:    orders,
		Users:     users,
		Profiles:  profiles,
		Analytics: analytics.NewService(profiles, products, orders),
		Resolver: session.NewResolver(session.ResolverDeps{
			Accounts:    s.store.Users(),
			Roles:       profiles,
			Revocations: tokens,
			Cache:       client,
			CacheTTL:    time.Minute,
			Logger:      log,
		}),
		JWT: s.jwt,
	}
	s.server = api.NewServer(s.cfg, log, services, client, map[string]api.HealthChecker{
		"database": checker{},
		"redis":    checker{},
	})

	s.latte = product.Product{ID: uuid.New(), Name: "Spanish Latte", Price: decimal.RequireFromString("145.00"), Category: "Coffee"}
	s.croissant = product.Product{ID: uuid.New(), Name: "Butter Croissant", Price: decimal.RequireFromString("95.50"), Category: "Pastry"}
	s.store.Products().Put(s.latte)
	s.store.Products().Put(s.croissant)
}

type request struct {
	method  string
	path    string
	body    interface{}
	token   string
	cookies []*http.Cookie
	headers map[string]string
}

func (s *ServerSuite) do(r request) (*httptest.ResponseRecorder, envelope) {
	var body bytes.Buffer
	if r.body != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != "application/pdf" && rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *ServerSuite) createUser(email string, confirmed bool, role profile.Role) (uuid.UUID, string) {
	hash, err := s.passwords.HashPassword(testPassword)
	s.Require().NoError(err)

	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	if confirmed {
		now := time.Now().UTC()
		u.EmailConfirmedAt = &now
	}
	s.Require().NoError(s.store.Users().Create(s.ctx, u))
	_, err = s.store.Profiles().CreateIfAbsent(s.ctx, &profile.Profile{ID: u.ID, Email: email, Role: role})
	s.Require().NoError(err)

	pair, err := s.jwt.GeneratePair(u.ID, u.Email)
	s.Require().NoError(err)
	return u.ID, pair.AccessToken
}

func (s *ServerSuite) addToCart(token string, productID uuid.UUID, qty int, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	rec, _ := s.do(request{
		method:  http.MethodPost,
		path:    "/api/v1/cart/items",
		body:    gin.H{"product_id": productID, "quantity": qty},
		token:   token,
		cookies: cookies,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

func (s *ServerSuite) cartView(env envelope) cart.View {
	var view cart.View
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	return view
}

func (s *ServerSuite) checkoutBody() gin.H {
	return gin.H{"shipping_address": "12 Mabini St, Makati", "payment_method": "cash_on_delivery"}
}

func (s *ServerSuite) TestCatalogIsPublic() {
	rec, env := s.do(request{method: http.MethodGet, path: "/api/v1/products?search=latte"})
	s.Equal(http.StatusOK, rec.Code)

	var page product.ListResponse
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Require().Len(page.Products, 1)
	s.Equal("Spanish Latte", page.Products[0].Name)

	rec, _ = s.do(request{method: http.MethodGet, path: "/api/v1/products/" + uuid.NewString()})
	s.Equal(http.StatusNotFound, rec.Code)

	rec, env = s.do(request{method: http.MethodGet, path: "/api/v1/products/not-a-uuid"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", env.Code)
}

func (s *ServerSuite) TestGuestCartUsesSessionCookie() {
	rec := s.addToCart("", s.latte.ID, 2)
	cookie := sessionCookie(rec)
	s.Require().NotNil(cookie)
	s.True(cookie.HttpOnly)

	_, env := s.do(request{method: http.MethodGet, path: "/api/v1/cart", cookies: []*http.Cookie{cookie}})
	view := s.cartView(env)
	s.Equal("guest", view.Kind)
	s.Require().Len(view.Lines, 1)
	s.Equal(2, view.Lines[0].Quantity)

	_, env = s.do(request{method: http.MethodGet, path: "/api/v1/cart"})
	s.Empty(s.cartView(env).Lines)
}

func (s *ServerSuite) TestCheckoutRequiresSignIn() {
	rec := s.addToCart("", s.latte.ID, 1)
	cookie := sessionCookie(rec)

	rec, env := s.do(request{method: http.MethodGet, path: "/api/v1/checkout", cookies: []*http.Cookie{cookie}})
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(string(env.Data), `"requires_login":true`)

	rec, env = s.do(request{method: http.MethodPost, path: "/api/v1/checkout", body: s.checkoutBody(), cookies: []*http.Cookie{cookie}})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("/login?next=%2Fapi%2Fv1%2Fcheckout", env.Redirect)
}

func (s *ServerSuite) TestCheckoutCreatesOrderAndDrainsCart() {
	_, token := s.createUser("ana@example.com", true, profile.RoleUser)
	s.addToCart(token, s.latte.ID, 2)
	s.addToCart(token, s.croissant.ID, 1)

	headers := map[string]string{"Idempotency-Key": "checkout-1"}
	rec, env := s.do(request{method: http.MethodPost, path: "/api/v1/checkout", body: s.checkoutBody(), token: token, headers: headers})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var result order.CheckoutResult
	s.Require().NoError(json.Unmarshal(env.Data, &result))
	s.False(result.Replayed)
	s.Len(result.Order.Lines, 2)
	s.True(result.Order.Total.Equal(decimal.RequireFromString("435.50")), result.Order.Total.String())

	_, env = s.do(request{method: http.MethodGet, path: "/api/v1/cart", token: token})
	s.Empty(s.cartView(env).Lines)

	rec, env = s.do(request{method: http.MethodPost, path: "/api/v1/checkout", body: s.checkoutBody(), token: token, headers: headers})
	s.Equal(http.StatusOK, rec.Code)
	var replay order.CheckoutResult
	s.Require().NoError(json.Unmarshal(env.Data, &replay))
	s.True(replay.Replayed)
	s.Equal(result.Order.ID, replay.Order.ID)

	rec, _ = s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + result.Order.ID.String() + "/receipt", token: token})
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("application/pdf", rec.Header().Get("Content-Type"))
	s.Contains(rec.Header().Get("Content-Disposition"), "receipt-")
}

func (s *ServerSuite) TestEmptyCartCheckoutPointsBackToCart() {
	_, token := s.createUser("ana@example.com", true, profile.RoleUser)

	rec, env := s.do(request{method: http.MethodPost, path: "/api/v1/checkout", body: s.checkoutBody(), token: token})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("EMPTY_CART", env.Code)
	s.Equal("/cart", env.Redirect)
	n, err := s.store.Orders().Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *ServerSuite) TestOrdersOfOtherUsersAreNotFound() {
	_, ana := s.createUser("ana@example.com", true, profile.RoleUser)
	_, ben := s.createUser("ben@example.com", true, profile.RoleUser)
	s.addToCart(ana, s.latte.ID, 1)

	_, env := s.do(request{method: http.MethodPost, path: "/api/v1/checkout", body: s.checkoutBody(), token: ana})
	var result order.CheckoutResult
	s.Require().NoError(json.Unmarshal(env.Data, &result))

	rec, _ := s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + result.Order.ID.String(), token: ben})
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(request{method: http.MethodGet, path: "/api/v1/orders/" + result.Order.ID.String(), token: ana})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestUnconfirmedUserIsSentToConfirmEmail() {
	_, token := s.createUser("ana@example.com", false, profile.RoleUser)

	rec, env := s.do(request{method: http.MethodGet, path: "/api/v1/orders", token: token})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("EMAIL_NOT_CONFIRMED", env.Code)
	s.Equal(session.ConfirmEmailPath, env.Redirect)
}

func (s *ServerSuite) TestGuestOnlyRoutesRedirectSignedInUsers() {
	_, token := s.createUser("ana@example.com", true, profile.RoleUser)

	rec, _ := s.do(request{method: http.MethodPost, path: "/api/v1/auth/login", body: gin.H{"email": "ana@example.com", "password": testPassword}, token: token})
	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/", rec.Header().Get("Location"))
}

func (s *ServerSuite) TestAdminRoutesRequireAdminRole() {
	_, userToken := s.createUser("ana@example.com", true, profile.RoleUser)
	_, adminToken := s.createUser("admin@example.com", true, profile.RoleAdmin)

	rec, env := s.do(request{method: http.MethodGet, path: "/api/v1/admin/dashboard", token: userToken})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("/", env.Redirect)

	rec, _ = s.do(request{method: http.MethodGet, path: "/api/v1/admin/dashboard"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, env = s.do(request{method: http.MethodGet, path: "/api/v1/admin/dashboard", token: adminToken})
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(string(env.Data), `"users_count":2`)
}

func (s *ServerSuite) TestAdminCannotDemoteThemselves() {
	adminID, adminToken := s.createUser("admin@example.com", true, profile.RoleAdmin)

	rec, env := s.do(request{method: http.MethodPut, path: "/api/v1/admin/users/" + adminID.String() + "/role", body: gin.H{"role": "user"}, token: adminToken})
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("CONFLICT", env.Code)
}

func (s *ServerSuite) TestRoleChangeTakesEffectImmediately() {
	userID, userToken := s.createUser("ana@example.com", true, profile.RoleUser)
	_, adminToken := s.createUser("admin@example.com", true, profile.RoleAdmin)

	rec, _ := s.do(request{method: http.MethodGet, path: "/api/v1/admin/dashboard", token: userToken})
	s.Require().Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(request{method: http.MethodPut, path: "/api/v1/admin/users/" + userID.String() + "/role", body: gin.H{"role": "admin"}, token: adminToken})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(request{method: http.MethodGet, path: "/api/v1/admin/dashboard", token: userToken})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestLoginMergesGuestCart() {
	s.createUser("ana@example.com", true, profile.RoleUser)
	cookie := sessionCookie(s.addToCart("", s.latte.ID, 3))
	s.Require().NotNil(cookie)

	rec, env := s.do(request{
		method:  http.MethodPost,
		path:    "/api/v1/auth/login",
		body:    gin.H{"email": "ana@example.com", "password": testPassword},
		cookies: []*http.Cookie{cookie},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp user.AuthResponse
	s.Require().NoError(json.Unmarshal(env.Data, &resp))
	s.Require().NotEmpty(resp.AccessToken)

	_, env = s.do(request{method: http.MethodGet, path: "/api/v1/cart", token: resp.AccessToken})
	view := s.cartView(env)
	s.Equal("user", view.Kind)
	s.Require().Len(view.Lines, 1)
	s.Equal(3, view.Lines[0].Quantity)
}

func (s *ServerSuite) TestLogoutRevokesAccessToken() {
	_, token := s.createUser("ana@example.com", true, profile.RoleUser)

	rec, _ := s.do(request{method: http.MethodPost, path: "/api/v1/auth/logout", token: token})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(request{method: http.MethodGet, path: "/api/v1/orders", token: token})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ServerSuite) TestHealth() {
	rec, _ := s.do(request{method: http.MethodGet, path: "/health"})
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))

	rec, _ = s.do(request{method: http.MethodGet, path: "/ready"})
	s.Equal(http.StatusOK, rec.Code)
}

func TestHealthReportsFailingComponent(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret-that-is-long-enough-for-hs256"}}
	server := api.NewServer(cfg, logger.Discard(), routes.Services{JWT: auth.NewJWTManager(cfg)}, nil, map[string]api.HealthChecker{
		"database": checker{err: errors.New("connection refused")},
		"redis":    checker{},
	})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Components["database"] != "unhealthy" || body.Components["redis"] != "healthy" {
		t.Fatalf("unexpected components %v", body.Components)
	}
}
