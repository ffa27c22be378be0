// cmd/api/services.go
package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/analytics"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/session"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/cafe-storefront/internal/infrastructure/media"
	"github.com/your-org/cafe-storefront/internal/infrastructure/messaging/kafka"
	"github.com/your-org/cafe-storefront/internal/interfaces/http/routes"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
	"github.com/your-org/cafe-storefront/internal/pkg/email"
	"github.com/your-org/cafe-storefront/internal/pkg/pdf"
	"gorm.io/gorm"
)

// integrations are the optional outbound adapters
type integrations struct {
	mailer    *email.EmailService
	events    *kafka.Publisher
	uploader  *media.CloudinaryUploader
	receipts  *pdf.Service
	passwords *auth.PasswordManager
}

// newServices assembles the domain services over postgres and redis
func newServices(cfg *config.Config, log *logrus.Logger, db *gorm.DB, rdb *redis.Client, in integrations) routes.Services {
	tx := postgres.NewTransactionManager(db)
	productRepo := postgres.NewProductRepository(db)
	tokens := user.NewRedisTokenStore(rdb)
	invalidator := session.NewCacheInvalidator(rdb)
	jwtManager := auth.NewJWTManager(cfg)

	profileDeps := profile.Deps{
		Profiles: postgres.NewProfileRepository(db),
		Cache:    profile.NewRedisCache(rdb, cfg.Store.ProfileCacheTTL),
		Sessions: invalidator,
		Media:    cfg.Media,
		Logger:   log,
	}
	if in.uploader != nil {
		profileDeps.Uploader = in.uploader
	}
	profiles := profile.NewService(profileDeps)

	userDeps := user.Deps{
		Users:     postgres.NewUserRepository(db),
		Tokens:    tokens,
		Passwords: in.passwords,
		JWT:       jwtManager,
		Profiles:  profiles,
		Sessions:  invalidator,
		Config:    cfg,
		Logger:    log,
	}
	if in.mailer != nil {
		userDeps.Mailer = in.mailer
	}
	users := user.NewService(userDeps)

	orderDeps := order.Deps{
		Orders:       postgres.NewOrderRepository(db),
		Transactions: tx,
		Idempotency:  order.NewRedisIdempotencyStore(rdb, cfg.Store.IdempotencyPendingTTL, cfg.Store.IdempotencyTTL),
		ShippingFee:  cfg.Store.ShippingFee,
		Logger:       log,
	}
	if in.events != nil {
		orderDeps.Events = in.events
	}
	if in.mailer != nil {
		orderDeps.Notifier = in.mailer
	}
	if in.receipts != nil {
		orderDeps.Receipts = in.receipts
	}
	orders := order.NewService(orderDeps)

	products := product.NewService(productRepo)

	return routes.Services{
		Products: products,
		Carts: cart.NewService(
			postgres.NewCartRepository(db),
			tx,
			cart.NewRedisGuestStore(rdb, cfg.Store.GuestCartTTL),
			productRepo,
			log,
		),
		Orders:    orders,
		Users:     users,
		Profiles:  profiles,
		Analytics: analytics.NewService(profiles, products, orders),
		Resolver: session.NewResolver(session.ResolverDeps{
			Accounts:    userDeps.Users,
			Roles:       profiles,
			Revocations: tokens,
			Cache:       rdb,
			CacheTTL:    cfg.Store.PrincipalCacheTTL,
			Logger:      log,
		}),
		JWT: jwtManager,
	}
}
