// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/redis"
	"github.com/your-org/cafe-storefront/internal/infrastructure/media"
	"github.com/your-org/cafe-storefront/internal/infrastructure/messaging/kafka"
	"github.com/your-org/cafe-storefront/internal/interfaces/http"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
	"github.com/your-org/cafe-storefront/internal/pkg/email"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
	"github.com/your-org/cafe-storefront/internal/pkg/pdf"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	passwords := auth.NewPasswordManager(cfg)

	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}
	if cfg.Seed.Enabled {
		seed(log, migration, cfg, passwords)
	}

	in := integrations{
		receipts:  pdf.NewService(cfg),
		passwords: passwords,
	}

	mailer, err := email.NewEmailService(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure email")
	}
	in.mailer = mailer

	if cfg.KafkaEnabled() {
		publisher, err := kafka.NewPublisher(cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to configure order event publisher")
		}
		defer publisher.Close()
		in.events = publisher
	} else {
		log.Info("Kafka brokers not configured, order events are not published")
	}

	if cfg.Media.CloudinaryURL != "" {
		uploader, err := media.NewCloudinaryUploader(cfg.Media, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to configure media uploads")
		}
		in.uploader = uploader
	} else {
		log.Info("Cloudinary not configured, avatar uploads are disabled")
	}

	services := newServices(cfg, log, db.GetDB(), redisClient.GetClient(), in)
	server := http.NewServer(cfg, log, services, redisClient.GetClient(), map[string]http.HealthChecker{
		"database": db,
		"redis":    redisClient,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}

// seed seeds the catalog and, when a password is configured, the admin account
func seed(log *logrus.Logger, migration *postgres.Migration, cfg *config.Config, passwords *auth.PasswordManager) {
	var hash string
	if cfg.Seed.AdminPassword != "" {
		var err error
		hash, err = passwords.HashPassword(cfg.Seed.AdminPassword)
		if err != nil {
			log.WithError(err).Warn("Failed to hash seed admin password, skipping admin account")
		}
	}
	if err := migration.SeedInitialData(cfg.Seed.AdminEmail, hash); err != nil {
		log.WithError(err).Warn("Data seeding failed")
	}
}
