// cmd/mailcheck/main.go sends a confirmation email through the configured
// provider so SMTP settings can be verified without registering an account.
package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/pkg/email"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run ./cmd/mailcheck <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg.Logging)

	mailer, err := email.NewEmailService(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure email")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recipient := os.Args[1]
	if err := mailer.SendConfirmation(ctx, recipient, cfg.App.FrontendURL+"/auth/confirm?token=mailcheck"); err != nil {
		log.WithError(err).Fatal("Send failed")
	}

	log.WithFields(logrus.Fields{
		"recipient": recipient,
		"provider":  cfg.Email.Provider,
	}).Info("Test email sent")
}
