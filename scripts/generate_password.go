// Prints a bcrypt hash for seeding accounts by hand, using the same cost and
// strength rules as the API.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	passwords := auth.NewPasswordManager(cfg)

	password := os.Args[1]
	if err := passwords.ValidatePassword(password); err != nil {
		logrus.WithError(err).Fatal("Password rejected")
	}

	hash, err := passwords.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Fatal("Error generating hash")
	}
	if err := passwords.VerifyPassword(password, hash); err != nil {
		logrus.WithError(err).Fatal("Hash verification failed")
	}

	fmt.Printf("Hash: %s\n", hash)
}
