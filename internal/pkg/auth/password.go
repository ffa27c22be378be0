// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/your-org/cafe-storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything past 72 bytes
)

var (
	sequentialLetters = regexp.MustCompile(`abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz`)
	sequentialDigits  = regexp.MustCompile(`012|123|234|345|456|567|678|789`)

	commonPasswords = []string{
		"password", "123456", "qwerty", "letmein", "welcome", "admin",
		"iloveyou", "monkey", "dragon", "football",
	}
)

// passwordRule reports a problem with a password, or "" when it passes
type passwordRule func(password string) string

var passwordRules = []passwordRule{
	func(pw string) string {
		if len(pw) < minPasswordLength {
			return fmt.Sprintf("password must be at least %d characters long", minPasswordLength)
		}
		if len(pw) > maxPasswordLength {
			return fmt.Sprintf("password must be no more than %d bytes long", maxPasswordLength)
		}
		return ""
	},
	requireClass("an uppercase letter", unicode.IsUpper),
	requireClass("a lowercase letter", unicode.IsLower),
	requireClass("a number", unicode.IsNumber),
	requireClass("a special character", func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}),
	func(pw string) string {
		lower := strings.ToLower(pw)
		if sequentialLetters.MatchString(lower) {
			return "password cannot contain sequential letters"
		}
		if sequentialDigits.MatchString(pw) {
			return "password cannot contain sequential numbers"
		}
		return ""
	},
	func(pw string) string {
		runes := []rune(pw)
		for i := 2; i < len(runes); i++ {
			if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
				return "password cannot contain more than 2 repeating characters"
			}
		}
		return ""
	},
	func(pw string) string {
		lower := strings.ToLower(pw)
		for _, common := range commonPasswords {
			if strings.Contains(lower, common) {
				return "password is too common and easily guessable"
			}
		}
		return ""
	},
}

func requireClass(name string, match func(rune) bool) passwordRule {
	return func(pw string) string {
		if strings.IndexFunc(pw, match) < 0 {
			return "password must contain at least " + name
		}
		return ""
	}
}

// PasswordManager hashes and checks account passwords
type PasswordManager struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewPasswordManager creates a password manager using the configured bcrypt cost
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// ValidatePassword returns the first policy rule the password breaks
func (p *PasswordManager) ValidatePassword(password string) error {
	for _, rule := range passwordRules {
		if msg := rule(password); msg != "" {
			return fmt.Errorf("%s", msg)
		}
	}
	return nil
}

// HashPassword validates and hashes a password
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// NeedsRehash reports whether hash was made with a different cost than the
// one currently configured
func (p *PasswordManager) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != p.cost
}

// VerifyNoAccount spends the same bcrypt work as VerifyPassword for a login
// whose account does not exist, so response time does not reveal which
// emails are registered. It always fails.
func (p *PasswordManager) VerifyNoAccount(password string) error {
	p.dummyOnce.Do(func() {
		p.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-account"), p.cost)
	})
	_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
	return bcrypt.ErrMismatchedHashAndPassword
}
