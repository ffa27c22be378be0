// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"gorm.io/gorm"
)

// User is an account of the identity provider
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash     string     `gorm:"column:password;not null;size:255" json:"-"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	LastLoginAt      *time.Time `json:"last_login_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate normalizes the email and assigns an id
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsEmailConfirmed reports whether the address was verified
func (u *User) IsEmailConfirmed() bool {
	return u.EmailConfirmedAt != nil
}

// NormalizeEmail lower-cases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	ErrUserNotFound = apperror.New(apperror.KindNotFound, "USER_NOT_FOUND", "User not found")

	ErrEmailTaken = apperror.New(apperror.KindConflict, "EMAIL_TAKEN", "An account with this email already exists")

	ErrInvalidCredentials = apperror.New(apperror.KindUnauthenticated, "INVALID_CREDENTIALS", "Invalid email or password")

	ErrInvalidRefreshToken = apperror.New(apperror.KindUnauthenticated, "INVALID_REFRESH_TOKEN", "Your session has expired. Please sign in again")

	ErrInvalidToken = apperror.New(apperror.KindValidation, "INVALID_TOKEN", "This link is invalid or has expired")

	ErrWrongPassword = apperror.New(apperror.KindValidation, "WRONG_PASSWORD", "Current password is incorrect")

	ErrPasswordMismatch = apperror.New(apperror.KindValidation, "PASSWORD_MISMATCH", "Passwords do not match")
)
