package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/apperror"
)

// Role is the coarse capability tag of a profile
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile holds the displayable attributes and the role of an account.
// Its id is the account's user id.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:255;index" json:"email"`
	FullName  string    `gorm:"size:200" json:"full_name"`
	AvatarURL string    `gorm:"size:500" json:"avatar_url"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Phone     string    `gorm:"size:30" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Role      Role      `gorm:"size:20;not null;default:'user';index" json:"role"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Profile) TableName() string {
	return "profiles"
}

// IsAdmin reports whether the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// DisplayName returns the full name, or the email when none is set
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

var (
	ErrProfileNotFound = apperror.New(apperror.KindNotFound, "PROFILE_NOT_FOUND", "Profile not found")

	ErrInvalidRole = apperror.New(apperror.KindValidation, "INVALID_ROLE", "Role must be user or admin")

	ErrUploadsDisabled = apperror.New(apperror.KindValidation, "UPLOADS_DISABLED", "Avatar uploads are not configured")
)
