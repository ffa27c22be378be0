package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrEmailTaken
	} else if err != nil {
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where(where, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	return &u, nil
}

func (r *UserRepository) MarkEmailConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"email_confirmed_at": at})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update(ctx, id, map[string]interface{}{"password": hash})
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"last_login_at": at})
}

func (r *UserRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ProfileRepository implements profile.Repository
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to create profile")
	}
	return r.FindByID(ctx, p.ID)
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, profile.ErrProfileNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to find profile")
	}
	return &p, nil
}

// Update writes the editable attributes. The role is only changed by SetRole.
func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	result := r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"full_name":  p.FullName,
			"avatar_url": p.AvatarURL,
			"bio":        p.Bio,
			"phone":      p.Phone,
			"address":    p.Address,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update profile")
	}
	if result.RowsAffected == 0 {
		return profile.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) SetRole(ctx context.Context, id uuid.UUID, role profile.Role) error {
	result := r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update role")
	}
	if result.RowsAffected == 0 {
		return profile.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) List(ctx context.Context, offset, limit int) ([]profile.Profile, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&profile.Profile{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count profiles")
	}

	profiles := []profile.Profile{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list profiles")
	}
	return profiles, total, nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&profile.Profile{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count profiles")
	}
	return n, nil
}
