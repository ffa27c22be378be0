package profile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
	"github.com/your-org/cafe-storefront/internal/pkg/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Field limits for profile updates
const (
	maxFullNameLength = 200
	maxAvatarLength   = 500
	maxBioLength      = 1000
	maxPhoneLength    = 30
	maxAddressLength  = 500
)

// SessionInvalidator drops cached session state after a role change
type SessionInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Deps collects the collaborators of the profile service
type Deps struct {
	Profiles Repository
	Cache    Cache
	Uploader Uploader
	Sessions SessionInvalidator
	Media    config.MediaConfig
	Logger   *logrus.Logger
}

// Service handles profile business logic
type Service struct {
	repo     Repository
	cache    Cache
	uploader Uploader
	sessions SessionInvalidator
	media    config.MediaConfig
	logger   *logrus.Logger
}

// NewService creates a new profile service
func NewService(deps Deps) *Service {
	s := &Service{
		repo:     deps.Profiles,
		cache:    deps.Cache,
		uploader: deps.Uploader,
		sessions: deps.Sessions,
		media:    deps.Media,
		logger:   logger.OrDiscard(deps.Logger),
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	return s
}

// UpdateProfileRequest represents editable profile fields
type UpdateProfileRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Validate checks field lengths
func (r *UpdateProfileRequest) Validate() error {
	fields := []struct {
		name  string
		value *string
		max   int
	}{
		{"Full name", &r.FullName, maxFullNameLength},
		{"Avatar URL", &r.AvatarURL, maxAvatarLength},
		{"Bio", &r.Bio, maxBioLength},
		{"Phone", &r.Phone, maxPhoneLength},
		{"Address", &r.Address, maxAddressLength},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if len(*f.value) > f.max {
			return apperror.Validation(fmt.Sprintf("%s must be at most %d characters", f.name, f.max))
		}
	}
	return nil
}

// SetRoleRequest represents an admin role change
type SetRoleRequest struct {
	Role Role `json:"role" binding:"required"`
}

// ListRequest represents admin user list query parameters
type ListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=20"`
}

// ListResponse represents a page of profiles
type ListResponse struct {
	Users      []Profile             `json:"users"`
	Pagination pagination.Pagination `json:"pagination"`
}

// Avatar is an uploaded image
type Avatar struct {
	File io.Reader
	Size int64
}

// GetOrCreate returns the profile, creating it with the user role on first access
func (s *Service) GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*Profile, error) {
	if p := s.cached(ctx, userID); p != nil {
		return p, nil
	}

	now := time.Now().UTC()
	p, err := s.repo.CreateIfAbsent(ctx, &Profile{
		ID:        userID,
		Email:     email,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.store(ctx, p)
	return p, nil
}

// Provision creates the profile of a new account, keeping an existing one
func (s *Service) Provision(ctx context.Context, userID uuid.UUID, email, fullName string) error {
	now := time.Now().UTC()
	p, err := s.repo.CreateIfAbsent(ctx, &Profile{
		ID:        userID,
		Email:     email,
		FullName:  fullName,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}
	s.store(ctx, p)
	return nil
}

// Get returns an existing profile
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	if p := s.cached(ctx, userID); p != nil {
		return p, nil
	}

	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, p)
	return p, nil
}

// Role returns the user's role, creating the profile when absent
func (s *Service) Role(ctx context.Context, userID uuid.UUID, email string) (Role, error) {
	p, err := s.GetOrCreate(ctx, userID, email)
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

// Update replaces the editable fields of the user's own profile
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.FullName = req.FullName
	p.AvatarURL = req.AvatarURL
	p.Bio = req.Bio
	p.Phone = req.Phone
	p.Address = req.Address
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.evict(ctx, userID)
	return p, nil
}

// UploadAvatar stores a new avatar image and points the profile at it
func (s *Service) UploadAvatar(ctx context.Context, userID uuid.UUID, avatar Avatar) (*Profile, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if s.media.MaxSize > 0 && avatar.Size > s.media.MaxSize {
		return nil, apperror.Validation(fmt.Sprintf("Avatar must be at most %d KB", s.media.MaxSize>>10))
	}

	reader := bufio.NewReader(avatar.File)
	head, err := reader.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, apperror.Validation("Could not read the uploaded file")
	}
	if contentType := http.DetectContentType(head); !s.allowedType(contentType) {
		return nil, apperror.Validation("Unsupported image type").WithDetails(contentType)
	}

	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, "avatar_"+userID.String(), reader)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to upload avatar: %w", err))
	}

	p.AvatarURL = url
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	s.evict(ctx, userID)
	return p, nil
}

// List returns all profiles newest first
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit, defaultPageSize, maxPageSize)

	profiles, total, err := s.repo.List(ctx, pagination.Offset(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &ListResponse{
		Users:      profiles,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// SetRole changes a user's role
func (s *Service) SetRole(ctx context.Context, userID uuid.UUID, role Role) (*Profile, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return nil, err
	}

	s.evict(ctx, userID)
	if s.sessions != nil {
		if err := s.sessions.Invalidate(ctx, userID); err != nil {
			s.logger.WithField("user_id", userID).WithError(err).Warn("Failed to invalidate cached session")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    role,
	}).Info("Role changed")

	return s.repo.FindByID(ctx, userID)
}

// Count returns the number of profiles
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Service) allowedType(contentType string) bool {
	if len(s.media.AllowedTypes) == 0 {
		return strings.HasPrefix(contentType, "image/")
	}
	for _, allowed := range s.media.AllowedTypes {
		if allowed == contentType {
			return true
		}
	}
	return false
}

func (s *Service) cached(ctx context.Context, userID uuid.UUID) *Profile {
	p, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.WithField("user_id", userID).WithError(err).Warn("Profile cache read failed")
		return nil
	}
	return p
}

func (s *Service) store(ctx context.Context, p *Profile) {
	if err := s.cache.Set(ctx, p); err != nil {
		s.logger.WithField("user_id", p.ID).WithError(err).Warn("Profile cache write failed")
	}
}

func (s *Service) evict(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WithField("user_id", userID).WithError(err).Warn("Profile cache eviction failed")
	}
}
