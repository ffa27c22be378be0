package profile_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/memory"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type fakeUploader struct {
	publicID string
	body     []byte
	err      error
}

func (u *fakeUploader) Upload(ctx context.Context, publicID string, file io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	body, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	u.publicID = publicID
	u.body = body
	return "https://res.cloudinary.com/demo/image/upload/avatars/" + publicID + ".png", nil
}

type fakeSessions struct {
	invalidated []uuid.UUID
}

func (s *fakeSessions) Invalidate(ctx context.Context, userID uuid.UUID) error {
	s.invalidated = append(s.invalidated, userID)
	return nil
}

type ProfileServiceSuite struct {
	suite.Suite

	ctx      context.Context
	store    *memory.Store
	redis    *miniredis.Miniredis
	uploader *fakeUploader
	sessions *fakeSessions
	service  *profile.Service
	userID   uuid.UUID
}

func TestProfileServiceSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceSuite))
}

func (s *ProfileServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.redis = miniredis.RunT(s.T())
	s.uploader = &fakeUploader{}
	s.sessions = &fakeSessions{}
	s.userID = uuid.New()

	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { client.Close() })

	s.service = profile.NewService(profile.Deps{
		Profiles: s.store.Profiles(),
		Cache:    profile.NewRedisCache(client, time.Hour),
		Uploader: s.uploader,
		Sessions: s.sessions,
		Media: config.MediaConfig{
			MaxSize:      1 << 20,
			AllowedTypes: []string{"image/png", "image/jpeg"},
		},
	})
}

func (s *ProfileServiceSuite) cacheKey() string {
	return "profile:" + s.userID.String()
}

func (s *ProfileServiceSuite) TestGetOrCreate_CreatesUserProfileOnce() {
	p, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(profile.RoleUser, p.Role)
	s.Equal("ana@example.com", p.Email)
	s.True(s.redis.Exists(s.cacheKey()))

	again, err := s.service.GetOrCreate(s.ctx, s.userID, "other@example.com")
	s.Require().NoError(err)
	s.Equal("ana@example.com", again.Email)

	count, err := s.service.Count(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *ProfileServiceSuite) TestProvision_KeepsExistingProfile() {
	s.Require().NoError(s.service.Provision(s.ctx, s.userID, "ana@example.com", "Ana Reyes"))
	s.Require().NoError(s.service.Provision(s.ctx, s.userID, "ana@example.com", ""))

	p, err := s.service.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("Ana Reyes", p.FullName)
}

func (s *ProfileServiceSuite) TestGet_MissingProfile() {
	_, err := s.service.Get(s.ctx, uuid.New())
	s.ErrorIs(err, profile.ErrProfileNotFound)
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ProfileServiceSuite) TestGet_ServesFromCache() {
	_, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)

	s.store.FailNext("profiles.CreateIfAbsent", errors.New("database unavailable"))
	p, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(s.userID, p.ID)
}

func (s *ProfileServiceSuite) TestGet_CacheOutageFallsBackToStore() {
	_, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)
	s.redis.Close()

	p, err := s.service.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal("ana@example.com", p.Email)
}

func (s *ProfileServiceSuite) TestUpdate_TrimsAndEvictsCache() {
	_, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)

	p, err := s.service.Update(s.ctx, s.userID, profile.UpdateProfileRequest{
		FullName: "  Ana Reyes ",
		Phone:    "+63 917 555 0101",
		Address:  "12 Mabini St, Makati",
	})
	s.Require().NoError(err)
	s.Equal("Ana Reyes", p.FullName)
	s.Equal(profile.RoleUser, p.Role)
	s.False(s.redis.Exists(s.cacheKey()))

	_, err = s.service.Update(s.ctx, s.userID, profile.UpdateProfileRequest{Bio: strings.Repeat("x", 1001)})
	s.ErrorIs(err, apperror.ErrValidation)
}

func (s *ProfileServiceSuite) TestSetRole() {
	_, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)

	p, err := s.service.SetRole(s.ctx, s.userID, profile.RoleAdmin)
	s.Require().NoError(err)
	s.True(p.IsAdmin())
	s.Equal([]uuid.UUID{s.userID}, s.sessions.invalidated)
	s.False(s.redis.Exists(s.cacheKey()))

	role, err := s.service.Role(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(profile.RoleAdmin, role)

	_, err = s.service.SetRole(s.ctx, s.userID, "owner")
	s.ErrorIs(err, profile.ErrInvalidRole)

	_, err = s.service.SetRole(s.ctx, uuid.New(), profile.RoleAdmin)
	s.ErrorIs(err, profile.ErrProfileNotFound)
}

func (s *ProfileServiceSuite) TestUploadAvatar() {
	_, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)

	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 600)...)
	p, err := s.service.UploadAvatar(s.ctx, s.userID, profile.Avatar{File: bytes.NewReader(body), Size: int64(len(body))})
	s.Require().NoError(err)

	s.Equal("avatar_"+s.userID.String(), s.uploader.publicID)
	s.Equal(body, s.uploader.body)
	s.Contains(p.AvatarURL, "res.cloudinary.com")

	stored, err := s.service.Get(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(p.AvatarURL, stored.AvatarURL)
}

func (s *ProfileServiceSuite) TestUploadAvatar_RejectsBadFiles() {
	_, err := s.service.GetOrCreate(s.ctx, s.userID, "ana@example.com")
	s.Require().NoError(err)

	text := []byte("definitely not an image")
	_, err = s.service.UploadAvatar(s.ctx, s.userID, profile.Avatar{File: bytes.NewReader(text), Size: int64(len(text))})
	s.ErrorIs(err, apperror.ErrValidation)

	_, err = s.service.UploadAvatar(s.ctx, s.userID, profile.Avatar{File: bytes.NewReader(pngHeader), Size: 2 << 20})
	s.ErrorIs(err, apperror.ErrValidation)

	s.Empty(s.uploader.publicID)
}

func (s *ProfileServiceSuite) TestUploadAvatar_Disabled() {
	service := profile.NewService(profile.Deps{Profiles: s.store.Profiles()})
	_, err := service.UploadAvatar(s.ctx, s.userID, profile.Avatar{File: bytes.NewReader(pngHeader)})
	s.ErrorIs(err, profile.ErrUploadsDisabled)
}

func (s *ProfileServiceSuite) TestList_NewestFirst() {
	first := uuid.New()
	_, err := s.service.GetOrCreate(s.ctx, first, "first@example.com")
	s.Require().NoError(err)
	time.Sleep(2 * time.Millisecond)
	second := uuid.New()
	_, err = s.service.GetOrCreate(s.ctx, second, "second@example.com")
	s.Require().NoError(err)

	resp, err := s.service.List(s.ctx, profile.ListRequest{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(resp.Users, 2)
	s.Equal(second, resp.Users[0].ID)
	s.EqualValues(2, resp.Pagination.Total)
}
