package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/user"
)

// UserRepository implements user.Repository
type UserRepository struct {
	v view
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.v.write("users.Create", func(st *state) error {
		u.Email = user.NormalizeEmail(u.Email)
		for _, existing := range st.users {
			if existing.Email == u.Email {
				return user.ErrEmailTaken
			}
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		now := time.Now().UTC()
		u.CreatedAt, u.UpdatedAt = now, now
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var found *user.User
	err := r.v.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		found = &u
		return nil
	})
	return found, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var found *user.User
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				found = &u
				return nil
			}
		}
		return user.ErrUserNotFound
	})
	return found, err
}

func (r *UserRepository) MarkEmailConfirmed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update("users.MarkEmailConfirmed", id, func(u *user.User) { u.EmailConfirmedAt = &at })
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.update("users.UpdatePassword", id, func(u *user.User) { u.PasswordHash = hash })
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.update("users.UpdateLastLogin", id, func(u *user.User) { u.LastLoginAt = &at })
}

func (r *UserRepository) update(op string, id uuid.UUID, fn func(u *user.User)) error {
	return r.v.write(op, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		fn(&u)
		u.UpdatedAt = time.Now().UTC()
		st.users[id] = u
		return nil
	})
}

// ProfileRepository implements profile.Repository
type ProfileRepository struct {
	v view
}

func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	var stored profile.Profile
	err := r.v.write("profiles.CreateIfAbsent", func(st *state) error {
		if existing, ok := st.profiles[p.ID]; ok {
			stored = existing
			return nil
		}
		stored = *p
		st.profiles[p.ID] = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	var found *profile.Profile
	err := r.v.read(func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return profile.ErrProfileNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	return r.v.write("profiles.Update", func(st *state) error {
		existing, ok := st.profiles[p.ID]
		if !ok {
			return profile.ErrProfileNotFound
		}
		updated := *p
		updated.Role = existing.Role
		st.profiles[p.ID] = updated
		return nil
	})
}

func (r *ProfileRepository) SetRole(ctx context.Context, id uuid.UUID, role profile.Role) error {
	return r.v.write("profiles.SetRole", func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return profile.ErrProfileNotFound
		}
		p.Role = role
		p.UpdatedAt = time.Now().UTC()
		st.profiles[id] = p
		return nil
	})
}

func (r *ProfileRepository) List(ctx context.Context, offset, limit int) ([]profile.Profile, int64, error) {
	profiles := []profile.Profile{}
	err := r.v.read(func(st *state) error {
		for _, p := range st.profiles {
			profiles = append(profiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
		}
		return profiles[i].ID.String() < profiles[j].ID.String()
	})
	return page(profiles, offset, limit), int64(len(profiles)), nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.v.read(func(st *state) error {
		n = int64(len(st.profiles))
		return nil
	})
	return n, err
}
