package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/repo/postgres"
	"github.com/google/uuid"
)

// UsersRepo mirrors the postgres repo surface for handler tests.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
	seq   int
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(ctx context.Context, fullName, email, passwordHash string, role user.Role) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == email {
			return user.User{}, postgres.ErrEmailTaken
		}
	}

	// monotonic creation times so newest-first ordering is deterministic
	r.seq++
	now := time.Now().UTC().Add(time.Duration(r.seq) * time.Microsecond)

	u := user.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       user.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		all = append(all, u)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)

	if offset >= total {
		return []user.User{}, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return all[offset:end], total, nil
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, fullName, email *string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	if email != nil {
		for otherID, other := range r.items {
			if otherID != id && other.Email == *email {
				return user.User{}, postgres.ErrEmailTaken
			}
		}
		u.Email = *email
	}

	if fullName != nil {
		u.FullName = *fullName
	}

	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return postgres.ErrUserNotFound
	}

	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}

func (r *UsersRepo) SetStatus(ctx context.Context, id string, status user.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return postgres.ErrUserNotFound
	}

	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}
