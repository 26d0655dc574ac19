// Package memory keeps users in process memory. It backs local runs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/internal/domain/repository"
)

type UserRepository struct {
	// txMu serializes units of work; mu guards the maps.
	txMu       sync.Mutex
	mu         sync.RWMutex
	byID       map[string]*entity.User
	order      []string
	byNickname map[string]string
	byEmail    map[string]string
	now        func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*entity.User),
		byNickname: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; ok {
		return &repository.DuplicateError{Field: "id"}
	}
	if _, ok := r.byNickname[u.Nickname]; ok {
		return &repository.DuplicateError{Field: "nickname"}
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return &repository.DuplicateError{Field: "email"}
	}

	now := r.now()
	u.Version = 1
	u.CreatedAt, u.UpdatedAt = now, now
	r.put(u.Clone())
	r.order = append(r.order, u.ID)

	id := u.ID
	record(ctx, func() {
		r.remove(id)
	})
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *UserRepository) FindByNickname(_ context.Context, nickname string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.byNickname[nickname])
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.byEmail[email])
}

func (r *UserRepository) get(id string) (*entity.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) FindAll(_ context.Context, q repository.ListQuery) ([]*entity.User, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}
	r.mu.RLock()
	users := make([]*entity.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.byID[id].Clone())
	}
	r.mu.RUnlock()

	if q.Sort != nil {
		sortUsers(users, *q.Sort)
	}
	if q.Page != nil {
		start := min(q.Page.Offset(), len(users))
		end := min(start+q.Page.Size, len(users))
		users = users[start:end]
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != u.Version {
		return repository.ErrVersionConflict
	}
	if id, ok := r.byNickname[u.Nickname]; ok && id != u.ID {
		return &repository.DuplicateError{Field: "nickname"}
	}
	if id, ok := r.byEmail[u.Email]; ok && id != u.ID {
		return &repository.DuplicateError{Field: "email"}
	}

	prev := stored.Clone()
	u.Version = stored.Version + 1
	u.CreatedAt = stored.CreatedAt
	u.UpdatedAt = r.now()
	r.unindex(stored)
	r.put(u.Clone())

	record(ctx, func() {
		r.unindex(r.byID[prev.ID])
		r.put(prev)
	})
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != u.Version {
		return repository.ErrVersionConflict
	}

	pos := slices.Index(r.order, u.ID)
	prev := stored.Clone()
	r.remove(u.ID)

	record(ctx, func() {
		r.put(prev)
		r.order = slices.Insert(r.order, min(pos, len(r.order)), prev.ID)
	})
	return nil
}

// put stores u and indexes it; callers hold the write lock.
func (r *UserRepository) put(u *entity.User) {
	r.byID[u.ID] = u
	r.byNickname[u.Nickname] = u.ID
	r.byEmail[u.Email] = u.ID
}

func (r *UserRepository) unindex(u *entity.User) {
	if u == nil {
		return
	}
	delete(r.byNickname, u.Nickname)
	delete(r.byEmail, u.Email)
}

func (r *UserRepository) remove(id string) {
	r.unindex(r.byID[id])
	delete(r.byID, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

func (r *UserRepository) Ping(context.Context) error { return nil }

func sortUsers(users []*entity.User, s repository.Sort) {
	sort.SliceStable(users, func(i, j int) bool {
		c := compare(users[i], users[j], s.Field)
		if c == 0 {
			c = strings.Compare(users[i].ID, users[j].ID)
		}
		if s.Direction == repository.Desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b *entity.User, f repository.SortField) int {
	switch f {
	case repository.SortByName:
		return strings.Compare(a.Name, b.Name)
	case repository.SortByNickname:
		return strings.Compare(a.Nickname, b.Nickname)
	case repository.SortByEmail:
		return strings.Compare(a.Email, b.Email)
	case repository.SortByPicture:
		return strings.Compare(a.Picture, b.Picture)
	case repository.SortByVersion:
		return cmpInt(a.Version, b.Version)
	case repository.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case repository.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return strings.Compare(a.ID, b.ID)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
