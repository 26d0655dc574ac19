// Package repotest holds behaviour tests shared by every UserRepository backend.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/internal/domain/repository"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) (repository.UserRepository, repository.TxManager)

func newUser(n int) *entity.User {
	return &entity.User{
		ID:       uuid.NewString(),
		Name:     fmt.Sprintf("User %d", n),
		Nickname: fmt.Sprintf("user-%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
	}
}

// Seed inserts user-1..user-n in order.
func Seed(t *testing.T, repo repository.UserRepository, n int) []*entity.User {
	t.Helper()
	users := make([]*entity.User, 0, n)
	for i := 1; i <= n; i++ {
		u := newUser(i)
		if err := repo.Insert(context.Background(), u); err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
		users = append(users, u)
	}
	return users
}

// Run executes the contract against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAndFind", func(t *testing.T) { testInsertAndFind(t, newStore) })
	t.Run("Duplicates", func(t *testing.T) { testDuplicates(t, newStore) })
	t.Run("PagedAndSorted", func(t *testing.T) { testPagedAndSorted(t, newStore) })
	t.Run("PageBounds", func(t *testing.T) { testPageBounds(t, newStore) })
	t.Run("UnsortedIsCreationOrder", func(t *testing.T) { testUnsorted(t, newStore) })
	t.Run("UpdateBumpsVersion", func(t *testing.T) { testUpdate(t, newStore) })
	t.Run("StaleUpdateConflicts", func(t *testing.T) { testStaleUpdate(t, newStore) })
	t.Run("DeleteTwice", func(t *testing.T) { testDeleteTwice(t, newStore) })
	t.Run("RollbackDiscardsWrites", func(t *testing.T) { testRollback(t, newStore) })
}

func testInsertAndFind(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	ctx := context.Background()
	u := newUser(1)
	u.Picture = "https://cdn.example.com/u1.png"
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if u.Version != 1 || u.CreatedAt.IsZero() {
		t.Fatalf("insert should set version and timestamps: %+v", u)
	}

	lookups := map[string]func() (*entity.User, error){
		"id":       func() (*entity.User, error) { return repo.FindByID(ctx, u.ID) },
		"nickname": func() (*entity.User, error) { return repo.FindByNickname(ctx, u.Nickname) },
		"email":    func() (*entity.User, error) { return repo.FindByEmail(ctx, u.Email) },
	}
	for key, find := range lookups {
		got, err := find()
		if err != nil {
			t.Fatalf("find by %s: %v", key, err)
		}
		if got.ID != u.ID || got.Name != u.Name || got.Picture != u.Picture || got.Version != 1 {
			t.Fatalf("find by %s returned %+v", key, got)
		}
	}

	if _, err := repo.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDuplicates(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	ctx := context.Background()
	existing := Seed(t, repo, 1)[0]

	tests := []struct {
		field string
		user  *entity.User
	}{
		{"nickname", &entity.User{ID: uuid.NewString(), Name: "Other", Nickname: existing.Nickname, Email: "other@example.com"}},
		{"email", &entity.User{ID: uuid.NewString(), Name: "Other", Nickname: "other", Email: existing.Email}},
	}
	for _, tt := range tests {
		err := repo.Insert(ctx, tt.user)
		var dup *repository.DuplicateError
		if !errors.As(err, &dup) || dup.Field != tt.field {
			t.Fatalf("expected duplicate %s, got %v", tt.field, err)
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			t.Fatalf("duplicate error should match ErrDuplicate")
		}
	}

	second := newUser(2)
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("insert second: %v", err)
	}
	second.Email = existing.Email
	var dup *repository.DuplicateError
	if err := repo.Update(ctx, second); !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("update onto taken email should fail with duplicate email, got %v", err)
	}
}

func testPageBounds(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	Seed(t, repo, 3)
	ctx := context.Background()

	past, err := repo.FindAll(ctx, repository.ListQuery{Page: &repository.Page{Number: 5, Size: 2}})
	if err != nil || len(past) != 0 {
		t.Fatalf("page past the end: %d users, err %v", len(past), err)
	}

	for _, p := range []repository.Page{
		{Number: 1, Size: math.MaxInt},
		{Number: math.MaxInt / 2, Size: 10},
		{Number: -1, Size: 10},
		{Number: 0, Size: 0},
	} {
		if _, err := repo.FindAll(ctx, repository.ListQuery{Page: &p}); err == nil {
			t.Fatalf("page %+v must be rejected", p)
		}
	}
}

func testPagedAndSorted(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	Seed(t, repo, 10)

	got, err := repo.FindAll(context.Background(), repository.ListQuery{
		Page: &repository.Page{Number: 1, Size: 2},
		Sort: &repository.Sort{Field: repository.SortByNickname, Direction: repository.Asc},
	})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	// bytewise order: user-1, user-10, user-2, user-3, ...
	want := []string{"user-2", "user-3"}
	if len(got) != len(want) {
		t.Fatalf("got %d users, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Nickname != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Nickname, want[i])
		}
	}

	desc, err := repo.FindAll(context.Background(), repository.ListQuery{
		Sort: &repository.Sort{Field: repository.SortByEmail, Direction: repository.Desc},
	})
	if err != nil {
		t.Fatalf("find all desc: %v", err)
	}
	if len(desc) != 10 || desc[0].Email != "user9@example.com" || desc[9].Email != "user10@example.com" {
		t.Fatalf("unexpected descending order: first=%s last=%s", desc[0].Email, desc[len(desc)-1].Email)
	}

	beyond, err := repo.FindAll(context.Background(), repository.ListQuery{Page: &repository.Page{Number: 5, Size: 5}})
	if err != nil {
		t.Fatalf("page beyond end: %v", err)
	}
	if len(beyond) != 0 {
		t.Fatalf("page beyond end should be empty, got %d", len(beyond))
	}
}

func testUnsorted(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	seeded := Seed(t, repo, 4)

	got, err := repo.FindAll(context.Background(), repository.ListQuery{})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(got) != len(seeded) {
		t.Fatalf("got %d users, want %d", len(got), len(seeded))
	}
	for i := range seeded {
		if got[i].ID != seeded[i].ID {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Nickname, seeded[i].Nickname)
		}
	}
}

func testUpdate(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	ctx := context.Background()
	u := Seed(t, repo, 1)[0]

	loaded, err := repo.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	loaded.Name = "Renamed"
	loaded.Nickname = "renamed"
	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}
	if loaded.Version != 2 {
		t.Fatalf("version = %d, want 2", loaded.Version)
	}

	got, err := repo.FindByNickname(ctx, "renamed")
	if err != nil {
		t.Fatalf("find by new nickname: %v", err)
	}
	if got.Name != "Renamed" || got.Version != 2 || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Fatalf("unexpected stored user: %+v", got)
	}
	if _, err := repo.FindByNickname(ctx, u.Nickname); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("old nickname should be released, got %v", err)
	}
}

func testStaleUpdate(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	ctx := context.Background()
	u := Seed(t, repo, 1)[0]

	first, _ := repo.FindByID(ctx, u.ID)
	second, _ := repo.FindByID(ctx, u.ID)

	first.Name = "First"
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	second.Name = "Second"
	if err := repo.Update(ctx, second); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("second update should conflict, got %v", err)
	}
	if err := repo.Delete(ctx, second); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("stale delete should conflict, got %v", err)
	}

	got, _ := repo.FindByID(ctx, u.ID)
	if got.Name != "First" || got.Version != 2 {
		t.Fatalf("lost update: %+v", got)
	}
}

func testDeleteTwice(t *testing.T, newStore Factory) {
	repo, _ := newStore(t)
	ctx := context.Background()
	u := Seed(t, repo, 1)[0]

	if err := repo.Delete(ctx, u); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, u); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, u); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update of deleted user should be ErrNotFound, got %v", err)
	}
}

func testRollback(t *testing.T, newStore Factory) {
	repo, tx := newStore(t)
	ctx := context.Background()
	existing := Seed(t, repo, 2)

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := repo.Insert(ctx, newUser(3)); err != nil {
			return err
		}
		u, err := repo.FindByID(ctx, existing[0].ID)
		if err != nil {
			return err
		}
		u.Name = "Changed"
		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		if err := repo.Delete(ctx, existing[1]); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	all, err := repo.FindAll(ctx, repository.ListQuery{})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 2 || all[0].ID != existing[0].ID || all[1].ID != existing[1].ID {
		t.Fatalf("rollback left %d users", len(all))
	}
	if all[0].Name != existing[0].Name || all[0].Version != 1 {
		t.Fatalf("update was not rolled back: %+v", all[0])
	}
	if _, err := repo.FindByNickname(ctx, "user-3"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("insert was not rolled back: %v", err)
	}

	if err := tx.WithinTx(ctx, func(ctx context.Context) error {
		return repo.Insert(ctx, newUser(4))
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := repo.FindByNickname(ctx, "user-4"); err != nil {
		t.Fatalf("committed insert missing: %v", err)
	}
}
