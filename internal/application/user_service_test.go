package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/domain/entity"
	repo "github.com/oksasatya/user-directory/internal/domain/repository"
	"github.com/oksasatya/user-directory/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.UserEvent
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := body.(entity.UserEvent); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) types() []entity.UserEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.UserEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestService(t *testing.T) (*Service, *memory.UserRepository) {
	t.Helper()
	store := memory.NewUserRepository()
	return NewService(store, memory.NewTxManager(store), nil), store
}

func input(n int) UserInput {
	return UserInput{
		Name:     fmt.Sprintf("User %d", n),
		Nickname: fmt.Sprintf("user-%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
	}
}

func mustCreate(t *testing.T, svc *Service, in UserInput) *entity.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), in)
	if err != nil {
		t.Fatalf("create %s: %v", in.Nickname, err)
	}
	return u
}

func countUsers(t *testing.T, r repo.UserRepository) int {
	t.Helper()
	all, err := r.FindAll(context.Background(), repo.ListQuery{})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	return len(all)
}

func TestCreateUserThenGetByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	in := input(1)
	in.Picture = "https://cdn.example.com/u1.png"

	created := mustCreate(t, svc, in)
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("id is not a UUID: %q", created.ID)
	}
	if created.Version != 1 {
		t.Fatalf("version = %d, want 1", created.Version)
	}

	got, err := svc.GetUserByEmail(context.Background(), in.Email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != created.ID || got.Name != in.Name || got.Nickname != in.Nickname || got.Picture != in.Picture {
		t.Fatalf("stored user differs: %+v", got)
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	svc, store := newTestService(t)
	mustCreate(t, svc, input(1))

	tests := []struct {
		name    string
		in      UserInput
		message string
	}{
		{"same nickname", UserInput{Name: "Other", Nickname: "user-1", Email: "other@example.com"}, "nickname already in use"},
		{"same email", UserInput{Name: "Other", Nickname: "other", Email: "user1@example.com"}, "email already in use"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.in)
			if !errors.Is(err, apperror.ErrUniqueViolation) {
				t.Fatalf("expected unique violation, got %v", err)
			}
			if ae, _ := apperror.As(err); ae.Message() != tt.message {
				t.Fatalf("message = %q, want %q", ae.Message(), tt.message)
			}
		})
	}
	if n := countUsers(t, store); n != 1 {
		t.Fatalf("store holds %d users, want 1", n)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc, store := newTestService(t)

	tests := []struct {
		name  string
		in    UserInput
		field string
	}{
		{"blank name", UserInput{Name: " ", Nickname: "user-1", Email: "u@example.com"}, "name"},
		{"short nickname", UserInput{Name: "U", Nickname: "abc", Email: "u@example.com"}, "nickname"},
		{"long nickname", UserInput{Name: "U", Nickname: "a-b-c-example-com", Email: "u@example.com"}, "nickname"},
		{"malformed email", UserInput{Name: "U", Nickname: "user-1", Email: "not-an-email"}, "email"},
		{"malformed picture", UserInput{Name: "U", Nickname: "user-1", Email: "u@example.com", Picture: "nope"}, "picture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			ae, _ := apperror.As(err)
			if _, ok := ae.Details()[tt.field]; !ok {
				t.Fatalf("details should name %q: %v", tt.field, ae.Details())
			}
		})
	}
	if n := countUsers(t, store); n != 0 {
		t.Fatalf("validation failures must not persist, store holds %d", n)
	}
}

func TestLookupsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, input(1))

	lookups := map[string]func() (*entity.User, error){
		"id":       func() (*entity.User, error) { return svc.GetUserByID(ctx, uuid.NewString()) },
		"nickname": func() (*entity.User, error) { return svc.GetUserByNickname(ctx, "nobody") },
		"email":    func() (*entity.User, error) { return svc.GetUserByEmail(ctx, "nobody@example.com") },
	}
	for name, lookup := range lookups {
		if _, err := lookup(); !errors.Is(err, apperror.ErrNotFound) {
			t.Fatalf("lookup by %s: expected not found, got %v", name, err)
		}
	}

	if _, err := svc.GetUserByID(ctx, "not-a-uuid"); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("malformed id should be a validation error, got %v", err)
	}
}

func TestUpdateIsIdempotentInContent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, input(1))

	payload := UserInput{Name: "Renamed", Nickname: "renamed", Email: "renamed@example.com", Picture: "https://cdn.example.com/r.png"}
	first, err := svc.UpdateUserByID(ctx, created.ID, payload)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	second, err := svc.UpdateUserByNickname(ctx, "renamed", payload)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	if first.Name != second.Name || first.Nickname != second.Nickname || first.Email != second.Email || first.Picture != second.Picture {
		t.Fatalf("content differs between identical updates: %+v vs %+v", first, second)
	}
	if first.Version != 2 || second.Version != 3 {
		t.Fatalf("versions = %d, %d; want 2, 3", first.Version, second.Version)
	}
	if !second.CreatedAt.Equal(created.CreatedAt) || second.ID != created.ID {
		t.Fatalf("id and creation time must be preserved")
	}
}

func TestUpdateMissingAndDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, input(1))
	second := mustCreate(t, svc, input(2))

	if _, err := svc.UpdateUserByEmail(ctx, "nobody@example.com", input(3)); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	clash := input(2)
	clash.Email = "user1@example.com"
	if _, err := svc.UpdateUserByID(ctx, second.ID, clash); !errors.Is(err, apperror.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	got, _ := svc.GetUserByID(ctx, second.ID)
	if got.Email != "user2@example.com" || got.Version != 1 {
		t.Fatalf("failed update must not persist: %+v", got)
	}
}

// racingRepo commits a competing update between the service's read and write.
type racingRepo struct {
	*memory.UserRepository
	once sync.Once
}

func (r *racingRepo) Update(ctx context.Context, u *entity.User) error {
	r.once.Do(func() {
		other, err := r.UserRepository.FindByID(context.Background(), u.ID)
		if err != nil {
			panic(err)
		}
		other.Name = "Winner"
		if err := r.UserRepository.Update(context.Background(), other); err != nil {
			panic(err)
		}
	})
	return r.UserRepository.Update(ctx, u)
}

func TestConcurrentUpdateLoserGetsOptimisticLockConflict(t *testing.T) {
	store := memory.NewUserRepository()
	racing := &racingRepo{UserRepository: store}
	svc := NewService(racing, memory.NewTxManager(store), nil)
	created := mustCreate(t, svc, input(1))

	loser := input(1)
	loser.Name = "Loser"
	_, err := svc.UpdateUserByID(context.Background(), created.ID, loser)
	if !errors.Is(err, apperror.ErrOptimisticLock) {
		t.Fatalf("expected optimistic lock conflict, got %v", err)
	}

	got, err := store.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "Winner" || got.Version != 2 {
		t.Fatalf("winner's update must survive: %+v", got)
	}
}

func TestPagedAndSortedListing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		mustCreate(t, svc, input(i))
	}

	sort, err := repo.ParseSort("nickname", "ascending")
	if err != nil {
		t.Fatalf("parse sort: %v", err)
	}
	got, err := svc.GetAllUsersPagedAndSorted(ctx, repo.Page{Number: 1, Size: 2}, sort)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Nickname != "user-2" || got[1].Nickname != "user-3" {
		t.Fatalf("unexpected page: %v", nicknames(got))
	}

	all, err := svc.GetAllUsers(ctx)
	if err != nil || len(all) != 10 || all[0].Nickname != "user-1" || all[9].Nickname != "user-10" {
		t.Fatalf("unsorted listing should follow creation order: %v (%v)", nicknames(all), err)
	}

	paged, err := svc.GetAllUsersPaged(ctx, repo.Page{Number: 3, Size: 3})
	if err != nil || len(paged) != 1 || paged[0].Nickname != "user-10" {
		t.Fatalf("last partial page: %v (%v)", nicknames(paged), err)
	}

	sorted, err := svc.GetAllUsersSorted(ctx, repo.Sort{Field: repo.SortByName, Direction: repo.Desc})
	if err != nil || sorted[0].Name != "User 9" {
		t.Fatalf("descending by name: %v (%v)", nicknames(sorted), err)
	}

	if _, err := svc.GetAllUsersPaged(ctx, repo.Page{Number: 0, Size: 0}); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("size 0 should be rejected, got %v", err)
	}
	if _, err := svc.GetAllUsersSorted(ctx, repo.Sort{Field: "password", Direction: repo.Asc}); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("unknown sort field should be rejected, got %v", err)
	}
	for _, p := range []repo.Page{{Number: 1, Size: math.MaxInt}, {Number: math.MaxInt / 2, Size: 3}} {
		if _, err := svc.GetAllUsersPaged(ctx, p); !errors.Is(err, apperror.ErrValidation) {
			t.Fatalf("page %+v should be rejected, got %v", p, err)
		}
	}
}

func nicknames(users []*entity.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Nickname)
	}
	return out
}

func TestDeleteTwiceFailsWithNotFound(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, input(1))
	mustCreate(t, svc, input(2))

	if err := svc.DeleteUserByNickname(ctx, "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteUserByNickname(ctx, "user-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	if err := svc.DeleteUserByEmail(ctx, "user2@example.com"); err != nil {
		t.Fatalf("delete by email: %v", err)
	}
	if n := countUsers(t, store); n != 0 {
		t.Fatalf("store holds %d users", n)
	}
}

func TestRegisterFromIdentity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RegisterFromIdentity(ctx, entity.IdentityClaims{Name: "No Mail"}); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("missing email should be a validation error, got %v", err)
	}
	if n := countUsers(t, store); n != 0 {
		t.Fatalf("failed registration persisted %d users", n)
	}

	u, err := svc.RegisterFromIdentity(ctx, entity.IdentityClaims{Name: "Ada", Email: "ada.l@x.io"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Nickname != "ada-l-x-io" {
		t.Fatalf("derived nickname = %q", u.Nickname)
	}

	explicit, err := svc.RegisterFromIdentity(ctx, entity.IdentityClaims{Name: "Bob", Email: "bob@x.io", Nickname: "bobby"})
	if err != nil || explicit.Nickname != "bobby" {
		t.Fatalf("explicit nickname should be kept: %+v (%v)", explicit, err)
	}

	// Same derived nickname, different email: collision is a hard failure.
	_, err = svc.RegisterFromIdentity(ctx, entity.IdentityClaims{Name: "Ada 2", Email: "ada-l@x.io"})
	if !errors.Is(err, apperror.ErrUniqueViolation) {
		t.Fatalf("derived nickname collision should fail, got %v", err)
	}
}

// lostWriteRepo accepts inserts but cannot find them afterwards.
type lostWriteRepo struct {
	*memory.UserRepository
}

func (r *lostWriteRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, repo.ErrNotFound
}

func TestCreateUserRereadMissRollsBack(t *testing.T) {
	store := memory.NewUserRepository()
	svc := NewService(&lostWriteRepo{UserRepository: store}, memory.NewTxManager(store), nil)

	_, err := svc.CreateUser(context.Background(), input(1))
	if !errors.Is(err, apperror.ErrService) {
		t.Fatalf("expected service exception, got %v", err)
	}
	if ae, _ := apperror.As(err); ae.Message() != "error persisting user" {
		t.Fatalf("message = %q", ae.Message())
	}
	if n := countUsers(t, store); n != 0 {
		t.Fatalf("insert must be rolled back, store holds %d", n)
	}
}

type brokenRepo struct {
	*memory.UserRepository
}

func (brokenRepo) FindAll(context.Context, repo.ListQuery) ([]*entity.User, error) {
	return nil, errors.New("connection refused")
}

func TestBackendFailureIsServiceException(t *testing.T) {
	store := memory.NewUserRepository()
	svc := NewService(brokenRepo{store}, memory.NewTxManager(store), nil)

	_, err := svc.GetAllUsers(context.Background())
	if !errors.Is(err, apperror.ErrService) {
		t.Fatalf("expected service exception, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("cause should be surfaced: %v", err)
	}
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	svc, _ := newTestService(t)
	pub := &recordingPublisher{}
	svc.Events = pub
	ctx := context.Background()

	u := mustCreate(t, svc, input(1))
	if _, err := svc.UpdateUserByID(ctx, u.ID, input(2)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.CreateUser(ctx, input(2)); err == nil {
		t.Fatalf("duplicate create should fail")
	}
	if err := svc.DeleteUserByID(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.RegisterFromIdentity(ctx, entity.IdentityClaims{Name: "Ada", Email: "ada@x.io"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	want := []entity.UserEventType{entity.UserCreated, entity.UserUpdated, entity.UserDeleted, entity.UserRegistered}
	got := pub.types()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if pub.events[1].User.Version != 2 {
		t.Fatalf("update event should carry the new version, got %d", pub.events[1].User.Version)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Events = &recordingPublisher{err: errors.New("broker down")}

	if _, err := svc.CreateUser(context.Background(), input(1)); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
}

type fakeSearcher struct {
	gotQuery string
	gotSize  int
	users    []*entity.User
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, q string, size int) ([]*entity.User, error) {
	f.gotQuery, f.gotSize = q, size
	return f.users, f.err
}

func TestSearchUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if got, err := svc.SearchUsers(ctx, "ada", 5); err != nil || len(got) != 0 {
		t.Fatalf("search without projection should be empty: %v %v", got, err)
	}
	if _, err := svc.SearchUsers(ctx, "  ", 5); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("empty query should be rejected, got %v", err)
	}

	fs := &fakeSearcher{users: []*entity.User{{Nickname: "ada"}}}
	svc.Search = fs
	got, err := svc.SearchUsers(ctx, "ada", 500)
	if err != nil || len(got) != 1 {
		t.Fatalf("search: %v %v", got, err)
	}
	if fs.gotSize != defaultSearchSize {
		t.Fatalf("oversized page should fall back to %d, got %d", defaultSearchSize, fs.gotSize)
	}

	fs.err = errors.New("es unavailable")
	if _, err := svc.SearchUsers(ctx, "ada", 5); !errors.Is(err, apperror.ErrService) {
		t.Fatalf("expected service exception, got %v", err)
	}
}

type memoryObjects struct {
	paths []string
	body  string
}

func (m *memoryObjects) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.paths = append(m.paths, objectPath)
	m.body = string(b)
	return "https://storage.example.com/bucket/" + objectPath, nil
}

func TestUploadPicture(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	u := mustCreate(t, svc, input(1))

	if _, err := svc.UploadPicture(ctx, ByID(u.ID), strings.NewReader("x"), "a.png", "image/png"); !errors.Is(err, apperror.ErrService) {
		t.Fatalf("upload without storage should fail, got %v", err)
	}

	objects := &memoryObjects{}
	svc.Pictures = objects

	if _, err := svc.UploadPicture(ctx, ByID(u.ID), strings.NewReader("x"), "a.txt", "text/plain"); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("non-image should be rejected, got %v", err)
	}
	if _, err := svc.UploadPicture(ctx, ByID(uuid.NewString()), strings.NewReader("x"), "a.png", "image/png"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("unknown user should be not found, got %v", err)
	}

	updated, err := svc.UploadPicture(ctx, ByID(u.ID), strings.NewReader("png-bytes"), "Face.PNG", "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(objects.paths) != 1 || !strings.HasPrefix(objects.paths[0], "pictures/"+u.ID+"/") || !strings.HasSuffix(objects.paths[0], ".png") {
		t.Fatalf("unexpected object path: %v", objects.paths)
	}
	if objects.body != "png-bytes" {
		t.Fatalf("body = %q", objects.body)
	}
	if updated.Picture != "https://storage.example.com/bucket/"+objects.paths[0] || updated.Version != 2 {
		t.Fatalf("user not updated: %+v", updated)
	}
}
