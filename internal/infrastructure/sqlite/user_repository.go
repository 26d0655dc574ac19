package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/internal/domain/repository"
)

const userColumns = `id, version, name, nickname, email, picture, created_at, updated_at`

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(v int64) time.Time { return time.Unix(0, v).UTC() }

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u                entity.User
		created, updated int64
	)
	if err := row.Scan(&u.ID, &u.Version, &u.Name, &u.Nickname, &u.Email, &u.Picture, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt, u.UpdatedAt = fromNanos(created), fromNanos(updated)
	return &u, nil
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (id, version, name, nickname, email, picture, created_at, updated_at)
		VALUES (?, 1, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Nickname, u.Email, u.Picture, toNanos(now), toNanos(now))
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	u.Version = 1
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, column, value string) (*entity.User, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *UserRepository) FindByNickname(ctx context.Context, nickname string) (*entity.User, error) {
	return r.findOne(ctx, "nickname", nickname)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *UserRepository) FindAll(ctx context.Context, q repository.ListQuery) ([]*entity.User, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + userColumns + ` FROM users ORDER BY `)
	sb.WriteString(orderBy(q.Sort))
	if q.Page != nil {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, q.Page.Size, q.Page.Offset())
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func orderBy(s *repository.Sort) string {
	if s == nil {
		return `rowid ASC`
	}
	dir := `ASC`
	if s.Direction == repository.Desc {
		dir = `DESC`
	}
	return string(s.Field) + ` ` + dir + `, id ` + dir
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, nickname = ?, email = ?, picture = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, u.Name, u.Nickname, u.Email, u.Picture, toNanos(now), u.ID, u.Version)
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return missOrConflict(ctx, db, u.ID)
	}
	u.Version++
	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	db := conn(ctx, r.db)
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ? AND version = ?`, u.ID, u.Version)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return missOrConflict(ctx, db, u.ID)
	}
	return nil
}

func missOrConflict(ctx context.Context, db querier, id string) error {
	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if exists {
		return repository.ErrVersionConflict
	}
	return repository.ErrNotFound
}

// translate maps unique violations to DuplicateError. The message names the
// offending column, e.g. "UNIQUE constraint failed: users.nickname".
func translate(err error) error {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
	default:
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "users.nickname"):
		return &repository.DuplicateError{Field: "nickname"}
	case strings.Contains(msg, "users.email"):
		return &repository.DuplicateError{Field: "email"}
	}
	return &repository.DuplicateError{Field: "id"}
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
