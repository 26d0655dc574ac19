package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, version, name, nickname, email, picture, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Version, &u.Name, &u.Nickname, &u.Email, &u.Picture,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Insert(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO users (id, version, name, nickname, email, picture, created_at, updated_at)
		VALUES ($1, 1, $2, $3, $4, $5, $6, $6)
	`, u.ID, u.Name, u.Nickname, u.Email, u.Picture, now)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	u.Version = 1
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, column, value string) (*entity.User, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
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
		args = append(args, q.Page.Size, q.Page.Offset())
		sb.WriteString(` LIMIT $1 OFFSET $2`)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

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

// orderBy renders a whitelisted ORDER BY clause. Text columns use the C
// collation so ordering is bytewise across backends.
func orderBy(s *repository.Sort) string {
	if s == nil {
		return `created_at ASC, id ASC`
	}
	col := string(s.Field)
	switch s.Field {
	case repository.SortByName, repository.SortByNickname, repository.SortByEmail, repository.SortByPicture:
		col += ` COLLATE "C"`
	}
	dir := `ASC`
	if s.Direction == repository.Desc {
		dir = `DESC`
	}
	return col + ` ` + dir + `, id ` + dir
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	db := conn(ctx, r.pool)
	var version int64
	err := db.QueryRow(ctx, `
		UPDATE users
		SET name = $1, nickname = $2, email = $3, picture = $4, version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
		RETURNING version
	`, u.Name, u.Nickname, u.Email, u.Picture, now, u.ID, u.Version).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missOrConflict(ctx, db, u.ID)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	u.Version = version
	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	db := conn(ctx, r.pool)
	tag, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1 AND version = $2`, u.ID, u.Version)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, db, u.ID)
	}
	return nil
}

// missOrConflict tells apart a vanished row from a stale version after a
// compare-and-set write matched nothing.
func (r *UserRepository) missOrConflict(ctx context.Context, db querier, id string) error {
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if exists {
		return repository.ErrVersionConflict
	}
	return repository.ErrNotFound
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_nickname_key":
			return &repository.DuplicateError{Field: "nickname"}
		case "users_email_key":
			return &repository.DuplicateError{Field: "email"}
		}
		return &repository.DuplicateError{Field: "id"}
	}
	return err
}

// Ping is used by the health endpoint.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
