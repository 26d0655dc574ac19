package repository

import (
	"context"

	"github.com/oksasatya/user-directory/internal/domain/entity"
)

// UserRepository defines the persistence operations for users.
//
// Update and Delete are compare-and-set on Version: they succeed only when the
// stored version equals u.Version, otherwise ErrVersionConflict (or ErrNotFound
// when the row is gone). Implementations join the transaction carried by ctx.
type UserRepository interface {
	Insert(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByNickname(ctx context.Context, nickname string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context, q ListQuery) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, u *entity.User) error
}

// TxManager runs fn inside a single unit of work. The transaction commits when
// fn returns nil and rolls back on error or panic. Nested calls join the
// outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
