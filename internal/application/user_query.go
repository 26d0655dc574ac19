package application

import (
	"context"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/domain/entity"
	repo "github.com/oksasatya/user-directory/internal/domain/repository"
)

func (s *Service) getUser(ctx context.Context, key LookupKey) (*entity.User, error) {
	var u *entity.User
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.find(ctx, key)
		if err != nil {
			return err
		}
		u = found
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// GetUserByID reads through the Redis cache when one is configured.
func (s *Service) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := s.cachedUser(ctx, id); ok {
		observe("get", nil)
		return u, nil
	}
	u, err := s.getUser(ctx, ByID(id))
	observe("get", err)
	if err != nil {
		return nil, err
	}
	s.cacheUser(ctx, u)
	return u, nil
}

func (s *Service) GetUserByNickname(ctx context.Context, nickname string) (*entity.User, error) {
	u, err := s.getUser(ctx, ByNickname(nickname))
	observe("get", err)
	return u, err
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.getUser(ctx, ByEmail(email))
	observe("get", err)
	return u, err
}

func (s *Service) GetAllUsers(ctx context.Context) ([]*entity.User, error) {
	return s.listUsers(ctx, repo.ListQuery{})
}

func (s *Service) GetAllUsersPaged(ctx context.Context, page repo.Page) ([]*entity.User, error) {
	return s.listUsers(ctx, repo.ListQuery{Page: &page})
}

func (s *Service) GetAllUsersSorted(ctx context.Context, sort repo.Sort) ([]*entity.User, error) {
	return s.listUsers(ctx, repo.ListQuery{Sort: &sort})
}

func (s *Service) GetAllUsersPagedAndSorted(ctx context.Context, page repo.Page, sort repo.Sort) ([]*entity.User, error) {
	return s.listUsers(ctx, repo.ListQuery{Page: &page, Sort: &sort})
}

func (s *Service) listUsers(ctx context.Context, q repo.ListQuery) ([]*entity.User, error) {
	if err := q.Validate(); err != nil {
		verr := apperror.ErrValidation.WithMessage(err.Error())
		observe("list", verr)
		return nil, verr
	}
	var users []*entity.User
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.Repo.FindAll(ctx, q)
		users = found
		return err
	})
	err = translate(err)
	observe("list", err)
	if err != nil {
		return nil, err
	}
	return users, nil
}
