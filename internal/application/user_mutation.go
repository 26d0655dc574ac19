package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/domain/entity"
	repo "github.com/oksasatya/user-directory/internal/domain/repository"
	"github.com/oksasatya/user-directory/pkg/helpers"
)

// CreateUser validates in, assigns a fresh id and persists the user. The stored
// record is re-read by email before the unit of work commits.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*entity.User, error) {
	u, err := s.create(ctx, in, entity.UserCreated)
	observe("create", err)
	return u, err
}

// RegisterFromIdentity creates a user from verified identity claims. A missing
// nickname is derived from the email; collisions are not resolved.
func (s *Service) RegisterFromIdentity(ctx context.Context, claims entity.IdentityClaims) (*entity.User, error) {
	if strings.TrimSpace(claims.Email) == "" {
		err := apperror.ErrValidation.
			WithMessage("email is mandatory for registering").
			WithDetails(map[string]string{"email": "is required"})
		observe("register", err)
		return nil, err
	}
	nickname := claims.Nickname
	if nickname == "" {
		nickname = helpers.NicknameFromEmail(claims.Email)
	}
	u, err := s.create(ctx, UserInput{
		Name:     claims.Name,
		Nickname: nickname,
		Email:    claims.Email,
		Picture:  claims.Picture,
	}, entity.UserRegistered)
	observe("register", err)
	return u, err
}

func (s *Service) create(ctx context.Context, in UserInput, event entity.UserEventType) (*entity.User, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	var created *entity.User
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		u := &entity.User{
			ID:       uuid.NewString(),
			Name:     in.Name,
			Nickname: in.Nickname,
			Email:    in.Email,
			Picture:  in.Picture,
		}
		if err := s.Repo.Insert(ctx, u); err != nil {
			return err
		}
		stored, err := s.Repo.FindByEmail(ctx, in.Email)
		if errors.Is(err, repo.ErrNotFound) {
			return apperror.ErrService.WithMessage("error persisting user")
		}
		if err != nil {
			return err
		}
		created = stored
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.Logger.WithFields(logrus.Fields{"user_id": created.ID, "nickname": created.Nickname}).Info("user created")
	s.publish(ctx, event, created)
	return created, nil
}

// UpdateUser replaces name, nickname, email and picture of the user named by
// key. Id, creation time and version stay under repository control.
func (s *Service) UpdateUser(ctx context.Context, key LookupKey, in UserInput) (*entity.User, error) {
	u, err := s.update(ctx, key, in)
	observe("update", err)
	return u, err
}

func (s *Service) UpdateUserByID(ctx context.Context, id string, in UserInput) (*entity.User, error) {
	return s.UpdateUser(ctx, ByID(id), in)
}

func (s *Service) UpdateUserByNickname(ctx context.Context, nickname string, in UserInput) (*entity.User, error) {
	return s.UpdateUser(ctx, ByNickname(nickname), in)
}

func (s *Service) UpdateUserByEmail(ctx context.Context, email string, in UserInput) (*entity.User, error) {
	return s.UpdateUser(ctx, ByEmail(email), in)
}

func (s *Service) update(ctx context.Context, key LookupKey, in UserInput) (*entity.User, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	var updated *entity.User
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.find(ctx, key)
		if err != nil {
			return err
		}
		u.Name = in.Name
		u.Nickname = in.Nickname
		u.Email = in.Email
		u.Picture = in.Picture
		if err := s.Repo.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	s.afterUpdate(ctx, updated)
	return updated, nil
}

func (s *Service) afterUpdate(ctx context.Context, u *entity.User) {
	s.refreshCachedUser(ctx, u)
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "version": u.Version}).Info("user updated")
	s.publish(ctx, entity.UserUpdated, u)
}

// DeleteUser removes the user named by key. Deleting an absent user fails with
// a not-found error, so repeating a delete is not a no-op.
func (s *Service) DeleteUser(ctx context.Context, key LookupKey) error {
	var deleted *entity.User
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.find(ctx, key)
		if err != nil {
			return err
		}
		if err := s.Repo.Delete(ctx, u); err != nil {
			return err
		}
		deleted = u
		return nil
	})
	err = translate(err)
	observe("delete", err)
	if err != nil {
		return err
	}

	s.forgetUser(ctx, deleted.ID)
	s.Logger.WithField("user_id", deleted.ID).Info("user deleted")
	s.publish(ctx, entity.UserDeleted, deleted)
	return nil
}

func (s *Service) DeleteUserByID(ctx context.Context, id string) error {
	return s.DeleteUser(ctx, ByID(id))
}

func (s *Service) DeleteUserByNickname(ctx context.Context, nickname string) error {
	return s.DeleteUser(ctx, ByNickname(nickname))
}

func (s *Service) DeleteUserByEmail(ctx context.Context, email string) error {
	return s.DeleteUser(ctx, ByEmail(email))
}
