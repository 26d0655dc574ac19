package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/domain/entity"
)

type lookupKind int

const (
	byID lookupKind = iota
	byNickname
	byEmail
)

// LookupKey selects a single user by one of its unique attributes.
type LookupKey struct {
	kind  lookupKind
	value string
}

func ByID(id string) LookupKey             { return LookupKey{kind: byID, value: id} }
func ByNickname(nickname string) LookupKey { return LookupKey{kind: byNickname, value: nickname} }
func ByEmail(email string) LookupKey       { return LookupKey{kind: byEmail, value: email} }

func (k LookupKey) String() string {
	switch k.kind {
	case byNickname:
		return "nickname=" + k.value
	case byEmail:
		return "email=" + k.value
	}
	return "id=" + k.value
}

// find loads the user named by key using the repository bound to ctx.
func (s *Service) find(ctx context.Context, key LookupKey) (*entity.User, error) {
	switch key.kind {
	case byNickname:
		return s.Repo.FindByNickname(ctx, key.value)
	case byEmail:
		return s.Repo.FindByEmail(ctx, key.value)
	}
	if _, err := uuid.Parse(key.value); err != nil {
		return nil, apperror.ErrValidation.
			WithMessage("malformed user id").
			WithDetails(map[string]string{"id": "must be a valid UUID"})
	}
	return s.Repo.FindByID(ctx, key.value)
}
