package application

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/domain/entity"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// SearchUsers queries the search projection. Results may lag behind the store.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]*entity.User, error) {
	if strings.TrimSpace(q) == "" {
		return nil, apperror.ErrValidation.
			WithMessage("search query is empty").
			WithDetails(map[string]string{"q": "is required"})
	}
	if s.Search == nil {
		return []*entity.User{}, nil
	}
	if size <= 0 || size > maxSearchSize {
		size = defaultSearchSize
	}
	users, err := s.Search.Search(ctx, q, size)
	if err != nil {
		err = apperror.ErrService.WithMessage("search failed").WithCause(err)
		observe("search", err)
		return nil, err
	}
	observe("search", nil)
	return users, nil
}

// UploadPicture stores an image and points the user's picture at it. The
// object is written before the versioned update, so a failed update can leave
// an orphaned object behind.
func (s *Service) UploadPicture(ctx context.Context, key LookupKey, r io.Reader, filename, contentType string) (*entity.User, error) {
	u, err := s.uploadPicture(ctx, key, r, filename, contentType)
	observe("upload_picture", err)
	return u, err
}

func (s *Service) uploadPicture(ctx context.Context, key LookupKey, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.Pictures == nil {
		return nil, apperror.ErrService.WithMessage("picture storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.ErrValidation.
			WithMessage("picture must be an image").
			WithDetails(map[string]string{"file": "unsupported content type " + contentType})
	}

	current, err := s.getUser(ctx, key)
	if err != nil {
		return nil, err
	}

	objectPath := path.Join("pictures", current.ID, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	url, err := s.Pictures.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return nil, apperror.ErrService.WithMessage("picture upload failed").WithCause(err)
	}

	var updated *entity.User
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.Repo.FindByID(ctx, current.ID)
		if err != nil {
			return err
		}
		u.Picture = url
		if err := s.Repo.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		s.Logger.WithError(err).WithField("object", objectPath).Warn("picture uploaded but user update failed")
		return nil, translate(err)
	}
	s.afterUpdate(ctx, updated)
	return updated, nil
}
