package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/domain/entity"
	repo "github.com/oksasatya/user-directory/internal/domain/repository"
	"github.com/oksasatya/user-directory/pkg/helpers"
	"github.com/oksasatya/user-directory/pkg/metrics"
	"github.com/oksasatya/user-directory/pkg/validation"
)

// EventPublisher delivers user events after commit.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserSearcher answers free-text queries from the search projection.
type UserSearcher interface {
	Search(ctx context.Context, q string, size int) ([]*entity.User, error)
}

// ObjectStore persists uploaded pictures and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// Service implements the user directory use cases. Every operation runs in one
// unit of work through Tx. Redis, Events, Search and Pictures are optional.
type Service struct {
	Repo     repo.UserRepository
	Tx       repo.TxManager
	Validate *validator.Validate
	Logger   *logrus.Logger

	Redis    *redis.Client
	CacheTTL time.Duration
	Events   EventPublisher
	Search   UserSearcher
	Pictures ObjectStore
}

func NewService(r repo.UserRepository, tx repo.TxManager, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &Service{
		Repo:     r,
		Tx:       tx,
		Validate: validation.New(),
		Logger:   logger,
		CacheTTL: 5 * time.Minute,
	}
}

// UserInput carries the client-controlled fields of a user.
type UserInput struct {
	Name     string `json:"name" validate:"notblank"`
	Nickname string `json:"nickname" validate:"nickname"`
	Email    string `json:"email" validate:"notblank,email"`
	Picture  string `json:"picture" validate:"omitempty,url"`
}

func (s *Service) validateInput(in UserInput) error {
	if err := s.Validate.Struct(in); err != nil {
		return apperror.ErrValidation.WithDetails(validation.ToDetails(err))
	}
	return nil
}

// translate maps repository failures onto the service error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	var dup *repo.DuplicateError
	switch {
	case errors.As(err, &dup):
		return apperror.ErrUniqueViolation.WithMessage(dup.Error())
	case errors.Is(err, repo.ErrNotFound):
		return apperror.ErrNotFound.WithMessage("user not found")
	case errors.Is(err, repo.ErrVersionConflict):
		return apperror.ErrOptimisticLock.WithCause(err)
	}
	return apperror.ErrService.WithMessage("persistence failure").WithCause(err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if ae, ok := apperror.As(err); ok {
		return ae.Code()
	}
	return "error"
}

func observe(op string, err error) {
	metrics.UserOperationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// publish is best-effort: the mutation is already committed.
func (s *Service) publish(ctx context.Context, t entity.UserEventType, u *entity.User) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, entity.NewUserEvent(t, u)); err != nil {
		metrics.UserEventsPublishFailures.Inc()
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "event": t}).Warn("publish user event failed")
	}
}
