package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/pkg/mailer"
	mailtpl "github.com/oksasatya/user-directory/pkg/mailer/templates"
)

// UserIndexer maintains the search projection.
type UserIndexer interface {
	IndexUser(ctx context.Context, u *entity.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Mailer delivers rendered email jobs.
type Mailer interface {
	Send(ctx context.Context, job mailer.EmailJob) error
}

// Projector applies user events to the read-side integrations. Either
// collaborator may be nil.
type Projector struct {
	Index      UserIndexer
	Mail       Mailer
	AppName    string
	SupportURL string
	Logger     *logrus.Logger
}

// Handle returns an error when the event should be retried.
func (p *Projector) Handle(ctx context.Context, ev entity.UserEvent) error {
	u := ev.User
	if p.Index != nil {
		var err error
		if ev.Type == entity.UserDeleted {
			err = p.Index.DeleteUser(ctx, u.ID)
		} else {
			err = p.Index.IndexUser(ctx, &u)
		}
		if err != nil {
			return fmt.Errorf("project %s for %s: %w", ev.Type, u.ID, err)
		}
	}

	template := ""
	switch ev.Type {
	case entity.UserRegistered:
		template = mailtpl.Welcome
	case entity.UserUpdated:
		template = mailtpl.ProfileUpdated
	}
	if p.Mail == nil || template == "" {
		return nil
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: template,
		Data: mailtpl.EmailData{
			Name:       u.Name,
			Nickname:   u.Nickname,
			Email:      u.Email,
			AppName:    p.AppName,
			SupportURL: p.SupportURL,
			TimeAt:     ev.OccurredAt,
		},
	}
	if err := p.Mail.Send(ctx, job); err != nil {
		return fmt.Errorf("send %s mail to %s: %w", template, u.Email, err)
	}
	if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{"user_id": u.ID, "template": template}).Info("user mail sent")
	}
	return nil
}
