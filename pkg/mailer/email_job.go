package mailer

import (
	mailtpl "github.com/oksasatya/user-directory/pkg/mailer/templates"
)

// EmailJob describes one outgoing email. When Template is set, Subject, Text
// and HTML are rendered from it and Data.
type EmailJob struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject,omitempty"`
	Text     string            `json:"text,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Template string            `json:"template,omitempty"`
	Data     mailtpl.EmailData `json:"data"`
}

// Render fills Subject, Text and HTML from the template, if any.
func (j *EmailJob) Render() error {
	if j.Template == "" {
		return nil
	}
	if j.Data.Email == "" {
		j.Data.Email = j.To
	}
	s, t, h, err := mailtpl.Render(j.Template, j.Data)
	if err != nil {
		return err
	}
	j.Subject, j.Text, j.HTML = s, t, h
	return nil
}
