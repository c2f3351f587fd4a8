// Package mailer sends notification emails. Sends are fire-and-forget:
// failures are logged, never propagated to the caller.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Sender delivers a single message. Swapped for a recorder in tests.
type Sender interface {
	Send(to, subject, body string)
}

// SMTPSender sends through a plain SMTP relay. An empty addr disables
// sending entirely (local development default).
type SMTPSender struct {
	Addr string
	From string
	Log  *slog.Logger
}

func NewSMTPSender(addr, from string, log *slog.Logger) *SMTPSender {
	return &SMTPSender{Addr: addr, From: from, Log: log}
}

func (s *SMTPSender) Send(to, subject, body string) {
	if s.Addr == "" {
		s.Log.Debug("mailer disabled, dropping message", "to", to, "subject", subject)
		return
	}
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	go func() {
		if err := smtp.SendMail(s.Addr, nil, s.From, []string{to}, []byte(msg)); err != nil {
			s.Log.Error("échec d'envoi d'email", "to", to, "error", err)
		}
	}()
}

// Discard is a Sender that drops everything. Useful default for tests.
type Discard struct{}

func (Discard) Send(string, string, string) {}

// ProjectAssigned builds the notification body sent to a chef de projet when
// a project is created for or reassigned to them.
func ProjectAssigned(projectName string) (subject, body string) {
	subject = "Nouveau projet assigné: " + projectName
	body = fmt.Sprintf("Le projet %q vous a été assigné sur ImpactTracker.", projectName)
	return subject, body
}

// AccountCreated builds the notification sent to a newly created user.
func AccountCreated(firstName string) (subject, body string) {
	subject = "Votre compte ImpactTracker"
	body = fmt.Sprintf("Bonjour %s, votre compte ImpactTracker a été créé par un administrateur.", firstName)
	return subject, body
}
