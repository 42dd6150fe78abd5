// Package email sends operational alerts over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/mediconnect/clinical-api/internal/model"
)

var ErrNoRecipients = errors.New("no recipients")

type Service interface {
	SendCustom(ctx context.Context, to []string, subject, content string) error
	SendEscalationAlert(ctx context.Context, to []string, esc *model.Escalation) error
}

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPService struct {
	sender Sender
	from   string
}

func NewSMTPService(cfg Config) *SMTPService {
	return NewWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

func NewWithSender(sender Sender, from string) *SMTPService {
	return &SMTPService{sender: sender, from: from}
}

func (s *SMTPService) SendCustom(ctx context.Context, to []string, subject, content string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %q: %w", subject, err)
	}
	return nil
}

func (s *SMTPService) SendEscalationAlert(ctx context.Context, to []string, esc *model.Escalation) error {
	subject, body := EscalationMessage(esc)
	return s.SendCustom(ctx, to, subject, body)
}

// EscalationMessage renders the alert for a visit raised to an urgent priority.
func EscalationMessage(esc *model.Escalation) (subject, body string) {
	level := strings.ToUpper(string(esc.To))
	subject = fmt.Sprintf("[%s] %s (%s)", level, esc.PatientName, esc.UniqueID)

	var b strings.Builder
	fmt.Fprintf(&b, "Visit priority raised from %s to %s at %s.\n\n", esc.From, esc.To, esc.EscalatedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Patient:   %s (%s)\n", esc.PatientName, esc.UniqueID)
	if v := esc.Visit; v != nil {
		fmt.Fprintf(&b, "Visit:     %s\n", v.ID)
		if v.Symptoms != "" {
			fmt.Fprintf(&b, "Symptoms:  %s\n", v.Symptoms)
		}
		if v.Diagnosis != "" {
			fmt.Fprintf(&b, "Diagnosis: %s\n", v.Diagnosis)
		}
		vitals := []string{}
		for _, kv := range [][2]string{{"BP", v.Vitals.BP}, {"HR", v.Vitals.HR}, {"SpO2", v.Vitals.SpO2}, {"Temp", v.Vitals.Temp}} {
			if kv[1] != "" {
				vitals = append(vitals, kv[0]+" "+kv[1])
			}
		}
		if len(vitals) > 0 {
			fmt.Fprintf(&b, "Vitals:    %s\n", strings.Join(vitals, ", "))
		}
	}
	return subject, b.String()
}

var _ Service = (*SMTPService)(nil)
