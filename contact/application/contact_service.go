package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dfryer1193/mailmanifest/contact/domain"
	"github.com/rs/zerolog/log"
)

const (
	businessName        = "On Point Garage Doors"
	confirmationSubject = "Thank you for contacting " + businessName
	formFooter          = "This email was sent from the " + businessName + " website contact form."
)

var ErrInvalidSubmission = errors.New("invalid submission")

// MailObserver is told about every send attempt. *metrics.Metrics satisfies it.
type MailObserver interface {
	RecordMail(kind string, err error)
}

type ContactService struct {
	mailer    domain.Mailer
	renderer  EmailRenderer
	recipient string
	observer  MailObserver
}

// NewContactService sends notifications to recipient. observer may be nil.
func NewContactService(mailer domain.Mailer, renderer EmailRenderer, recipient string, observer MailObserver) *ContactService {
	return &ContactService{
		mailer:    mailer,
		renderer:  renderer,
		recipient: recipient,
		observer:  observer,
	}
}

// Submit notifies the business and returns the notification's message id.
// The confirmation to the submitter is best effort: its failure is logged and dropped.
func (s *ContactService) Submit(ctx context.Context, sub domain.Submission) (string, error) {
	if strings.TrimSpace(sub.FullName) == "" || strings.TrimSpace(sub.Email) == "" || strings.TrimSpace(sub.Service) == "" {
		return "", fmt.Errorf("%w: full name, email and service are required", ErrInvalidSubmission)
	}

	notification, err := s.notificationEmail(sub)
	if err != nil {
		return "", err
	}

	messageID, err := s.mailer.Send(ctx, notification)
	s.observe("notification", err)
	if err != nil {
		log.Error().Err(err).Str("service", sub.Service).Msg("Failed to send contact email")
		return "", fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	log.Info().Str("message_id", messageID).Str("service", sub.Service).Msg("Contact email sent")

	confirmation, err := s.confirmationEmail(sub)
	if err == nil {
		var confirmationID string
		confirmationID, err = s.mailer.Send(ctx, confirmation)
		if err == nil {
			log.Info().Str("message_id", confirmationID).Msg("Confirmation email sent")
		}
	}
	s.observe("confirmation", err)
	if err != nil {
		log.Warn().Err(err).Str("message_id", messageID).Msg("Failed to send confirmation email")
	}

	return messageID, nil
}

func (s *ContactService) observe(kind string, err error) {
	if s.observer != nil {
		s.observer.RecordMail(kind, err)
	}
}

func (s *ContactService) notificationEmail(sub domain.Submission) (domain.Email, error) {
	var text, md strings.Builder

	fmt.Fprintf(&text, "New contact form submission received:\n\n")
	fmt.Fprintf(&text, "Name: %s\nEmail: %s\n", sub.FullName, sub.Email)
	if sub.Phone != "" {
		fmt.Fprintf(&text, "Phone: %s\n", sub.Phone)
	}
	fmt.Fprintf(&text, "Service: %s\n", sub.Service)
	if sub.Message != "" {
		fmt.Fprintf(&text, "\nMessage:\n%s\n", sub.Message)
	}
	fmt.Fprintf(&text, "\n---\n%s\n", formFooter)

	fmt.Fprintf(&md, "## New Contact Form Submission\n\n")
	fmt.Fprintf(&md, "**Name:** %s\n\n", escapeMarkdown(sub.FullName))
	fmt.Fprintf(&md, "**Email:** %s\n\n", escapeMarkdown(sub.Email))
	if sub.Phone != "" {
		fmt.Fprintf(&md, "**Phone:** %s\n\n", escapeMarkdown(sub.Phone))
	}
	fmt.Fprintf(&md, "**Service:** %s\n\n", escapeMarkdown(sub.Service))
	if sub.Message != "" {
		fmt.Fprintf(&md, "**Message:**\n\n%s\n\n", escapeMarkdown(sub.Message))
	}
	fmt.Fprintf(&md, "---\n\n*%s*\n", formFooter)

	html, err := s.renderer.Render(md.String())
	if err != nil {
		return domain.Email{}, err
	}

	return domain.Email{
		To:      []string{s.recipient},
		ReplyTo: sub.Email,
		Subject: "New Contact Form Submission - " + sub.Service,
		Text:    text.String(),
		HTML:    html,
	}, nil
}

func (s *ContactService) confirmationEmail(sub domain.Submission) (domain.Email, error) {
	const body = "Hi %s,\n\n" +
		"Thank you for reaching out to %s! We've received your message and will get back to you as soon as possible.\n\n" +
		"We appreciate your interest in our services.\n\n" +
		"Best regards,\n%s Team\n"

	html, err := s.renderer.Render(fmt.Sprintf(body, escapeMarkdown(sub.FullName), "**"+businessName+"**", "**"+businessName+"**"))
	if err != nil {
		return domain.Email{}, err
	}

	return domain.Email{
		To:      []string{sub.Email},
		Subject: confirmationSubject,
		Text:    fmt.Sprintf(body, sub.FullName, businessName, businessName),
		HTML:    html,
	}, nil
}
