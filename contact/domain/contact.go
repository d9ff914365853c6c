package domain

import (
	"context"
	"errors"
)

var ErrDelivery = errors.New("mail delivery failed")

// Submission is one contact form entry.
type Submission struct {
	FullName string
	Email    string
	Phone    string
	Service  string
	Message  string
}

// Email is a composed message ready for a Mailer. HTML is optional.
type Email struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Mailer hands an email to a transport and returns the message id it was sent under.
type Mailer interface {
	Send(ctx context.Context, email Email) (string, error)
}
