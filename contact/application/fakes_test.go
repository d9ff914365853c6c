package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dfryer1193/mailmanifest/contact/domain"
)

var errSMTP = errors.New("smtp unavailable")

type fakeMailer struct {
	mu     sync.Mutex
	sent   []domain.Email
	failOn func(domain.Email) bool
}

func (m *fakeMailer) Send(ctx context.Context, email domain.Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil && m.failOn(email) {
		return "", errSMTP
	}
	m.sent = append(m.sent, email)
	return fmt.Sprintf("<msg-%d@example.com>", len(m.sent)), nil
}

type recordedMail struct {
	kind string
	err  error
}

type fakeObserver struct {
	records []recordedMail
}

func (o *fakeObserver) RecordMail(kind string, err error) {
	o.records = append(o.records, recordedMail{kind: kind, err: err})
}
