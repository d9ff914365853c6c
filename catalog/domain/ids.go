package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewImageID returns a time-ordered unique ID, so lexical order matches creation order.
func NewImageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Now is the clock used for record timestamps.
var Now = func() time.Time {
	return time.Now().UTC()
}
