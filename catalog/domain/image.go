package domain

import (
	"context"
	"time"
)

// Image is a catalog record describing an uploaded image.
// The bytes live in the blob store under Location; the record only references them.
type Image struct {
	ID          string
	Location    string
	Description string
	Tags        []string
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// ImageView is an Image paired with a URL computed from its Location at read time.
// URLs are never persisted.
type ImageView struct {
	*Image
	URL string
}

// NewImage holds the fields needed to create a catalog record.
type NewImage struct {
	Location    string
	Description string
	Tags        []string
}

// ImageUpdate is a partial update. Nil fields are left untouched.
type ImageUpdate struct {
	Description *string
	Tags        []string
}

// IsEmpty reports whether the update would change nothing.
func (u ImageUpdate) IsEmpty() bool {
	return u.Description == nil && u.Tags == nil
}

type ImageRepository interface {
	// CreateImage persists a new record and assigns its ID
	CreateImage(ctx context.Context, img NewImage) (*Image, error)

	// GetImage returns ErrNotFound when no record has the given ID
	GetImage(ctx context.Context, id string) (*Image, error)

	// ListImages returns every record, draining all underlying pages
	ListImages(ctx context.Context) ([]*Image, error)

	// UpdateImage applies the supplied fields and returns the stored record
	UpdateImage(ctx context.Context, id string, update ImageUpdate) (*Image, error)

	// DeleteImage returns ErrNotFound when no record has the given ID
	DeleteImage(ctx context.Context, id string) error
}
