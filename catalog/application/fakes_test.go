package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dfryer1193/mailmanifest/catalog/domain"
)

var errBoom = errors.New("boom")

// memRepo is an in-memory domain.ImageRepository that counts calls.
type memRepo struct {
	mu     sync.Mutex
	order  []string
	images map[string]domain.Image
	calls  int
	failOn string
}

func newMemRepo() *memRepo {
	return &memRepo{images: map[string]domain.Image{}}
}

func (r *memRepo) hit(op string) error {
	r.calls++
	if r.failOn == op {
		return errBoom
	}
	return nil
}

func (r *memRepo) CreateImage(ctx context.Context, img domain.NewImage) (*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("create"); err != nil {
		return nil, err
	}
	created := domain.Image{
		ID:          domain.NewImageID(),
		Location:    img.Location,
		Description: img.Description,
		Tags:        append([]string{}, img.Tags...),
		CreatedAt:   domain.Now(),
		UpdatedAt:   domain.Now(),
	}
	r.images[created.ID] = created
	r.order = append(r.order, created.ID)
	return &created, nil
}

func (r *memRepo) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("get"); err != nil {
		return nil, err
	}
	img, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: image %s", domain.ErrNotFound, id)
	}
	return &img, nil
}

func (r *memRepo) ListImages(ctx context.Context) ([]*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("list"); err != nil {
		return nil, err
	}
	out := []*domain.Image{}
	for _, id := range r.order {
		if img, ok := r.images[id]; ok {
			out = append(out, &img)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateImage(ctx context.Context, id string, update domain.ImageUpdate) (*domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("update"); err != nil {
		return nil, err
	}
	img, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: image %s", domain.ErrNotFound, id)
	}
	if update.Description != nil {
		img.Description = *update.Description
	}
	if update.Tags != nil {
		img.Tags = append([]string{}, update.Tags...)
	}
	r.images[id] = img
	return &img, nil
}

func (r *memRepo) DeleteImage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("delete"); err != nil {
		return err
	}
	if _, ok := r.images[id]; !ok {
		return fmt.Errorf("%w: image %s", domain.ErrNotFound, id)
	}
	delete(r.images, id)
	return nil
}

// memBlobs is an in-memory domain.BlobStore that counts calls.
type memBlobs struct {
	mu     sync.Mutex
	blobs  map[string]domain.Blob
	seq    int
	calls  int
	failOn string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: map[string]domain.Blob{}}
}

func (b *memBlobs) hit(op string) error {
	b.calls++
	if b.failOn == op {
		return errBoom
	}
	return nil
}

func (b *memBlobs) Store(ctx context.Context, data []byte, suggestedName string, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("store"); err != nil {
		return "", err
	}
	b.seq++
	key := fmt.Sprintf("images/blob-%d", b.seq)
	b.blobs[key] = domain.Blob{Key: key, ContentType: contentType, Content: data}
	return key, nil
}

func (b *memBlobs) URLFor(ctx context.Context, key string) (string, error) {
	if b.failOn == "url" {
		return "", fmt.Errorf("%w: invalid blob key %q", domain.ErrInvalidInput, key)
	}
	return "https://blobs.test/" + key, nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.hit("delete"); err != nil {
		return err
	}
	delete(b.blobs, key)
	return nil
}

func (b *memBlobs) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[key]
	return ok, nil
}

func (b *memBlobs) Open(ctx context.Context, key string) (*domain.Blob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &blob, nil
}
