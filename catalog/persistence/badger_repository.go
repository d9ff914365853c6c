package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/mailmanifest/catalog/domain"
	"github.com/dgraph-io/badger/v4"
)

var _ domain.ImageRepository = (*BadgerImageRepository)(nil)

var imageKeyPrefix = []byte("image/")

// BadgerImageRepository implements domain.ImageRepository on a badger key-value store.
// Records are JSON documents keyed by image/<id>.
type BadgerImageRepository struct {
	db       *badger.DB
	pageSize int
}

func NewBadgerImageRepository(db *badger.DB) *BadgerImageRepository {
	return &BadgerImageRepository{
		db:       db,
		pageSize: defaultPageSize,
	}
}

// WithPageSize sets how many keys ListImages reads per transaction
func (r *BadgerImageRepository) WithPageSize(n int) *BadgerImageRepository {
	if n > 0 {
		r.pageSize = n
	}
	return r
}

type imageDocument struct {
	ID          string   `json:"id"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	UpdatedAt   int64    `json:"updated_at"`
	CreatedAt   int64    `json:"created_at"`
}

func imageKey(id string) []byte {
	return append(append([]byte(nil), imageKeyPrefix...), id...)
}

func (r *BadgerImageRepository) CreateImage(ctx context.Context, img domain.NewImage) (*domain.Image, error) {
	if img.Location == "" {
		return nil, fmt.Errorf("%w: image location cannot be empty", domain.ErrInvalidInput)
	}

	now := domain.Now()
	created := &domain.Image{
		ID:          domain.NewImageID(),
		Location:    img.Location,
		Description: img.Description,
		Tags:        append([]string{}, img.Tags...),
		UpdatedAt:   now,
		CreatedAt:   now,
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		return putImage(txn, created)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert image record: %w", domain.ErrUpstream, err)
	}

	return created, nil
}

func (r *BadgerImageRepository) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	var img *domain.Image
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		img, err = getImage(txn, id)
		return err
	})
	if err != nil {
		return nil, wrapBadgerError(err, id, "get image")
	}
	return img, nil
}

// ListImages reads pageSize keys per read transaction, seeking past the last key of the
// previous page, until a short page is returned.
func (r *BadgerImageRepository) ListImages(ctx context.Context) ([]*domain.Image, error) {
	images := make([]*domain.Image, 0)
	var cursor []byte

	for {
		page, last, err := r.listPage(cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list images: %w", domain.ErrUpstream, err)
		}
		images = append(images, page...)

		if len(page) < r.pageSize {
			return images, nil
		}
		cursor = last
	}
}

func (r *BadgerImageRepository) listPage(after []byte) ([]*domain.Image, []byte, error) {
	page := make([]*domain.Image, 0, r.pageSize)
	var last []byte

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = imageKeyPrefix
		opts.PrefetchSize = r.pageSize
		it := txn.NewIterator(opts)
		defer it.Close()

		start := imageKeyPrefix
		if after != nil {
			start = after
		}

		for it.Seek(start); it.ValidForPrefix(imageKeyPrefix) && len(page) < r.pageSize; it.Next() {
			item := it.Item()
			if after != nil && bytes.Equal(item.Key(), after) {
				continue
			}

			var doc imageDocument
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("failed to decode %s: %w", item.Key(), err)
			}

			page = append(page, doc.toDomain())
			last = item.KeyCopy(nil)
		}
		return nil
	})

	return page, last, err
}

func (r *BadgerImageRepository) UpdateImage(ctx context.Context, id string, update domain.ImageUpdate) (*domain.Image, error) {
	if update.IsEmpty() {
		return r.GetImage(ctx, id)
	}

	var updated *domain.Image
	err := r.db.Update(func(txn *badger.Txn) error {
		img, err := getImage(txn, id)
		if err != nil {
			return err
		}

		if update.Description != nil {
			img.Description = *update.Description
		}
		if update.Tags != nil {
			img.Tags = append([]string{}, update.Tags...)
		}
		img.UpdatedAt = domain.Now()

		updated = img
		return putImage(txn, img)
	})
	if err != nil {
		return nil, wrapBadgerError(err, id, "update image")
	}

	return updated, nil
}

func (r *BadgerImageRepository) DeleteImage(ctx context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(imageKey(id)); err != nil {
			return err
		}
		return txn.Delete(imageKey(id))
	})
	if err != nil {
		return wrapBadgerError(err, id, "delete image")
	}
	return nil
}

func getImage(txn *badger.Txn, id string) (*domain.Image, error) {
	item, err := txn.Get(imageKey(id))
	if err != nil {
		return nil, err
	}

	var doc imageDocument
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func putImage(txn *badger.Txn, img *domain.Image) error {
	data, err := json.Marshal(imageDocument{
		ID:          img.ID,
		Location:    img.Location,
		Description: img.Description,
		Tags:        img.Tags,
		UpdatedAt:   img.UpdatedAt.UnixNano(),
		CreatedAt:   img.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal image: %w", err)
	}
	return txn.Set(imageKey(img.ID), data)
}

func wrapBadgerError(err error, id string, op string) error {
	if errors.Is(err, badger.ErrKeyNotFound) || errors.Is(err, badger.ErrEmptyKey) {
		return fmt.Errorf("%w: image %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrUpstream, op, err)
}

func (d *imageDocument) toDomain() *domain.Image {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Image{
		ID:          d.ID,
		Location:    d.Location,
		Description: d.Description,
		Tags:        tags,
		UpdatedAt:   unixNanoUTC(d.UpdatedAt),
		CreatedAt:   unixNanoUTC(d.CreatedAt),
	}
}

func unixNanoUTC(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
