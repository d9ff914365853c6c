package application

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/dfryer1193/mailmanifest/catalog/domain"
	"github.com/rs/zerolog/log"
)

// Upload is an image submitted for creation.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
	Description string
	// Tags is normalized with NormalizeTags; elements may hold comma separated lists
	Tags []string
}

// ImageService enforces the catalog's create/update/delete protocol over a blob store
// and a catalog store.
type ImageService struct {
	repo  domain.ImageRepository
	blobs domain.BlobStore
}

func NewImageService(repo domain.ImageRepository, blobs domain.BlobStore) *ImageService {
	return &ImageService{
		repo:  repo,
		blobs: blobs,
	}
}

// Create validates the upload, stores the blob and only then writes the record.
// If the record write fails the blob is left behind; there is no rollback.
func (s *ImageService) Create(ctx context.Context, up Upload) (*domain.ImageView, error) {
	if err := validateImageContentType(up.ContentType); err != nil {
		return nil, err
	}

	tags := NormalizeTags(up.Tags)
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", domain.ErrInvalidInput)
	}

	filename := up.Filename
	if filename == "" {
		filename = "image.jpg"
	}

	location, err := s.blobs.Store(ctx, up.Data, filename, up.ContentType)
	if err != nil {
		return nil, upstream("store blob", err)
	}

	img, err := s.repo.CreateImage(ctx, domain.NewImage{
		Location:    location,
		Description: up.Description,
		Tags:        tags,
	})
	if err != nil {
		log.Warn().Err(err).Str("location", location).Msg("Image record not created; blob left orphaned")
		return nil, upstream("create image record", err)
	}

	log.Info().Str("id", img.ID).Str("location", location).Strs("tags", tags).Msg("Created image")
	return s.view(ctx, img)
}

// Get returns the record with a freshly computed URL
func (s *ImageService) Get(ctx context.Context, id string) (*domain.ImageView, error) {
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return nil, upstream("get image", err)
	}
	return s.view(ctx, img)
}

// List returns every record, computing one URL per record
func (s *ImageService) List(ctx context.Context) ([]domain.ImageView, error) {
	images, err := s.repo.ListImages(ctx)
	if err != nil {
		return nil, upstream("list images", err)
	}

	views := make([]domain.ImageView, 0, len(images))
	for _, img := range images {
		v, err := s.view(ctx, img)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}

	log.Debug().Int("count", len(views)).Msg("Listed images")
	return views, nil
}

// Update changes description and/or tags. A nil tags slice leaves tags unchanged;
// a supplied one must normalize to at least one tag.
func (s *ImageService) Update(ctx context.Context, id string, description *string, tags []string) (*domain.ImageView, error) {
	update := domain.ImageUpdate{Description: description}

	if tags != nil {
		normalized := NormalizeTags(tags)
		if len(normalized) == 0 {
			return nil, fmt.Errorf("%w: at least one tag is required", domain.ErrInvalidInput)
		}
		update.Tags = normalized
	}

	img, err := s.repo.UpdateImage(ctx, id, update)
	if err != nil {
		return nil, upstream("update image", err)
	}

	if !update.IsEmpty() {
		log.Info().Str("id", id).Msg("Updated image")
	}
	return s.view(ctx, img)
}

// Delete removes the record first and then the blob, so a visible record never
// references a deleted blob. A blob failure is still reported and leaves an orphan blob.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return upstream("get image", err)
	}

	if err := s.repo.DeleteImage(ctx, id); err != nil {
		return upstream("delete image record", err)
	}

	if err := s.blobs.Delete(ctx, img.Location); err != nil {
		log.Warn().Err(err).Str("id", id).Str("location", img.Location).Msg("Image record deleted; blob left orphaned")
		return upstream("delete blob", err)
	}

	log.Info().Str("id", id).Str("location", img.Location).Msg("Deleted image")
	return nil
}

// Manifest projects the full catalog into its buckets. It is recomputed on every call.
func (s *ImageService) Manifest(ctx context.Context) (Manifest, error) {
	views, err := s.List(ctx)
	if err != nil {
		return Manifest{}, err
	}
	return ProjectManifest(views), nil
}

func (s *ImageService) view(ctx context.Context, img *domain.Image) (*domain.ImageView, error) {
	url, err := s.blobs.URLFor(ctx, img.Location)
	if err != nil {
		// stored locations are never caller input, so the cause's taxonomy is dropped
		return nil, fmt.Errorf("%w: build url for image %s: %v", domain.ErrUpstream, img.ID, err)
	}
	return &domain.ImageView{Image: img, URL: url}, nil
}

func validateImageContentType(contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		return fmt.Errorf("%w: file content type is required", domain.ErrInvalidInput)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: file must be an image, got %q", domain.ErrInvalidInput, contentType)
	}
	return nil
}

// upstream passes taxonomy errors through and marks anything else as an upstream failure.
func upstream(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUpstream):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, op, err)
}
