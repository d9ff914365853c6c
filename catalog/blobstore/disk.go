// Package blobstore keeps image bytes on local disk, encrypted at rest.
package blobstore

import (
	"context"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dfryer1193/mailmanifest/catalog/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix        = "images/"
	defaultExtension = ".jpg"
	metaSuffix       = ".meta.json"

	dirPermissions  = 0o700
	filePermissions = 0o600
)

var (
	extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)
	keyPattern       = regexp.MustCompile(`^images/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.[a-z0-9]{1,10}$`)
)

var _ domain.BlobStore = (*DiskStore)(nil)

type Config struct {
	Root string
	// Secret is the master secret encryption and signing keys are derived from
	Secret        []byte
	URLMode       URLMode
	PublicBaseURL string
	// BaseURL is this service's externally reachable address, used for signed links
	BaseURL string
	URLTTL  time.Duration
}

// DiskStore implements domain.BlobStore on the local filesystem.
type DiskStore struct {
	root          string
	aead          cipher.AEAD
	mode          URLMode
	publicBaseURL string
	signer        *Signer
}

// blobMeta is written next to each blob so the content type survives a round trip
type blobMeta struct {
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	StoredAt    time.Time `json:"stored_at"`
}

func NewDiskStore(cfg Config) (*DiskStore, error) {
	if cfg.Root == "" {
		return nil, errors.New("blob root cannot be empty")
	}
	if err := os.MkdirAll(filepath.Join(cfg.Root, keyPrefix), dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	aead, err := newAEAD(cfg.Secret)
	if err != nil {
		return nil, err
	}

	signer, err := NewSigner(cfg.Secret, cfg.BaseURL, cfg.URLTTL)
	if err != nil {
		return nil, err
	}

	mode := cfg.URLMode
	if mode == "" {
		mode = URLModeSigned
	}
	if mode == URLModePublic && cfg.PublicBaseURL == "" {
		return nil, errors.New("public url mode requires a public base url")
	}

	return &DiskStore{
		root:          cfg.Root,
		aead:          aead,
		mode:          mode,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		signer:        signer,
	}, nil
}

// Signer returns the signer used for signed links, for verifying inbound requests.
func (s *DiskStore) Signer() *Signer {
	return s.signer
}

// Store encrypts data under a fresh key built from a UUID and the suggested name's extension.
func (s *DiskStore) Store(ctx context.Context, data []byte, suggestedName string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := keyPrefix + uuid.NewString() + extensionOf(suggestedName)
	encrypted, err := seal(s.aead, data, key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	meta, err := json.Marshal(blobMeta{
		ContentType: contentType,
		Size:        len(data),
		StoredAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal blob metadata: %w", err)
	}

	// metadata first: a visible blob always has its content type
	blobPath := s.pathFor(key)
	if err := atomicWriteFile(blobPath+metaSuffix, meta); err != nil {
		return "", fmt.Errorf("%w: failed to write blob metadata: %w", domain.ErrUpstream, err)
	}
	if err := atomicWriteFile(blobPath, encrypted); err != nil {
		_ = os.Remove(blobPath + metaSuffix)
		return "", fmt.Errorf("%w: failed to write blob: %w", domain.ErrUpstream, err)
	}

	log.Debug().Str("key", key).Int("size", len(data)).Msg("Stored blob")
	return key, nil
}

func (s *DiskStore) URLFor(ctx context.Context, key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: invalid blob key %q", domain.ErrInvalidInput, key)
	}
	if s.mode == URLModePublic {
		return s.publicBaseURL + "/" + key, nil
	}
	return s.signer.URL(key), nil
}

// Delete removes the blob and its metadata. Missing files are not an error.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if !keyPattern.MatchString(key) {
		return nil
	}

	blobPath := s.pathFor(key)
	if err := os.Remove(blobPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to remove blob %s: %w", domain.ErrUpstream, key, err)
	}
	if err := os.Remove(blobPath + metaSuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to remove blob metadata %s: %w", domain.ErrUpstream, key, err)
	}

	log.Debug().Str("key", key).Msg("Deleted blob")
	return nil
}

func (s *DiskStore) Exists(ctx context.Context, key string) (bool, error) {
	if !keyPattern.MatchString(key) {
		return false, nil
	}

	_, err := os.Stat(s.pathFor(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: failed to stat blob %s: %w", domain.ErrUpstream, key, err)
}

// Open reads and decrypts a blob.
func (s *DiskStore) Open(ctx context.Context, key string) (*domain.Blob, error) {
	if !keyPattern.MatchString(key) {
		return nil, fmt.Errorf("%w: blob %s", domain.ErrNotFound, key)
	}

	blobPath := s.pathFor(key)
	encrypted, err := os.ReadFile(blobPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: blob %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read blob %s: %w", domain.ErrUpstream, key, err)
	}

	content, err := open(s.aead, encrypted, key)
	if err != nil {
		return nil, fmt.Errorf("%w: blob %s: %w", domain.ErrUpstream, key, err)
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if raw, err := os.ReadFile(blobPath + metaSuffix); err == nil {
		var meta blobMeta
		if err := json.Unmarshal(raw, &meta); err == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &domain.Blob{
		Key:         key,
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *DiskStore) pathFor(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// extensionOf keeps the original extension when it is a plain short suffix.
func extensionOf(name string) string {
	ext := strings.ToLower(path.Ext(filepath.Base(name)))
	if !extensionPattern.MatchString(ext) {
		return defaultExtension
	}
	return ext
}

// atomicWriteFile writes to a temporary file in the target directory and renames it into place
func atomicWriteFile(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".pending-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(filePermissions); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	success = true
	return nil
}
