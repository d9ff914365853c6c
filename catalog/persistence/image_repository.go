package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dfryer1193/mailmanifest/catalog/domain"
	"github.com/dfryer1193/mailmanifest/shared/db"
)

var _ domain.ImageRepository = (*SQLiteImageRepository)(nil)

const defaultPageSize = 100

// SQLiteImageRepository implements domain.ImageRepository using SQL database (SQLite)
type SQLiteImageRepository struct {
	db       *sql.DB
	pageSize int
}

// NewImageRepository creates a new SQLiteImageRepository from a standard sql.DB
func NewImageRepository(sqlDB *sql.DB) *SQLiteImageRepository {
	return &SQLiteImageRepository{
		db:       sqlDB,
		pageSize: defaultPageSize,
	}
}

// WithPageSize sets how many rows ListImages fetches per query
func (r *SQLiteImageRepository) WithPageSize(n int) *SQLiteImageRepository {
	if n > 0 {
		r.pageSize = n
	}
	return r
}

const insertImageQuery = `
	INSERT INTO images (id, location, description, tags, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

// CreateImage inserts a new record with a freshly generated ID
func (r *SQLiteImageRepository) CreateImage(ctx context.Context, img domain.NewImage) (*domain.Image, error) {
	if img.Location == "" {
		return nil, fmt.Errorf("%w: image location cannot be empty", domain.ErrInvalidInput)
	}

	tags, err := encodeTags(img.Tags)
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	created := &domain.Image{
		ID:          domain.NewImageID(),
		Location:    img.Location,
		Description: img.Description,
		Tags:        append([]string(nil), img.Tags...),
		UpdatedAt:   now,
		CreatedAt:   now,
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, insertImageQuery,
		created.ID,
		created.Location,
		created.Description,
		tags,
		created.UpdatedAt,
		created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert image record: %w", domain.ErrUpstream, err)
	}

	return created, nil
}

const getImageQuery = `
	SELECT id, location, description, tags, updated_at, created_at
	FROM images
	WHERE id = ?
`

// GetImage retrieves a single image by ID
func (r *SQLiteImageRepository) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: image %q", domain.ErrNotFound, id)
	}

	executor := db.GetExecutor(ctx, r.db)
	row, err := scanImage(executor.QueryRowContext(ctx, getImageQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: image %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get image: %w", domain.ErrUpstream, err)
	}

	return row.toDomain()
}

const listImagesPageQuery = `
	SELECT id, location, description, tags, updated_at, created_at
	FROM images
	WHERE id > ?
	ORDER BY id
	LIMIT ?
`

// ListImages walks the table page by page until a short page signals the end.
// IDs are time ordered, so records come back in creation order.
func (r *SQLiteImageRepository) ListImages(ctx context.Context) ([]*domain.Image, error) {
	images := make([]*domain.Image, 0)
	cursor := ""

	for {
		page, err := r.listPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		images = append(images, page...)

		if len(page) < r.pageSize {
			return images, nil
		}
		cursor = page[len(page)-1].ID
	}
}

func (r *SQLiteImageRepository) listPage(ctx context.Context, after string) ([]*domain.Image, error) {
	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, listImagesPageQuery, after, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list images: %w", domain.ErrUpstream, err)
	}
	defer rows.Close()

	page := make([]*domain.Image, 0, r.pageSize)
	for rows.Next() {
		row, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan image row: %w", domain.ErrUpstream, err)
		}
		img, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		page = append(page, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating image rows: %w", domain.ErrUpstream, err)
	}

	return page, nil
}

// UpdateImage applies the supplied fields and reads the record back in the same transaction
func (r *SQLiteImageRepository) UpdateImage(ctx context.Context, id string, update domain.ImageUpdate) (*domain.Image, error) {
	if update.IsEmpty() {
		return r.GetImage(ctx, id)
	}

	sets := []string{"updated_at = ?"}
	args := []any{domain.Now()}

	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Tags != nil {
		tags, err := encodeTags(update.Tags)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}
	args = append(args, id)

	query := "UPDATE images SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	var updated *domain.Image
	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		res, err := executor.ExecContext(txCtx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: failed to update image record: %w", domain.ErrUpstream, err)
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}

		updated, err = r.GetImage(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

const deleteImageQuery = `
	DELETE FROM images WHERE id = ?
`

// DeleteImage removes the record; ErrNotFound when nothing matched
func (r *SQLiteImageRepository) DeleteImage(ctx context.Context, id string) error {
	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, deleteImageQuery, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete image record: %w", domain.ErrUpstream, err)
	}

	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to read affected rows: %w", domain.ErrUpstream, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: image %s", domain.ErrNotFound, id)
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// imageRow is a private struct used to scan database rows
type imageRow struct {
	ID          string       `db:"id"`
	Location    string       `db:"location"`
	Description string       `db:"description"`
	Tags        string       `db:"tags"`
	UpdatedAt   sql.NullTime `db:"updated_at"`
	CreatedAt   sql.NullTime `db:"created_at"`
}

func scanImage(s rowScanner) (*imageRow, error) {
	var row imageRow
	err := s.Scan(
		&row.ID,
		&row.Location,
		&row.Description,
		&row.Tags,
		&row.UpdatedAt,
		&row.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// toDomain converts an imageRow to a domain.Image, handling nullable times
func (ir *imageRow) toDomain() (*domain.Image, error) {
	img := &domain.Image{
		ID:          ir.ID,
		Location:    ir.Location,
		Description: ir.Description,
		Tags:        []string{},
	}

	if ir.Tags != "" {
		if err := json.Unmarshal([]byte(ir.Tags), &img.Tags); err != nil {
			return nil, fmt.Errorf("%w: corrupt tags for image %s: %w", domain.ErrUpstream, ir.ID, err)
		}
	}

	if ir.UpdatedAt.Valid {
		img.UpdatedAt = ir.UpdatedAt.Time
	}
	if ir.CreatedAt.Valid {
		img.CreatedAt = ir.CreatedAt.Time
	}

	return img, nil
}
