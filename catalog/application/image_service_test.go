package application

import (
	"context"
	"testing"

	"github.com/dfryer1193/mailmanifest/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*ImageService, *memRepo, *memBlobs) {
	repo := newMemRepo()
	blobs := newMemBlobs()
	return NewImageService(repo, blobs), repo, blobs
}

func validUpload(tags ...string) Upload {
	return Upload{
		Data:        []byte("img"),
		Filename:    "door.jpg",
		ContentType: "image/jpeg",
		Description: "New door install",
		Tags:        tags,
	}
}

func TestImageService_CreateAndGet(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("Doors", " featured"))
	require.NoError(t, err)
	assert.Equal(t, []string{"doors", "featured"}, created.Tags)
	assert.Equal(t, "https://blobs.test/"+created.Location, created.URL)

	exists, err := blobs.Exists(ctx, created.Location)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.URL, got.URL)
}

func TestImageService_CreateIDsAreUnique(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	seen := map[string]bool{}
	for range 20 {
		created, err := svc.Create(ctx, validUpload("gates"))
		require.NoError(t, err)
		assert.False(t, seen[created.ID], "duplicate id %s", created.ID)
		seen[created.ID] = true
	}
}

func TestImageService_CreateRejectsBeforeAnyStoreCall(t *testing.T) {
	tests := []struct {
		name   string
		upload Upload
	}{
		{name: "text content type", upload: Upload{Data: []byte("x"), ContentType: "text/plain", Tags: []string{"doors"}}},
		{name: "missing content type", upload: Upload{Data: []byte("x"), Tags: []string{"doors"}}},
		{name: "malformed content type", upload: Upload{Data: []byte("x"), ContentType: "image/", Tags: []string{"doors"}}},
		{name: "empty tag string", upload: Upload{Data: []byte("x"), ContentType: "image/png", Tags: []string{""}}},
		{name: "no tags", upload: Upload{Data: []byte("x"), ContentType: "image/png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, blobs := newTestService()

			_, err := svc.Create(context.Background(), tt.upload)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, blobs.calls, "blob store must not be touched")
			assert.Zero(t, repo.calls, "catalog store must not be touched")
		})
	}
}

func TestImageService_CreateAcceptsContentTypeParams(t *testing.T) {
	svc, _, _ := newTestService()
	up := validUpload("custom")
	up.ContentType = "image/svg+xml; charset=utf-8"

	_, err := svc.Create(context.Background(), up)
	assert.NoError(t, err)
}

func TestImageService_CreateBlobFailureWritesNoRecord(t *testing.T) {
	svc, repo, blobs := newTestService()
	blobs.failOn = "store"

	_, err := svc.Create(context.Background(), validUpload("doors"))
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Zero(t, repo.calls)
}

func TestImageService_CreateRecordFailureLeavesOrphanBlob(t *testing.T) {
	svc, repo, blobs := newTestService()
	repo.failOn = "create"

	_, err := svc.Create(context.Background(), validUpload("doors"))
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Len(t, blobs.blobs, 1, "orphaned blob is accepted garbage")
}

func TestImageService_GetMissing(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImageService_List(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, validUpload("gates"))
	require.NoError(t, err)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, a.ID, views[0].ID)
	assert.Equal(t, b.ID, views[1].ID)
	for _, v := range views {
		assert.NotEmpty(t, v.URL)
	}
}

func TestImageService_ListUpstreamFailure(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.failOn = "list"

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestImageService_UpdateNormalizesTags(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, nil, []string{"A", " a ", "A "})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, updated.Tags)
	assert.Equal(t, created.Description, updated.Description)
}

func TestImageService_UpdateDescriptionOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)

	desc := "Carriage house doors"
	updated, err := svc.Update(ctx, created.ID, &desc, nil)
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	assert.Equal(t, []string{"doors"}, updated.Tags)
}

func TestImageService_UpdateNothingIsNoop(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, created.Tags, updated.Tags)
	assert.Equal(t, created.Description, updated.Description)
}

func TestImageService_UpdateRejectsEmptyTags(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)
	before := repo.calls

	_, err = svc.Update(ctx, created.ID, nil, []string{" , "})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, before, repo.calls)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"doors"}, got.Tags)
}

func TestImageService_UpdateMissing(t *testing.T) {
	svc, _, _ := newTestService()
	desc := "x"

	_, err := svc.Update(context.Background(), "nope", &desc, []string{"gates"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImageService_Delete(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrNotFound)

	exists, err := blobs.Exists(ctx, created.Location)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestImageService_DeleteRecordFailureKeepsBlob(t *testing.T) {
	svc, repo, blobs := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)
	repo.failOn = "delete"

	require.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrUpstream)

	repo.failOn = ""
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	exists, err := blobs.Exists(ctx, got.Location)
	require.NoError(t, err)
	assert.True(t, exists, "a visible record must keep its blob")
}

func TestImageService_DeleteBlobFailureLeavesOrphanBlob(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)
	blobs.failOn = "delete"

	require.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrUpstream)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, blobs.blobs, 1)
}

func TestImageService_BadStoredLocationIsUpstreamFailure(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, validUpload("doors"))
	require.NoError(t, err)
	blobs.failOn = "url"

	_, err = svc.List(ctx)
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Manifest(ctx)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestImageService_ManifestTracksTagChanges(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validUpload("doors, featured"))
	require.NoError(t, err)

	m, err := svc.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, ids(m.Doors))
	assert.Equal(t, []string{created.ID}, ids(m.Featured))
	assert.Empty(t, m.Gates)

	_, err = svc.Update(ctx, created.ID, nil, []string{"gates"})
	require.NoError(t, err)

	m, err = svc.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, ids(m.Gates))
	assert.Empty(t, m.Doors)
	assert.Empty(t, m.Featured)
}
