package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/dfryer1193/mailmanifest/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises behaviour every domain.ImageRepository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T, pageSize int) domain.ImageRepository) {
	ctx := context.Background()

	t.Run("create assigns unique ids", func(t *testing.T) {
		repo := newRepo(t, 10)
		a, err := repo.CreateImage(ctx, domain.NewImage{Location: "images/a.jpg", Description: "a", Tags: []string{"doors"}})
		require.NoError(t, err)
		b, err := repo.CreateImage(ctx, domain.NewImage{Location: "images/b.jpg", Description: "b", Tags: []string{"gates"}})
		require.NoError(t, err)

		assert.NotEmpty(t, a.ID)
		assert.NotEqual(t, a.ID, b.ID)
		assert.NotEqual(t, a.ID, a.Location)
		assert.False(t, a.CreatedAt.IsZero())
	})

	t.Run("get returns stored fields", func(t *testing.T) {
		repo := newRepo(t, 10)
		created, err := repo.CreateImage(ctx, domain.NewImage{Location: "images/c.png", Description: "garage", Tags: []string{"featured", "door"}})
		require.NoError(t, err)

		got, err := repo.GetImage(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "images/c.png", got.Location)
		assert.Equal(t, "garage", got.Description)
		assert.Equal(t, []string{"featured", "door"}, got.Tags)
	})

	t.Run("get missing is not found", func(t *testing.T) {
		repo := newRepo(t, 10)
		_, err := repo.GetImage(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list drains every page in creation order", func(t *testing.T) {
		repo := newRepo(t, 3)
		var want []string
		for i := range 10 {
			img, err := repo.CreateImage(ctx, domain.NewImage{Location: fmt.Sprintf("images/%d.jpg", i), Tags: []string{"custom"}})
			require.NoError(t, err)
			want = append(want, img.ID)
		}

		all, err := repo.ListImages(ctx)
		require.NoError(t, err)

		var got []string
		for _, img := range all {
			got = append(got, img.ID)
		}
		assert.Equal(t, want, got)
	})

	t.Run("list on empty store", func(t *testing.T) {
		repo := newRepo(t, 3)
		all, err := repo.ListImages(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("update applies only supplied fields", func(t *testing.T) {
		repo := newRepo(t, 10)
		created, err := repo.CreateImage(ctx, domain.NewImage{Location: "images/d.jpg", Description: "old", Tags: []string{"openers"}})
		require.NoError(t, err)

		desc := "new"
		updated, err := repo.UpdateImage(ctx, created.ID, domain.ImageUpdate{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "new", updated.Description)
		assert.Equal(t, []string{"openers"}, updated.Tags)
		assert.Equal(t, created.Location, updated.Location)

		updated, err = repo.UpdateImage(ctx, created.ID, domain.ImageUpdate{Tags: []string{"gates"}})
		require.NoError(t, err)
		assert.Equal(t, "new", updated.Description)
		assert.Equal(t, []string{"gates"}, updated.Tags)

		got, err := repo.GetImage(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Tags, got.Tags)
	})

	t.Run("empty update returns current record", func(t *testing.T) {
		repo := newRepo(t, 10)
		created, err := repo.CreateImage(ctx, domain.NewImage{Location: "images/e.jpg", Description: "same", Tags: []string{"custom"}})
		require.NoError(t, err)

		got, err := repo.UpdateImage(ctx, created.ID, domain.ImageUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "same", got.Description)
		assert.Equal(t, []string{"custom"}, got.Tags)
	})

	t.Run("update missing is not found", func(t *testing.T) {
		repo := newRepo(t, 10)
		desc := "x"
		_, err := repo.UpdateImage(ctx, "missing", domain.ImageUpdate{Description: &desc})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.UpdateImage(ctx, "missing", domain.ImageUpdate{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete then get and delete again", func(t *testing.T) {
		repo := newRepo(t, 10)
		created, err := repo.CreateImage(ctx, domain.NewImage{Location: "images/f.jpg", Tags: []string{"doors"}})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteImage(ctx, created.ID))

		_, err = repo.GetImage(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteImage(ctx, created.ID), domain.ErrNotFound)
	})
}
