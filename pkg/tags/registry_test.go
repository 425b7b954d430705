package tags

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-ged/internal/gedtest"
	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

func setup(t *testing.T) (*gedtest.Server, *Registry) {
	t.Helper()
	srv := gedtest.New(t)
	r := endpoint.NewResolver(endpoint.Options{Injected: []string{srv.URL}, Logger: logging.Discard()})
	client := gateway.New(r, gateway.WithLogger(logging.Discard()))
	return srv, NewRegistry(client, Options{Logger: logging.Discard()})
}

func TestCountsComeFromServer(t *testing.T) {
	srv, reg := setup(t)
	a := srv.WriteFile("A/B/C/D/a.pdf", "x")
	b := srv.WriteFile("A/B/C/D/b.pdf", "x")
	srv.Tag(b, "urgent")
	ctx := context.Background()

	require.NoError(t, reg.LoadAll(ctx))
	tag, ok := reg.Get("urgent")
	require.True(t, ok)
	assert.Equal(t, 1, tag.Count)

	list, err := reg.AddToItem(ctx, a, "urgent")
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent"}, list)

	// Adding again is a no-op on the server; a local increment would drift.
	_, err = reg.AddToItem(ctx, a, "urgent")
	require.NoError(t, err)
	require.NoError(t, reg.LoadAll(ctx))

	tag, _ = reg.Get("urgent")
	assert.Equal(t, srv.TagCount("urgent"), tag.Count)
	assert.Equal(t, 2, tag.Count)
}

func TestItemListIsServerAuthoritative(t *testing.T) {
	srv, reg := setup(t)
	a := srv.WriteFile("A/B/C/D/a.pdf", "x")
	srv.Tag(a, "x", "y")
	ctx := context.Background()

	list, err := reg.AddToItem(ctx, a, "z")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, list)
	cached, ok := reg.ForItem(a)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y", "z"}, cached)

	list, err = reg.RemoveFromItem(ctx, a, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "z"}, list)

	list, err = reg.SetForItem(ctx, a, []string{" q ", "q", "r"})
	require.NoError(t, err)
	assert.Equal(t, []string{"q", "r"}, list)
	assert.Equal(t, []string{"q", "r"}, srv.ItemTagNames(a))
}

func TestMutationsResyncRegistry(t *testing.T) {
	srv, reg := setup(t)
	ctx := context.Background()

	_, err := reg.Create(ctx, "archive", "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", reg.Color("archive"))
	assert.Equal(t, models.DefaultTagColor, reg.Color("unknown"))

	before := srv.Hits(http.MethodGet, "/api/tags")
	_, err = reg.Create(ctx, "archive", "")
	require.Error(t, err, "duplicate")
	assert.Equal(t, before+1, srv.Hits(http.MethodGet, "/api/tags"), "resync runs even after a failure")

	require.NoError(t, reg.Delete(ctx, "archive"))
	_, ok := reg.Get("archive")
	assert.False(t, ok)
}

func TestDeletePurgesCachedAssignments(t *testing.T) {
	srv, reg := setup(t)
	a := srv.WriteFile("A/B/C/D/a.pdf", "x")
	srv.Tag(a, "old", "keep")
	ctx := context.Background()

	_, err := reg.LoadForItem(ctx, a)
	require.NoError(t, err)
	require.NoError(t, reg.Delete(ctx, "old"))

	cached, ok := reg.ForItem(a)
	require.True(t, ok)
	assert.Equal(t, []string{"keep"}, cached)
}

func TestLoadForItemFailureLeavesEmptyList(t *testing.T) {
	srv, reg := setup(t)
	a := srv.WriteFile("A/B/C/D/a.pdf", "x")
	srv.Tag(a, "x")
	srv.Fail(http.MethodGet, "/api/item/{id}/tags", http.StatusInternalServerError, "boom")

	list, err := reg.LoadForItem(context.Background(), a)
	require.Error(t, err)
	assert.Empty(t, list)
	cached, ok := reg.ForItem(a)
	assert.True(t, ok)
	assert.Empty(t, cached)
}

func TestBlankNamesRejectedLocally(t *testing.T) {
	srv, reg := setup(t)
	ctx := context.Background()

	_, err := reg.Create(ctx, "  ", "")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = reg.AddToItem(ctx, "id", "")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = reg.SetForItem(ctx, "id", []string{"ok", ""})
	assert.ErrorIs(t, err, ErrEmptyName)
	assert.Equal(t, 0, srv.Hits(http.MethodPost, "/api/tags"))
}

func TestCacheExpires(t *testing.T) {
	srv := gedtest.New(t)
	r := endpoint.NewResolver(endpoint.Options{Injected: []string{srv.URL}, Logger: logging.Discard()})
	reg := NewRegistry(gateway.New(r, gateway.WithLogger(logging.Discard())), Options{CacheTTL: 20 * time.Millisecond, Logger: logging.Discard()})

	reg.Seed(models.Item{ID: "x", TagsKnown: true, Tags: []string{"a"}})
	_, ok := reg.ForItem("x")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := reg.ForItem("x")
		return !ok
	}, time.Second, 10*time.Millisecond)

	reg.Seed(models.Item{ID: "y"})
	_, ok = reg.ForItem("y")
	assert.False(t, ok, "unknown tags are not seeded")
}
