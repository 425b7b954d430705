package favorites

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-ged/internal/gedtest"
	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/localstate"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

func setup(t *testing.T) (*gedtest.Server, *gateway.Client, *localstate.Store) {
	t.Helper()
	srv := gedtest.New(t)
	r := endpoint.NewResolver(endpoint.Options{Injected: []string{srv.URL}, Logger: logging.Discard()})
	store, err := localstate.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return srv, gateway.New(r, gateway.WithLogger(logging.Discard())), store
}

func doc(id string) models.Item {
	return models.Item{ID: id, Name: id, Kind: models.KindDocument, Document: &models.DocumentInfo{}}
}

func TestLoadMirrorsServerAndCache(t *testing.T) {
	srv, client, store := setup(t)
	a := srv.WriteFile("A/B/C/D/a.pdf", "x")
	srv.Favorite(a)

	c := New(client, store, logging.Discard())
	require.NoError(t, c.Load(context.Background()))
	assert.True(t, c.IsFavorite(a))
	assert.False(t, c.Provisional())

	cached, err := store.LoadFavorites()
	require.NoError(t, err)
	assert.Equal(t, []string{a}, models.IDs(cached))
}

func TestLoadFallsBackToCache(t *testing.T) {
	srv, client, store := setup(t)
	require.NoError(t, store.SaveFavorites([]models.Item{doc("cached")}))
	srv.Fail(http.MethodGet, "/api/favorites", http.StatusInternalServerError, "metadata unreadable")

	c := New(client, store, logging.Discard())
	err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, c.Provisional())
	assert.Equal(t, []string{"cached"}, models.IDs(c.Items()))

	srv.Recover(http.MethodGet, "/api/favorites")
	require.NoError(t, c.Load(context.Background()))
	assert.False(t, c.Provisional())
	assert.Empty(t, c.Items(), "server data wins once available")
}

func TestAddRollsBackWhenServerRejects(t *testing.T) {
	srv, client, store := setup(t)
	a := srv.WriteFile("A/B/C/D/a.pdf", "x")
	b := srv.WriteFile("A/B/C/D/b.pdf", "x")
	srv.Favorite(a)

	c := New(client, store, logging.Discard())
	require.NoError(t, c.Load(context.Background()))
	before := models.IDs(c.Items())

	srv.Fail(http.MethodPost, "/api/favorites/{id}", http.StatusInternalServerError, "nope")
	err := c.Add(context.Background(), doc(b))
	require.Error(t, err)
	assert.Equal(t, "nope", gateway.Message(err))
	assert.Equal(t, before, models.IDs(c.Items()))
	assert.False(t, c.IsFavorite(b))
}

func TestAddAndRemove(t *testing.T) {
	srv, client, store := setup(t)
	a := srv.WriteFile("A/B/C/D/a.pdf", "x")

	c := New(client, store, logging.Discard())
	require.NoError(t, c.Toggle(context.Background(), doc(a)))
	assert.True(t, c.IsFavorite(a))
	assert.Equal(t, []string{a}, srv.FavoriteIDs())

	srv.FailTimes(http.MethodDelete, "/api/favorites/{id}", http.StatusBadGateway, "proxy down", 1)
	assert.Error(t, c.Remove(context.Background(), a))
	assert.True(t, c.IsFavorite(a), "restored after failed remove")

	require.NoError(t, c.Toggle(context.Background(), doc(a)))
	assert.False(t, c.IsFavorite(a))
	assert.Empty(t, srv.FavoriteIDs())
}

func TestForgetUpdatesCache(t *testing.T) {
	_, client, store := setup(t)
	c := New(client, store, logging.Discard())
	c.set.Replace([]models.Item{doc("a"), doc("b")})

	c.Forget("a")
	assert.Equal(t, []string{"b"}, models.IDs(c.Items()))
	cached, err := store.LoadFavorites()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, models.IDs(cached))
}
