package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-ged/internal/gedtest"
	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

func newService(t *testing.T, srv *gedtest.Server) *Service {
	t.Helper()
	svc, err := New(&Config{
		DataDir:        t.TempDir(),
		APIURLs:        []string{srv.URL},
		ProbeTimeout:   time.Second,
		SearchDebounce: 10 * time.Millisecond,
	}, WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func find(t *testing.T, items []models.Item, name string) models.Item {
	t.Helper()
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("no item named %q among %v", name, models.IDs(items))
	return models.Item{}
}

// walk selects one item per level by name, starting at the cabinets.
func walk(t *testing.T, svc *Service, names ...string) {
	t.Helper()
	ctx := context.Background()
	for i, name := range names {
		level := models.Level(i)
		if level == models.LevelDivider && !strings.Contains(name, "divider") {
			level = models.LevelDocument
		}
		item := find(t, svc.Snapshot().Nav.Listing(level), name)
		require.NoError(t, svc.Select(ctx, item))
	}
}

func seed(srv *gedtest.Server) (invoice string) {
	srv.Mkdir("Archives/2024/Bills/Energy")
	invoice = srv.WriteFile("Archives/2024/Bills/Energy/invoice.pdf", "pdf")
	srv.WriteFile("Archives/2024/Bills/Energy/notes.txt", "txt")
	srv.Mkdir("Projects/Active")
	return invoice
}

func TestConnectLoadsInitialData(t *testing.T) {
	srv := gedtest.New(t)
	invoice := seed(srv)
	srv.CreateTag("urgent", "#ff0000")
	srv.Favorite(invoice)

	svc := newService(t, srv)
	require.NoError(t, svc.Connect(context.Background()))

	v := svc.Snapshot()
	assert.Equal(t, ConnConnected, v.Connection.State)
	assert.Equal(t, srv.URL, v.Connection.URL)
	assert.True(t, v.Connection.Confirmed)
	assert.Equal(t, []string{"Archives", "Projects"}, names(v.Nav.Listing(models.LevelCabinet)))
	require.Len(t, v.Tags, 1)
	assert.Equal(t, "urgent", v.Tags[0].Name)
	assert.Equal(t, []string{invoice}, models.IDs(v.Favorites))
	assert.False(t, v.Provisional)
}

func TestConnectReportsDisconnected(t *testing.T) {
	srv := gedtest.New(t)
	srv.SetHealthy(false)

	svc := newService(t, srv)
	err := svc.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDisconnected))

	conn := svc.Connection()
	assert.Equal(t, ConnDisconnected, conn.State)
	assert.Equal(t, "storage unavailable", conn.Error)
	assert.Zero(t, srv.Hits(http.MethodGet, "/api/armoires"))

	srv.SetHealthy(true)
	require.NoError(t, svc.Reconnect(context.Background()))
	assert.Equal(t, ConnConnected, svc.Connection().State)
}

func TestSearchLeavesSelectionUntouched(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))

	walk(t, svc, "Archives", "2024")
	before := svc.Snapshot().Nav

	require.NoError(t, svc.Search.Search(ctx, "invoice"))
	during := svc.Snapshot()
	assert.True(t, during.Search.Active)
	assert.Equal(t, []string{"invoice.pdf"}, names(during.Search.Results))
	assert.Equal(t, before.Breadcrumb(), during.Nav.Breadcrumb())

	svc.Search.Clear()
	after := svc.Snapshot()
	assert.False(t, after.Search.Active)
	assert.Equal(t, before.Breadcrumb(), after.Nav.Breadcrumb())
	assert.Equal(t, names(before.Listing(models.LevelBinder)), names(after.Nav.Listing(models.LevelBinder)))
}

func TestSelectDismissesOverlay(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))

	require.NoError(t, svc.Search.Search(ctx, "Proj"))
	require.True(t, svc.Snapshot().Search.Active)

	cabinet := find(t, svc.Snapshot().Nav.Listing(models.LevelCabinet), "Projects")
	require.NoError(t, svc.SelectCabinet(ctx, &cabinet))
	v := svc.Snapshot()
	assert.False(t, v.Search.Active)
	assert.Equal(t, []string{"Active"}, names(v.Nav.Listing(models.LevelShelf)))
}

func TestDeleteFavoriteDocument(t *testing.T) {
	srv := gedtest.New(t)
	invoice := seed(srv)
	srv.CreateTag("paid", "")
	srv.Tag(invoice, "paid")
	srv.Favorite(invoice)

	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))
	walk(t, svc, "Archives", "2024", "Bills", "Energy", "invoice.pdf")

	doc, ok := svc.Snapshot().Nav.Selected(models.LevelDocument)
	require.True(t, ok)
	require.True(t, svc.Favorites.IsFavorite(doc.ID))

	svc.ShowModal(ModalDelete, models.LevelDocument, &doc)
	require.NoError(t, svc.Delete(ctx, doc))

	v := svc.Snapshot()
	assert.False(t, svc.Favorites.IsFavorite(invoice))
	assert.Empty(t, v.Favorites)
	assert.Empty(t, srv.FavoriteIDs())
	assert.Nil(t, v.Nav.Selection[models.LevelDocument])
	assert.Equal(t, []string{"notes.txt"}, names(v.Nav.Listing(models.LevelDocument)))
	assert.Nil(t, v.UI.Modal, "dialog closes on success")
	tag, ok := svc.Tags.Get("paid")
	require.True(t, ok)
	assert.Zero(t, tag.Count, "counts reloaded from the service")
}

func TestDeleteFailureStaysInModal(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))

	cabinet := find(t, svc.Snapshot().Nav.Listing(models.LevelCabinet), "Projects")
	svc.ShowModal(ModalDelete, models.LevelCabinet, &cabinet)
	srv.Fail(http.MethodDelete, "/api/delete/{id}", http.StatusForbidden, "read-only volume")

	err := svc.Delete(ctx, cabinet)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, gateway.StatusCode(err))

	v := svc.Snapshot()
	require.NotNil(t, v.UI.Modal)
	assert.Equal(t, "read-only volume", v.UI.Modal.Error)
	assert.False(t, v.UI.Modal.Busy)
	assert.Empty(t, v.Nav.Error, "modal errors do not reach the global slot")
	assert.True(t, srv.Exists("Projects"))
}

func TestCreateValidatesBeforeRequest(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()

	tests := []struct {
		name     string
		parentID string
		item     string
		level    models.Level
		field    string
	}{
		{"blank name", "", "   ", models.LevelCabinet, "name"},
		{"slash in name", "", "a/b", models.LevelCabinet, "name"},
		{"dot dot", "", "..", models.LevelCabinet, "name"},
		{"missing parent", "", "Shelf", models.LevelShelf, "parent"},
		{"document", gedtest.ID("Archives"), "doc", models.LevelDocument, "level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, tt.parentID, tt.item, tt.level)
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Zero(t, srv.Hits(http.MethodPost, "/api/armoires"))
	assert.Zero(t, srv.Hits(http.MethodPost, "/api/create/{id}"))
}

func TestCreateRefreshesListing(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))
	walk(t, svc, "Projects")

	parent, _ := svc.Snapshot().Nav.Selected(models.LevelCabinet)
	item, err := svc.CreateItem(ctx, parent.ID, " Archive ", models.LevelShelf)
	require.NoError(t, err)
	assert.Equal(t, "Archive", item.Name)
	assert.Equal(t, models.KindShelf, item.Kind)
	assert.Equal(t, []string{"Active", "Archive"}, names(svc.Snapshot().Nav.Listing(models.LevelShelf)))

	cabinet, err := svc.CreateItem(ctx, "", "Library", models.LevelCabinet)
	require.NoError(t, err)
	assert.Equal(t, models.KindCabinet, cabinet.Kind)
	assert.Contains(t, names(svc.Snapshot().Nav.Listing(models.LevelCabinet)), "Library")
}

func TestRenameDocumentKeepsExtension(t *testing.T) {
	srv := gedtest.New(t)
	invoice := seed(srv)
	srv.Favorite(invoice)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))
	walk(t, svc, "Archives", "2024", "Bills", "Energy", "invoice.pdf")
	doc, _ := svc.Snapshot().Nav.Selected(models.LevelDocument)

	_, err := svc.Rename(ctx, doc, "invoice")
	require.Error(t, err)
	assert.True(t, IsValidation(err), "unchanged name is rejected locally")
	assert.Zero(t, srv.Hits(http.MethodPut, "/api/rename/{id}"))

	updated, err := svc.Rename(ctx, doc, "march")
	require.NoError(t, err)
	assert.Equal(t, "march.pdf", updated.Name)
	assert.NotEqual(t, doc.ID, updated.ID)

	v := svc.Snapshot()
	sel, ok := v.Nav.Selected(models.LevelDocument)
	require.True(t, ok)
	assert.Equal(t, updated.ID, sel.ID)
	assert.Equal(t, []string{updated.ID}, models.IDs(v.Favorites))
	assert.ElementsMatch(t, []string{"march.pdf", "notes.txt"}, names(v.Nav.Listing(models.LevelDocument)))
}

func TestMoveClearsSelection(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))
	walk(t, svc, "Archives", "2024", "Bills", "Energy", "notes.txt")
	doc, _ := svc.Snapshot().Nav.Selected(models.LevelDocument)

	_, err := svc.Move(ctx, doc, doc.ID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	svc.OpenMoveTarget(doc)
	require.NotNil(t, svc.Snapshot().UI.Modal)
	targets, err := svc.MoveTargets(ctx, 4)
	require.NoError(t, err)
	require.NotEmpty(t, targets)

	moved, err := svc.Move(ctx, doc, gedtest.ID("Projects/Active"))
	require.NoError(t, err)
	assert.Equal(t, "Projects/Active/notes.txt", moved.Path)

	v := svc.Snapshot()
	assert.Nil(t, v.UI.Modal)
	assert.Nil(t, v.UI.MoveTarget)
	assert.Nil(t, v.Nav.Selection[models.LevelDocument])
	assert.Equal(t, []string{"invoice.pdf"}, names(v.Nav.Listing(models.LevelDocument)))
}

func TestUploadValidatesAndRefreshes(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))
	walk(t, svc, "Archives", "2024", "Bills", "Energy")
	folder, _ := svc.Snapshot().Nav.Selected(models.LevelFolder)

	_, err := svc.Upload(ctx, folder.ID, nil)
	assert.True(t, IsValidation(err))
	_, err = svc.Upload(ctx, folder.ID, []gateway.File{{Name: "a/b.txt", Content: strings.NewReader("x")}})
	assert.True(t, IsValidation(err))

	items, err := svc.Upload(ctx, folder.ID, []gateway.File{
		{Name: "one.txt", Content: strings.NewReader("1")},
		{Name: "two.txt", Content: strings.NewReader("2")},
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/api/upload-multiple/{id}"))
	assert.Subset(t, names(svc.Snapshot().Nav.Listing(models.LevelDocument)), []string{"one.txt", "two.txt"})
}

func TestToggleFavoriteRejectsContainers(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))

	cabinet := find(t, svc.Snapshot().Nav.Listing(models.LevelCabinet), "Archives")
	assert.True(t, IsValidation(svc.ToggleFavorite(ctx, cabinet)))
	assert.Zero(t, srv.Hits(http.MethodPost, "/api/favorites/{id}"))
}

func TestPreviewFollowsRename(t *testing.T) {
	srv := gedtest.New(t)
	seed(srv)
	svc := newService(t, srv)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx))
	walk(t, svc, "Archives", "2024", "Bills", "Energy", "notes.txt")
	doc, _ := svc.Snapshot().Nav.Selected(models.LevelDocument)

	svc.OpenPreview(&doc)
	updated, err := svc.Rename(ctx, doc, "memo")
	require.NoError(t, err)
	require.NotNil(t, svc.Snapshot().UI.Preview)
	assert.Equal(t, updated.ID, svc.Snapshot().UI.Preview.ID)

	svc.OpenPreview(nil)
	assert.Nil(t, svc.Snapshot().UI.Preview)
}

func names(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
