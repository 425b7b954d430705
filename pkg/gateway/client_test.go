package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-ged/internal/gedtest"
	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

func newClient(t *testing.T, urls ...string) (*Client, *endpoint.Resolver) {
	t.Helper()
	r := endpoint.NewResolver(endpoint.Options{
		Injected:     urls,
		ProbeTimeout: 100 * time.Millisecond,
		Logger:       logging.Discard(),
	})
	return New(r, WithLogger(logging.Discard())), r
}

func TestFirstCallResolvesEndpoint(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	srv := gedtest.New(t)
	cabinet := srv.Mkdir("Archives")
	srv.Mkdir("Archives/Compta")
	srv.Mkdir("Archives/RH")

	c, r := newClient(t, slow.URL, srv.URL)

	children, err := c.Children(context.Background(), cabinet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Compta", "RH"}, names(children))

	active, ok := r.Active()
	require.True(t, ok)
	assert.Equal(t, srv.URL, active)
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/api/browse/{id}"))
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestItemIDsAreEscaped(t *testing.T) {
	srv := gedtest.New(t)
	id := srv.WriteFile("Archives/Docs/??~.txt", "hello")
	require.Contains(t, id, "/")

	c, _ := newClient(t, srv.URL)
	item, err := c.Item(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, models.KindDocument, item.Kind)
	assert.Equal(t, "txt", item.Extension())
	assert.Equal(t, int64(5), item.Document.Size)
}

func TestCreateRenameMoveDelete(t *testing.T) {
	srv := gedtest.New(t)
	c, _ := newClient(t, srv.URL)
	ctx := context.Background()

	cab, err := c.CreateItem(ctx, "", "Archives", models.KindCabinet)
	require.NoError(t, err)
	assert.Equal(t, models.KindCabinet, cab.Kind)

	shelf, err := c.CreateItem(ctx, cab.ID, "Compta", "")
	require.NoError(t, err)
	assert.Equal(t, models.KindShelf, shelf.Kind)

	other, err := c.CreateItem(ctx, cab.ID, "RH", "")
	require.NoError(t, err)

	renamed, err := c.Rename(ctx, shelf.ID, "Comptabilite")
	require.NoError(t, err)
	assert.Equal(t, "Comptabilite", renamed.Name)
	assert.NotEqual(t, shelf.ID, renamed.ID, "ids follow the path")

	moved, err := c.Move(ctx, renamed.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Archives/RH/Comptabilite", moved.Path)
	assert.Equal(t, models.KindBinder, moved.Kind)

	res, err := c.Delete(ctx, moved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Archives/RH/Comptabilite", res.Path)
	assert.False(t, srv.Exists("Archives/RH/Comptabilite"))

	_, err = c.CreateItem(ctx, "", "Nested", models.KindShelf)
	assert.Error(t, err)
}

func TestServiceErrorCarriesDetail(t *testing.T) {
	srv := gedtest.New(t)
	c, _ := newClient(t, srv.URL)

	_, err := c.Children(context.Background(), gedtest.ID("missing"))
	require.Error(t, err)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "item not found", se.Message)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "item not found", Message(err))
}

func TestServiceErrorWithoutBody(t *testing.T) {
	bare := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer bare.Close()

	c, _ := newClient(t, bare.URL)
	_, err := c.Cabinets(context.Background())

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, "Bad Gateway (502)", se.Message)
}

func TestValidationDetailList(t *testing.T) {
	se := newServiceError(422, []byte(`{"detail":[{"loc":["body","name"],"msg":"field required"}]}`))
	assert.Equal(t, "field required", se.Message)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			got = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"x","color":"#fff","count":0}`))
	}))
	defer srv.Close()

	c, _ := newClient(t, srv.URL)
	_, err := c.CreateTag(context.Background(), "x", "#fff")
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get(RequestIDHeader), 36)
}

func TestUploads(t *testing.T) {
	srv := gedtest.New(t)
	folder := srv.Mkdir("A/B/C/D")
	srv.WriteFile("A/B/C/D/report.pdf", "old")
	c, _ := newClient(t, srv.URL)
	ctx := context.Background()

	item, err := c.Upload(ctx, folder, File{Name: "report.pdf", Content: strings.NewReader("new")})
	require.NoError(t, err)
	assert.Equal(t, "report_1.pdf", item.Name)
	assert.Equal(t, models.KindDocument, item.Kind)
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/api/upload/{id}"))

	items, err := c.UploadFiles(ctx, folder, []File{
		{Name: "a.txt", Content: strings.NewReader("a")},
		{Name: "b.txt", Content: strings.NewReader("bb")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(items))

	_, err = c.UploadFiles(ctx, folder, nil)
	assert.Error(t, err)
	_, err = c.Upload(ctx, folder, File{Content: strings.NewReader("x")})
	assert.Error(t, err)
}

func TestSearchFilters(t *testing.T) {
	srv := gedtest.New(t)
	srv.WriteFile("A/B/C/D/invoice-jan.pdf", "x")
	srv.WriteFile("A/B/C/D/invoice-feb.txt", "x")
	srv.Mkdir("A/B/invoices")
	c, _ := newClient(t, srv.URL)

	items, err := c.Search(context.Background(), "invoice", SearchFilters{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "invoices", items[0].Name, "containers first")
	assert.Equal(t, models.MatchFilename, items[1].Match)

	items, err = c.Search(context.Background(), "invoice", SearchFilters{Kind: models.KindDocument, Extension: ".pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice-jan.pdf"}, names(items))

	q := srv.LastQuery(http.MethodGet, "/api/search")
	assert.Equal(t, "document", q.Get("type"))
	assert.Equal(t, "pdf", q.Get("extension"))
}

func TestTagsAndFavorites(t *testing.T) {
	srv := gedtest.New(t)
	doc := srv.WriteFile("A/B/C/D/a.pdf", "x")
	c, _ := newClient(t, srv.URL)
	ctx := context.Background()

	tag, err := c.CreateTag(ctx, "urgent", "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTagColor, tag.Color)

	tags, err := c.AddTagToItem(ctx, doc, "urgent")
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent"}, tags)

	tags, err = c.AddTagToItem(ctx, doc, "new tag")
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "new tag"}, tags)

	all, err := c.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new tag", all[0].Name)
	assert.Equal(t, 1, all[1].Count)

	byTag, err := c.ItemsByTag(ctx, "new tag")
	require.NoError(t, err)
	assert.Equal(t, []string{doc}, models.IDs(byTag))

	tags, err = c.RemoveTagFromItem(ctx, doc, "urgent")
	require.NoError(t, err)
	assert.Equal(t, []string{"new tag"}, tags)

	tags, err = c.SetItemTags(ctx, doc, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	tags, err = c.ItemTags(ctx, doc)
	require.NoError(t, err)
	assert.NotNil(t, tags)

	require.NoError(t, c.DeleteTag(ctx, "urgent"))
	assert.Error(t, c.DeleteTag(ctx, "urgent"))

	res, err := c.AddFavorite(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{doc}, models.IDs(res.Favorites))

	favs, err := c.Favorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	res, err = c.RemoveFavorite(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, res.Favorites)
}

func TestTreeAndStats(t *testing.T) {
	srv := gedtest.New(t)
	srv.Mkdir("A/B/C/D/E")
	srv.WriteFile("A/B/x.pdf", "1234")
	c, _ := newClient(t, srv.URL)
	ctx := context.Background()

	tree, err := c.Tree(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	depth := 0
	tree[0].Walk(func(_ models.TreeNode, d int) {
		if d > depth {
			depth = d
		}
	})
	assert.Equal(t, 2, depth)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Cabinets)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, int64(4), stats.TotalSize)
	assert.Equal(t, 1, stats.Extensions["pdf"])

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.True(t, h.StorageRootExists)
}

func TestContentURLs(t *testing.T) {
	c, r := newClient(t, "http://first:8000", "http://second:8000")
	id := gedtest.ID("Archives/Docs/??~.txt")

	assert.Equal(t, "http://first:8000/api/download/"+strings.ReplaceAll(id, "/", "%2F"), c.DownloadURL(id, ""))
	assert.Equal(t, "http://other/api/preview/"+strings.ReplaceAll(id, "/", "%2F"), c.PreviewURL(id, "http://other/"))

	_, ok := r.Active()
	assert.False(t, ok, "building URLs never probes")
}

func TestMetricsCountRequests(t *testing.T) {
	srv := gedtest.New(t)
	srv.Mkdir("A")
	c, _ := newClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.Cabinets(ctx)
	require.NoError(t, err)
	_, err = c.Cabinets(ctx)
	require.NoError(t, err)
	_, _ = c.Children(ctx, gedtest.ID("nope"))

	summary, err := c.Metrics().Summary()
	require.NoError(t, err)

	byOp := map[string]OpSummary{}
	for _, s := range summary {
		byOp[s.Op] = s
	}
	assert.Equal(t, 2, byOp["cabinets"].Codes["200"])
	assert.Equal(t, 1, byOp["browse"].Codes["404"])
}

func names(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
