// Package gedtest runs an in-memory document service for tests. It mirrors
// the routes and payloads of the real service closely enough for the client
// packages to be exercised end to end.
package gedtest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

var kindsByDepth = []string{"armoire", "rayon", "classeur", "dossier", "intercalaire"}

type node struct {
	rel      string
	isFile   bool
	content  []byte
	created  time.Time
	modified time.Time
}

type failure struct {
	status int
	detail string
	times  int // remaining; <0 means forever
}

// Server is a fake document service.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	nodes     map[string]*node
	tags      map[string]string
	itemTags  map[string][]string
	favorites []string
	healthy   bool
	clock     time.Time

	failures map[string]*failure
	gates    map[string]chan struct{}
	hits     map[string]int
	queries  map[string]url.Values
}

// New starts a fake service and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewServer()
	t.Cleanup(s.Close)
	return s
}

// NewServer starts a fake service. The caller closes it.
func NewServer() *Server {
	s := &Server{
		nodes:    make(map[string]*node),
		tags:     make(map[string]string),
		itemTags: make(map[string][]string),
		healthy:  true,
		clock:    time.Date(2025, 1, 11, 10, 0, 0, 0, time.Local),
		failures: make(map[string]*failure),
		gates:    make(map[string]chan struct{}),
		hits:     make(map[string]int),
		queries:  make(map[string]url.Values),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	s.handle(r, http.MethodGet, "/health", s.health)
	s.handle(r, http.MethodGet, "/api/tree", s.tree)
	s.handle(r, http.MethodGet, "/api/armoires", s.listCabinets)
	s.handle(r, http.MethodPost, "/api/armoires", s.createCabinet)
	s.handle(r, http.MethodGet, "/api/browse/{id}", s.browse)
	s.handle(r, http.MethodGet, "/api/item/{id}", s.item)
	s.handle(r, http.MethodPost, "/api/create/{id}", s.create)
	s.handle(r, http.MethodPut, "/api/rename/{id}", s.rename)
	s.handle(r, http.MethodPut, "/api/move/{id}", s.move)
	s.handle(r, http.MethodDelete, "/api/delete/{id}", s.delete)
	s.handle(r, http.MethodPost, "/api/upload/{id}", s.upload("file"))
	s.handle(r, http.MethodPost, "/api/upload-multiple/{id}", s.upload("files"))
	s.handle(r, http.MethodGet, "/api/download/{id}", s.content)
	s.handle(r, http.MethodGet, "/api/preview/{id}", s.content)
	s.handle(r, http.MethodGet, "/api/search", s.search)
	s.handle(r, http.MethodGet, "/api/stats", s.stats)
	s.handle(r, http.MethodGet, "/api/tags", s.listTags)
	s.handle(r, http.MethodPost, "/api/tags", s.createTag)
	s.handle(r, http.MethodDelete, "/api/tags/{tag}", s.deleteTag)
	s.handle(r, http.MethodGet, "/api/tags/{tag}/items", s.tagItems)
	s.handle(r, http.MethodGet, "/api/item/{id}/tags", s.getItemTags)
	s.handle(r, http.MethodPut, "/api/item/{id}/tags", s.setItemTags)
	s.handle(r, http.MethodPost, "/api/item/{id}/tags/{tag}", s.addItemTag)
	s.handle(r, http.MethodDelete, "/api/item/{id}/tags/{tag}", s.removeItemTag)
	s.handle(r, http.MethodGet, "/api/favorites", s.listFavorites)
	s.handle(r, http.MethodPost, "/api/favorites/{id}", s.addFavorite)
	s.handle(r, http.MethodDelete, "/api/favorites/{id}", s.removeFavorite)

	return r
}

// handle registers h behind hit counting, failure injection and gates.
func (s *Server) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := routeKey(method, pattern)
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.hits[key]++
		s.queries[key] = req.URL.Query()
		gate := s.gates[key]
		var fail *failure
		if f, ok := s.failures[key]; ok && f.times != 0 {
			if f.times > 0 {
				f.times--
			}
			copied := *f
			fail = &copied
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-req.Context().Done():
				return
			}
		}
		if fail != nil {
			writeError(w, fail.status, fail.detail)
			return
		}
		h(w, req)
	})
}

func routeKey(method, pattern string) string {
	return method + " " + pattern
}

// Fail makes every following request to the route answer status with
// detail in the error body.
func (s *Server) Fail(method, pattern string, status int, detail string) {
	s.FailTimes(method, pattern, status, detail, -1)
}

// FailTimes is Fail limited to the next n requests.
func (s *Server) FailTimes(method, pattern string, status int, detail string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[routeKey(method, pattern)] = &failure{status: status, detail: detail, times: n}
}

// Recover removes an injected failure.
func (s *Server) Recover(method, pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, routeKey(method, pattern))
}

// Hold makes requests to the route wait until the returned release func is
// called. Requests already waiting are released too.
func (s *Server) Hold(method, pattern string) (release func()) {
	key := routeKey(method, pattern)
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[key] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[key] == gate {
				delete(s.gates, key)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Hits returns how many requests reached the route.
func (s *Server) Hits(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[routeKey(method, pattern)]
}

// LastQuery returns the query string of the latest request to the route.
func (s *Server) LastQuery(method, pattern string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[routeKey(method, pattern)]
}

// SetHealthy switches /health between 200 and 503.
func (s *Server) SetHealthy(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = ok
}

// ID returns the identifier the service uses for a relative path.
func ID(rel string) string {
	return base64.StdEncoding.EncodeToString([]byte(rel))
}

func decodeID(id string) (string, bool) {
	data, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Mkdir creates a container and its missing parents, returning its ID.
func (s *Server) Mkdir(rel string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mkdirLocked(rel)
	return ID(rel)
}

func (s *Server) mkdirLocked(rel string) {
	parts := strings.Split(rel, "/")
	for i := range parts {
		p := strings.Join(parts[:i+1], "/")
		if _, ok := s.nodes[p]; !ok {
			now := s.tick()
			s.nodes[p] = &node{rel: p, created: now, modified: now}
		}
	}
}

// WriteFile creates a document, creating its parents, and returns its ID.
func (s *Server) WriteFile(rel, content string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := path.Dir(rel); dir != "." {
		s.mkdirLocked(dir)
	}
	now := s.tick()
	s.nodes[rel] = &node{rel: rel, isFile: true, content: []byte(content), created: now, modified: now}
	return ID(rel)
}

// CreateTag registers a tag definition directly.
func (s *Server) CreateTag(name, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[name] = color
}

// Tag assigns tags to an item directly, creating unknown tags.
func (s *Server) Tag(id string, tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tags {
		if _, ok := s.tags[t]; !ok {
			s.tags[t] = "#3b82f6"
		}
		if !contains(s.itemTags[id], t) {
			s.itemTags[id] = append(s.itemTags[id], t)
		}
	}
}

// Favorite marks items as favorites directly.
func (s *Server) Favorite(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if !contains(s.favorites, id) {
			s.favorites = append(s.favorites, id)
		}
	}
}

// FavoriteIDs returns the stored favorite IDs.
func (s *Server) FavoriteIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.favorites...)
}

// ItemTagNames returns the stored tags of an item.
func (s *Server) ItemTagNames(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.itemTags[id]...)
}

// TagCount returns the number of items carrying tag.
func (s *Server) TagCount(tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tagCountLocked(tag)
}

// Exists reports whether rel is stored.
func (s *Server) Exists(rel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[rel]
	return ok
}

func (s *Server) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Server) tagCountLocked(tag string) int {
	n := 0
	for _, tags := range s.itemTags {
		if contains(tags, tag) {
			n++
		}
	}
	return n
}

func (s *Server) childrenLocked(parent string) []*node {
	var out []*node
	for rel, n := range s.nodes {
		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}
		if dir == parent {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].isFile != out[j].isFile {
			return !out[i].isFile
		}
		return strings.ToLower(path.Base(out[i].rel)) < strings.ToLower(path.Base(out[j].rel))
	})
	return out
}

func (s *Server) itemLocked(n *node) map[string]any {
	depth := strings.Count(n.rel, "/")
	kind := "document"
	if !n.isFile {
		kind = kindsByDepth[min(depth, len(kindsByDepth)-1)]
	}
	item := map[string]any{
		"id":          ID(n.rel),
		"name":        path.Base(n.rel),
		"type":        kind,
		"path":        n.rel,
		"created_at":  n.created.Format("2006-01-02T15:04:05.000000"),
		"modified_at": n.modified.Format("2006-01-02T15:04:05.000000"),
	}
	if n.isFile {
		ext := strings.TrimPrefix(path.Ext(n.rel), ".")
		item["size"] = len(n.content)
		if ext == "" {
			item["extension"] = nil
		} else {
			item["extension"] = ext
		}
		if mt := mime.TypeByExtension(path.Ext(n.rel)); mt != "" {
			item["mime_type"] = mt
		} else {
			item["mime_type"] = nil
		}
		item["tags"] = append([]string{}, s.itemTags[ID(n.rel)]...)
	} else {
		item["children_count"] = len(s.childrenLocked(n.rel))
	}
	return item
}

// lookup resolves the {id} parameter to a stored node.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, param string) (*node, string, bool) {
	id := urlParam(r, param)
	rel, ok := decodeID(id)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, id, false
	}
	n, ok := s.nodes[rel]
	if !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return nil, id, false
	}
	return n, id, true
}

func urlParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if un, err := url.PathUnescape(v); err == nil {
		return un
	}
	return v
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.healthy
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ged_root_exists": true})
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	maxDepth := 4
	if v := r.URL.Query().Get("max_depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > 10 {
			writeError(w, http.StatusUnprocessableEntity, "max_depth must be between 1 and 10")
			return
		}
		maxDepth = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var build func(n *node, depth int) map[string]any
	build = func(n *node, depth int) map[string]any {
		out := map[string]any{
			"id":   ID(n.rel),
			"name": path.Base(n.rel),
			"type": kindsByDepth[min(depth, len(kindsByDepth)-1)],
			"path": n.rel,
		}
		if depth < maxDepth {
			var children []map[string]any
			for _, c := range s.childrenLocked(n.rel) {
				if !c.isFile {
					children = append(children, build(c, depth+1))
				}
			}
			if len(children) > 0 {
				out["children"] = children
			}
		}
		return out
	}

	nodes := []map[string]any{}
	for _, c := range s.childrenLocked("") {
		if !c.isFile {
			nodes = append(nodes, build(c, 0))
		}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) listCabinets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []map[string]any{}
	for _, c := range s.childrenLocked("") {
		if !c.isFile {
			items = append(items, s.itemLocked(c))
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) browse(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	if n.isFile {
		writeError(w, http.StatusBadRequest, "item is not a container")
		return
	}
	items := []map[string]any{}
	for _, c := range s.childrenLocked(n.rel) {
		items = append(items, s.itemLocked(c))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) item(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.itemLocked(n))
}

type nameRequest struct {
	Name    string   `json:"name"`
	NewName string   `json:"new_name"`
	DestID  string   `json:"destination_id"`
	Color   string   `json:"color"`
	Tags    []string `json:"tags"`
}

func decodeBody(w http.ResponseWriter, r *http.Request) (nameRequest, bool) {
	var body nameRequest
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "expected application/json")
		return body, false
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return body, false
	}
	return body, true
}

func validName(name string) bool {
	return name != "" && !strings.Contains(name, "/") && name != "." && name != ".."
}

func (s *Server) createCabinet(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if !validName(body.Name) {
		writeError(w, http.StatusUnprocessableEntity, "invalid name")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[body.Name]; exists {
		writeError(w, http.StatusBadRequest, "a cabinet with this name already exists")
		return
	}
	s.mkdirLocked(body.Name)
	writeJSON(w, http.StatusOK, s.itemLocked(s.nodes[body.Name]))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, _, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	if !validName(body.Name) {
		writeError(w, http.StatusUnprocessableEntity, "invalid name")
		return
	}
	rel := parent.rel + "/" + body.Name
	if _, exists := s.nodes[rel]; exists {
		writeError(w, http.StatusBadRequest, "an item with this name already exists")
		return
	}
	s.mkdirLocked(rel)
	writeJSON(w, http.StatusOK, s.itemLocked(s.nodes[rel]))
}

// relocateLocked moves n and its subtree to newRel, carrying tags and
// favorites over to the new IDs.
func (s *Server) relocateLocked(n *node, newRel string) {
	oldRel := n.rel
	var moved []*node
	for rel, c := range s.nodes {
		if rel == oldRel || strings.HasPrefix(rel, oldRel+"/") {
			moved = append(moved, c)
		}
	}
	for _, c := range moved {
		oldID := ID(c.rel)
		delete(s.nodes, c.rel)
		c.rel = newRel + strings.TrimPrefix(c.rel, oldRel)
		c.modified = s.tick()
		s.nodes[c.rel] = c
		newID := ID(c.rel)
		if tags, ok := s.itemTags[oldID]; ok {
			delete(s.itemTags, oldID)
			s.itemTags[newID] = tags
		}
		for i, f := range s.favorites {
			if f == oldID {
				s.favorites[i] = newID
			}
		}
	}
}

func (s *Server) rename(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	if !validName(body.NewName) {
		writeError(w, http.StatusUnprocessableEntity, "invalid name")
		return
	}
	newRel := body.NewName
	if dir := path.Dir(n.rel); dir != "." {
		newRel = dir + "/" + body.NewName
	}
	if _, exists := s.nodes[newRel]; exists {
		writeError(w, http.StatusBadRequest, "an item with this name already exists")
		return
	}
	s.relocateLocked(n, newRel)
	writeJSON(w, http.StatusOK, s.itemLocked(n))
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	destRel, ok := decodeID(body.DestID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid destination id")
		return
	}
	dest, ok := s.nodes[destRel]
	if !ok {
		writeError(w, http.StatusNotFound, "destination not found")
		return
	}
	if dest.isFile {
		writeError(w, http.StatusBadRequest, "destination must be a container")
		return
	}
	if destRel == n.rel || strings.HasPrefix(destRel, n.rel+"/") {
		writeError(w, http.StatusBadRequest, "cannot move an item into itself")
		return
	}
	newRel := destRel + "/" + path.Base(n.rel)
	if _, exists := s.nodes[newRel]; exists {
		writeError(w, http.StatusBadRequest, "an item with this name already exists in the destination")
		return
	}
	s.relocateLocked(n, newRel)
	writeJSON(w, http.StatusOK, s.itemLocked(n))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, id, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	oldRel := n.rel
	for rel := range s.nodes {
		if rel == oldRel || strings.HasPrefix(rel, oldRel+"/") {
			delete(s.nodes, rel)
			delete(s.itemTags, ID(rel))
			s.favorites = remove(s.favorites, ID(rel))
		}
	}
	delete(s.itemTags, id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "item deleted", "path": oldRel})
}

func (s *Server) upload(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "expected a multipart form")
			return
		}
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("field %q is required", field))
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		parent, _, ok := s.lookup(w, r, "id")
		if !ok {
			return
		}

		var items []map[string]any
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				continue
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				continue
			}
			rel := s.freeNameLocked(parent.rel, h.Filename)
			now := s.tick()
			s.nodes[rel] = &node{rel: rel, isFile: true, content: data, created: now, modified: now}
			items = append(items, s.itemLocked(s.nodes[rel]))
		}

		if field == "file" {
			if len(items) == 0 {
				writeError(w, http.StatusInternalServerError, "upload failed")
				return
			}
			writeJSON(w, http.StatusOK, items[0])
			return
		}
		if items == nil {
			items = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// freeNameLocked appends _N to the stem until the name is unused.
func (s *Server) freeNameLocked(dir, name string) string {
	rel := dir + "/" + name
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, exists := s.nodes[rel]; !exists {
			return rel
		}
		rel = fmt.Sprintf("%s/%s_%d%s", dir, stem, i, ext)
	}
}

func (s *Server) content(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	if !n.isFile {
		writeError(w, http.StatusBadRequest, "item is not a file")
		return
	}
	mt := mime.TypeByExtension(path.Ext(n.rel))
	if mt == "" {
		mt = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mt)
	_, _ = w.Write(n.content)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusUnprocessableEntity, "q is required")
		return
	}
	kind := r.URL.Query().Get("type")
	ext := strings.ToLower(r.URL.Query().Get("extension"))

	s.mu.Lock()
	defer s.mu.Unlock()

	results := []map[string]any{}
	for _, n := range s.nodes {
		if !strings.Contains(strings.ToLower(path.Base(n.rel)), q) {
			continue
		}
		item := s.itemLocked(n)
		if kind != "" && item["type"] != kind {
			continue
		}
		if ext != "" {
			e, _ := item["extension"].(string)
			if strings.ToLower(e) != ext {
				continue
			}
		}
		item["match_type"] = "filename"
		results = append(results, item)
	}
	sort.Slice(results, func(i, j int) bool {
		di, dj := results[i]["type"] == "document", results[j]["type"] == "document"
		if di != dj {
			return !di
		}
		return strings.ToLower(results[i]["name"].(string)) < strings.ToLower(results[j]["name"].(string))
	})
	if len(results) > 100 {
		results = results[:100]
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make([]int, 4)
	docs, size := 0, 0
	exts := map[string]int{}
	for _, n := range s.nodes {
		if n.isFile {
			docs++
			size += len(n.content)
			ext := strings.ToLower(strings.TrimPrefix(path.Ext(n.rel), "."))
			if ext == "" {
				ext = "none"
			}
			exts[ext]++
			continue
		}
		counts[min(strings.Count(n.rel, "/"), 3)]++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_armoires":  counts[0],
		"total_rayons":    counts[1],
		"total_classeurs": counts[2],
		"total_dossiers":  counts[3],
		"total_documents": docs,
		"total_size":      size,
		"extensions":      exts,
	})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for name, color := range s.tags {
		out = append(out, map[string]any{"name": name, "color": color, "count": s.tagCountLocked(name)})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]["name"].(string)) < strings.ToLower(out[j]["name"].(string))
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if body.Color == "" {
		body.Color = "#3b82f6"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tags[body.Name]; exists {
		writeError(w, http.StatusBadRequest, "this tag already exists")
		return
	}
	s.tags[body.Name] = body.Color
	writeJSON(w, http.StatusOK, map[string]any{"name": body.Name, "color": body.Color, "count": 0})
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "tag")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tags[name]; !ok {
		writeError(w, http.StatusNotFound, "tag not found")
		return
	}
	delete(s.tags, name)
	for id, tags := range s.itemTags {
		s.itemTags[id] = remove(tags, name)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "tag deleted"})
}

func (s *Server) tagItems(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "tag")
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []map[string]any{}
	ids := make([]string, 0, len(s.itemTags))
	for id := range s.itemTags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !contains(s.itemTags[id], name) {
			continue
		}
		rel, ok := decodeID(id)
		if !ok {
			continue
		}
		if n, ok := s.nodes[rel]; ok {
			items = append(items, s.itemLocked(n))
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getItemTags(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]string{}, s.itemTags[id]...))
}

func (s *Server) setItemTags(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, id, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	tags := append([]string{}, body.Tags...)
	s.itemTags[id] = tags
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) addItemTag(w http.ResponseWriter, r *http.Request) {
	tag := urlParam(r, "tag")
	s.mu.Lock()
	defer s.mu.Unlock()
	_, id, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	if _, exists := s.tags[tag]; !exists {
		s.tags[tag] = "#3b82f6"
	}
	if !contains(s.itemTags[id], tag) {
		s.itemTags[id] = append(s.itemTags[id], tag)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": append([]string{}, s.itemTags[id]...)})
}

func (s *Server) removeItemTag(w http.ResponseWriter, r *http.Request) {
	id, tag := urlParam(r, "id"), urlParam(r, "tag")
	s.mu.Lock()
	defer s.mu.Unlock()
	if tags, ok := s.itemTags[id]; ok {
		s.itemTags[id] = remove(tags, tag)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": append([]string{}, s.itemTags[id]...)})
}

func (s *Server) favoritesLocked() []map[string]any {
	items := []map[string]any{}
	var valid []string
	for _, id := range s.favorites {
		rel, ok := decodeID(id)
		if !ok {
			continue
		}
		n, ok := s.nodes[rel]
		if !ok || !n.isFile {
			continue
		}
		valid = append(valid, id)
		items = append(items, s.itemLocked(n))
	}
	s.favorites = valid
	return items
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.favoritesLocked())
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, id, ok := s.lookup(w, r, "id")
	if !ok {
		return
	}
	if !contains(s.favorites, id) {
		s.favorites = append(s.favorites, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "favorite added", "favorites": s.favoritesLocked()})
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = remove(s.favorites, id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "favorite removed", "favorites": s.favoritesLocked()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
