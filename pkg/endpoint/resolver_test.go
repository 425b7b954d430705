package endpoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-ged/internal/logging"
)

type memOverrides struct {
	urls []string
}

func (m *memOverrides) EndpointOverrides() ([]string, error) { return m.urls, nil }
func (m *memOverrides) SetEndpointOverrides(urls []string) error {
	m.urls = append([]string(nil), urls...)
	return nil
}
func (m *memOverrides) ClearEndpointOverrides() error {
	m.urls = nil
	return nil
}

func healthServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"ok","ged_root_exists":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func slowServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveSkipsUnresponsiveCandidate(t *testing.T) {
	a := slowServer(t)
	b := healthServer(t, http.StatusOK, nil)

	r := NewResolver(Options{
		Injected:     []string{a.URL, b.URL + "/"},
		ProbeTimeout: 50 * time.Millisecond,
		Logger:       logging.Discard(),
	})

	got := r.Resolve(context.Background())
	assert.Equal(t, b.URL, got)
	assert.True(t, r.Confirmed())

	active, ok := r.Active()
	assert.True(t, ok)
	assert.Equal(t, b.URL, active)
}

func TestResolveFallsBackToFirstCandidate(t *testing.T) {
	down := healthServer(t, http.StatusServiceUnavailable, nil)

	r := NewResolver(Options{
		Injected:     []string{down.URL, "http://127.0.0.1:1"},
		ProbeTimeout: 100 * time.Millisecond,
		Logger:       logging.Discard(),
	})

	assert.Equal(t, down.URL, r.Resolve(context.Background()))
	assert.False(t, r.Confirmed())

	_, ok := r.Active()
	assert.True(t, ok, "degraded default is cached until reset")
}

func TestResolveIsIdempotent(t *testing.T) {
	var hits int32
	srv := healthServer(t, http.StatusOK, &hits)

	r := NewResolver(Options{Injected: []string{srv.URL}, Logger: logging.Discard()})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Resolve(context.Background())
		}()
	}
	wg.Wait()
	r.Resolve(context.Background())

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, r.Rounds())

	r.Reset()
	r.Resolve(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 2, r.Rounds())
}

func TestCandidatePriority(t *testing.T) {
	store := &memOverrides{}
	r := NewResolver(Options{
		Overrides: store,
		Injected:  []string{"http://injected:8000"},
		Logger:    logging.Discard(),
	})

	c, src := r.Candidates()
	assert.Equal(t, SourceInjected, src)
	assert.Equal(t, []string{"http://injected:8000"}, c)

	require.NoError(t, r.SetOverrides([]string{"http://mine:8000/", "http://mine:8000"}))
	c, src = r.Candidates()
	assert.Equal(t, SourceOverride, src)
	assert.Equal(t, []string{"http://mine:8000"}, c)

	require.NoError(t, r.ClearOverrides())
	_, src = r.Candidates()
	assert.Equal(t, SourceInjected, src)

	plain := NewResolver(Options{Logger: logging.Discard()})
	c, src = plain.Candidates()
	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, DefaultCandidates, c)
}

func TestSetOverridesResetsResolution(t *testing.T) {
	first := healthServer(t, http.StatusOK, nil)
	second := healthServer(t, http.StatusOK, nil)

	r := NewResolver(Options{Overrides: &memOverrides{urls: []string{first.URL}}, Logger: logging.Discard()})
	assert.Equal(t, first.URL, r.Resolve(context.Background()))

	require.NoError(t, r.SetOverrides([]string{second.URL}))
	_, ok := r.Active()
	assert.False(t, ok)
	assert.Equal(t, second.URL, r.Resolve(context.Background()))
}

func TestSetOverridesRejectsBadURL(t *testing.T) {
	r := NewResolver(Options{Overrides: &memOverrides{}, Logger: logging.Discard()})
	assert.Error(t, r.SetOverrides([]string{"ftp://nope"}))
}

func TestProbeAllLeavesCacheAlone(t *testing.T) {
	up := healthServer(t, http.StatusOK, nil)
	down := healthServer(t, http.StatusInternalServerError, nil)

	r := NewResolver(Options{Injected: []string{down.URL, up.URL}, Logger: logging.Discard()})
	results := r.ProbeAll(context.Background())

	require.Len(t, results, 2)
	assert.False(t, results[0].OK)
	assert.Equal(t, http.StatusInternalServerError, results[0].Status)
	assert.True(t, results[1].OK)

	_, ok := r.Active()
	assert.False(t, ok)
	assert.Equal(t, down.URL, r.Current())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t,
		[]string{"http://a:1", "http://b:2"},
		SplitList(" http://a:1/, http://b:2 ;http://a:1"),
	)
	assert.Empty(t, SplitList(""))
}
