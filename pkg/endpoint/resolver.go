// Package endpoint discovers which document service URL the client talks to.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/internal/logging"
)

// DefaultProbeTimeout bounds each health probe.
const DefaultProbeTimeout = 2 * time.Second

// DefaultCandidates is used when neither an override nor an injected list
// is available.
var DefaultCandidates = []string{
	"http://192.168.1.100:8000",
	"http://localhost:8000",
}

// OverrideStore persists the user-configured candidate list.
type OverrideStore interface {
	EndpointOverrides() ([]string, error)
	SetEndpointOverrides(urls []string) error
	ClearEndpointOverrides() error
}

// Options configures a Resolver. Zero values select the defaults.
type Options struct {
	Overrides    OverrideStore
	Injected     []string
	Fallback     []string
	ProbeTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *logrus.Entry
}

// Source names where the candidate list came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceInjected Source = "injected"
	SourceFallback Source = "fallback"
)

// ProbeResult is the outcome of probing one candidate.
type ProbeResult struct {
	URL     string        `json:"url" yaml:"url"`
	OK      bool          `json:"ok" yaml:"ok"`
	Status  int           `json:"status,omitempty" yaml:"status,omitempty"`
	Latency time.Duration `json:"latency" yaml:"latency"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Resolver picks the active endpoint once and caches it until Reset.
// Resolve never fails: when nothing answers, the first candidate is used
// as a degraded default and requests surface the connectivity problem.
type Resolver struct {
	overrides    OverrideStore
	injected     []string
	fallback     []string
	probeTimeout time.Duration
	httpClient   *http.Client
	logger       *logrus.Entry

	// round serializes probe rounds so concurrent callers share one.
	round sync.Mutex

	mu        sync.RWMutex
	active    string
	resolved  bool
	confirmed bool
	rounds    int
}

// NewResolver creates a resolver from opts.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		overrides:    opts.Overrides,
		injected:     normalizeAll(opts.Injected),
		fallback:     normalizeAll(opts.Fallback),
		probeTimeout: opts.ProbeTimeout,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
	}
	if len(r.fallback) == 0 {
		r.fallback = append([]string(nil), DefaultCandidates...)
	}
	if r.probeTimeout <= 0 {
		r.probeTimeout = DefaultProbeTimeout
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{}
	}
	if r.logger == nil {
		r.logger = logging.NewLogger("ged.endpoint")
	}
	return r
}

// Candidates returns the ordered candidate list and where it came from.
// Only the highest-priority non-empty source is used.
func (r *Resolver) Candidates() ([]string, Source) {
	if r.overrides != nil {
		urls, err := r.overrides.EndpointOverrides()
		if err != nil {
			r.logger.WithError(err).Warn("Failed to read endpoint overrides")
		} else if urls = normalizeAll(urls); len(urls) > 0 {
			return urls, SourceOverride
		}
	}
	if len(r.injected) > 0 {
		return append([]string(nil), r.injected...), SourceInjected
	}
	return append([]string(nil), r.fallback...), SourceFallback
}

// Resolve returns the active endpoint, probing the candidates on first use.
func (r *Resolver) Resolve(ctx context.Context) string {
	if active, ok := r.Active(); ok {
		return active
	}

	r.round.Lock()
	defer r.round.Unlock()

	// Another caller may have finished a round while we waited.
	if active, ok := r.Active(); ok {
		return active
	}

	candidates, source := r.Candidates()
	r.mu.Lock()
	r.rounds++
	r.mu.Unlock()

	log := r.logger.WithField("source", source)
	for _, c := range candidates {
		res := r.probe(ctx, c)
		if res.OK {
			log.WithFields(logrus.Fields{"url": c, "latency": res.Latency}).Info("Endpoint resolved")
			r.set(c, true)
			return c
		}
		log.WithFields(logrus.Fields{"url": c, "error": res.Error, "status": res.Status}).Debug("Endpoint probe failed")
	}

	if len(candidates) == 0 {
		return ""
	}
	if ctx.Err() != nil {
		// Caller gave up; do not pin a degraded default for everyone else.
		return candidates[0]
	}
	log.WithField("url", candidates[0]).Warn("No endpoint answered the health probe, using degraded default")
	r.set(candidates[0], false)
	return candidates[0]
}

func (r *Resolver) set(url string, confirmed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = url
	r.resolved = true
	r.confirmed = confirmed
}

// Active returns the cached endpoint, if any.
func (r *Resolver) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.resolved
}

// Confirmed reports whether the cached endpoint answered its probe.
func (r *Resolver) Confirmed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved && r.confirmed
}

// Current returns the active endpoint without probing, or the first
// candidate when nothing has been resolved yet.
func (r *Resolver) Current() string {
	if active, ok := r.Active(); ok {
		return active
	}
	candidates, _ := r.Candidates()
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

// Rounds returns how many probe rounds have run.
func (r *Resolver) Rounds() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rounds
}

// Reset forgets the active endpoint so the next Resolve probes again.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ""
	r.resolved = false
	r.confirmed = false
}

// SetOverrides persists a user candidate list and resets resolution.
func (r *Resolver) SetOverrides(urls []string) error {
	if r.overrides == nil {
		return errors.New("no override store configured")
	}
	urls = normalizeAll(urls)
	for _, u := range urls {
		if err := validateURL(u); err != nil {
			return err
		}
	}
	if err := r.overrides.SetEndpointOverrides(urls); err != nil {
		return fmt.Errorf("save endpoint overrides: %w", err)
	}
	r.Reset()
	return nil
}

// ClearOverrides removes the user candidate list and resets resolution.
func (r *Resolver) ClearOverrides() error {
	if r.overrides == nil {
		return nil
	}
	if err := r.overrides.ClearEndpointOverrides(); err != nil {
		return fmt.Errorf("clear endpoint overrides: %w", err)
	}
	r.Reset()
	return nil
}

// ProbeAll probes every candidate without touching the cached endpoint.
func (r *Resolver) ProbeAll(ctx context.Context) []ProbeResult {
	candidates, _ := r.Candidates()
	results := make([]ProbeResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, r.probe(ctx, c))
	}
	return results
}

func (r *Resolver) probe(ctx context.Context, base string) ProbeResult {
	res := ProbeResult{URL: base}
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", http.NoBody)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp, err := r.httpClient.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	res.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.OK {
		res.Error = http.StatusText(resp.StatusCode)
	}
	return res
}

// Normalize trims whitespace and trailing slashes from a base URL.
func Normalize(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

func normalizeAll(urls []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, u := range urls {
		u = Normalize(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func validateURL(u string) error {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("invalid endpoint %q: must start with http:// or https://", u)
	}
	return nil
}

// SplitList parses a comma or whitespace separated URL list, as found in
// environment variables.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	return normalizeAll(fields)
}
