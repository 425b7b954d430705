// Package search implements the search and tag-filter overlay that
// temporarily replaces hierarchical browsing with a flat result list.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

const (
	// DefaultDebounce is the delay between the last keystroke and the
	// search request.
	DefaultDebounce = 300 * time.Millisecond
	// MinQueryLength is the shortest query that triggers a search.
	MinQueryLength = 2
)

// Mode tells a text search from a tag filter.
type Mode string

const (
	ModeNone Mode = ""
	ModeText Mode = "search"
	ModeTag  Mode = "tag"
)

// Searcher runs the queries.
type Searcher interface {
	Search(ctx context.Context, query string, filters gateway.SearchFilters) ([]models.Item, error)
	ItemsByTag(ctx context.Context, tag string) ([]models.Item, error)
}

// State is a snapshot of the overlay.
type State struct {
	Query   string
	Mode    Mode
	Tag     string
	Filters gateway.SearchFilters
	Results []models.Item
	Active  bool
	Loading bool
	Error   string
}

// IsFilter reports whether the results come from a tag filter.
func (s State) IsFilter() bool {
	return s.Mode == ModeTag
}

// Label is the heading a UI shows above the results.
func (s State) Label() string {
	switch s.Mode {
	case ModeTag:
		return fmt.Sprintf("Tag: %s", s.Tag)
	case ModeText:
		return fmt.Sprintf("Search: %s", s.Query)
	}
	return ""
}

// Overlay debounces text queries and holds the current result list. It
// never touches the navigation selection.
type Overlay struct {
	searcher Searcher
	debounce time.Duration
	ctx      context.Context
	logger   *logrus.Entry
	onChange func()

	mu      sync.Mutex
	state   State
	timer   *time.Timer
	pending bool
	// seq identifies the latest scheduled timer fire.
	seq uint64
	gen uint64
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithDebounce sets the keystroke delay.
func WithDebounce(d time.Duration) Option {
	return func(o *Overlay) { o.debounce = d }
}

// WithContext sets the context used by debounced searches.
func WithContext(ctx context.Context) Option {
	return func(o *Overlay) { o.ctx = ctx }
}

// WithOnChange registers a callback run after every state change.
func WithOnChange(fn func()) Option {
	return func(o *Overlay) { o.onChange = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(o *Overlay) { o.logger = l }
}

// NewOverlay creates an inactive overlay.
func NewOverlay(searcher Searcher, opts ...Option) *Overlay {
	o := &Overlay{searcher: searcher, debounce: DefaultDebounce, ctx: context.Background()}
	for _, opt := range opts {
		opt(o)
	}
	if o.debounce <= 0 {
		o.debounce = DefaultDebounce
	}
	if o.logger == nil {
		o.logger = logging.NewLogger("ged.search")
	}
	return o
}

// Snapshot returns the current state.
func (o *Overlay) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Active reports whether results currently replace the browser.
func (o *Overlay) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Active
}

func (o *Overlay) notify() {
	if o.onChange != nil {
		o.onChange()
	}
}

// SetFilters sets the kind and extension filters applied to text searches.
func (o *Overlay) SetFilters(f gateway.SearchFilters) {
	o.mu.Lock()
	o.state.Filters = f
	o.mu.Unlock()
	o.notify()
}

// SetQuery records the query text. Queries shorter than MinQueryLength
// clear the results and deactivate the overlay; longer ones schedule a
// search once the debounce delay passes without another call. Changing the
// query drops the results of any search still in flight.
func (o *Overlay) SetQuery(q string) {
	o.mu.Lock()
	changed := o.state.Query != q
	o.state.Query = q
	if utf8.RuneCountInString(strings.TrimSpace(q)) < MinQueryLength {
		o.stopTimerLocked()
		o.gen++
		o.resetResultsLocked()
		o.mu.Unlock()
		o.notify()
		return
	}
	if changed {
		o.gen++
	}
	o.pending = true
	if o.timer != nil {
		o.timer.Stop()
	}
	o.seq++
	seq := o.seq
	o.timer = time.AfterFunc(o.debounce, func() { o.onTimer(seq) })
	o.mu.Unlock()
	o.notify()
}

// onTimer runs the debounced search for the fire scheduled as seq. A fire
// that lost the race with a later SetQuery is ignored.
func (o *Overlay) onTimer(seq uint64) {
	o.mu.Lock()
	if !o.pending || seq != o.seq {
		o.mu.Unlock()
		return
	}
	o.pending = false
	q := o.state.Query
	o.mu.Unlock()

	if err := o.Search(o.ctx, q); err != nil {
		o.logger.WithError(err).WithField("query", q).Debug("Debounced search failed")
	}
}

// Flush runs a pending debounced search immediately.
func (o *Overlay) Flush(ctx context.Context) error {
	o.mu.Lock()
	if !o.pending {
		o.mu.Unlock()
		return nil
	}
	o.stopTimerLocked()
	q := o.state.Query
	o.mu.Unlock()
	return o.Search(ctx, q)
}

// Search runs a text search now and activates the overlay. A pending
// debounced search is dropped.
func (o *Overlay) Search(ctx context.Context, q string) error {
	q = strings.TrimSpace(q)
	o.mu.Lock()
	o.stopTimerLocked()
	o.gen++
	token := o.gen
	filters := o.state.Filters
	o.state.Query = q
	o.state.Mode = ModeText
	o.state.Tag = ""
	o.state.Active = true
	o.state.Loading = true
	o.state.Error = ""
	o.mu.Unlock()
	o.notify()

	o.logger.WithField("query", q).Debug("Searching")
	results, err := o.searcher.Search(ctx, q, filters)
	return o.finish(token, results, err, fmt.Sprintf("search %q", q))
}

// FilterByTag lists the items carrying tag and activates the overlay with
// the synthetic query "tag:<name>".
func (o *Overlay) FilterByTag(ctx context.Context, tag string) error {
	o.mu.Lock()
	o.stopTimerLocked()
	o.gen++
	token := o.gen
	o.state.Query = models.TagFilterPrefix + tag
	o.state.Mode = ModeTag
	o.state.Tag = tag
	o.state.Active = true
	o.state.Loading = true
	o.state.Error = ""
	o.mu.Unlock()
	o.notify()

	results, err := o.searcher.ItemsByTag(ctx, tag)
	return o.finish(token, results, err, fmt.Sprintf("filter by tag %q", tag))
}

// finish stores a completed query unless a later one superseded it.
func (o *Overlay) finish(token uint64, results []models.Item, err error, what string) error {
	o.mu.Lock()
	if o.gen != token {
		o.mu.Unlock()
		if err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		return nil
	}
	o.state.Loading = false
	if err != nil {
		o.state.Results = nil
		o.state.Error = gateway.Message(err)
	} else {
		o.state.Results = results
	}
	o.mu.Unlock()
	o.notify()

	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// Clear stops any pending search and deactivates the overlay.
func (o *Overlay) Clear() {
	o.mu.Lock()
	o.stopTimerLocked()
	o.gen++
	o.state.Query = ""
	o.resetResultsLocked()
	o.mu.Unlock()
	o.notify()
}

// Close stops the debounce timer.
func (o *Overlay) Close() {
	o.mu.Lock()
	o.stopTimerLocked()
	o.mu.Unlock()
}

func (o *Overlay) stopTimerLocked() {
	o.pending = false
	if o.timer != nil {
		o.timer.Stop()
	}
}

func (o *Overlay) resetResultsLocked() {
	o.state.Mode = ModeNone
	o.state.Tag = ""
	o.state.Results = nil
	o.state.Active = false
	o.state.Loading = false
	o.state.Error = ""
}
