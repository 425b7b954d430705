// Package service wires the document store client together: endpoint
// resolution, the gateway, navigation, search, favorites and tags.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/endpoint"
	"github.com/mattsolo1/grove-ged/pkg/favorites"
	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/localstate"
	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/navigation"
	"github.com/mattsolo1/grove-ged/pkg/search"
	"github.com/mattsolo1/grove-ged/pkg/tags"
)

// Service is the application state behind the CLI and the TUI.
type Service struct {
	Config    *Config
	State     *localstate.Store
	Resolver  *endpoint.Resolver
	Client    *gateway.Client
	Nav       *navigation.Store
	Search    *search.Overlay
	Favorites *favorites.Coordinator
	Tags      *tags.Registry
	Logger    *logrus.Entry

	validate *validator.Validate
	cancel   context.CancelFunc

	mu       sync.Mutex
	conn     Connection
	ui       UI
	onChange func()
}

// Config holds service configuration
type Config struct {
	DataDir string
	// APIURLs are the candidate endpoints injected at runtime. They are used
	// when no override is stored.
	APIURLs        []string
	ProbeTimeout   time.Duration
	SearchDebounce time.Duration
	TagCacheSize   int
	TagCacheTTL    time.Duration
}

type newOptions struct {
	httpClient *http.Client
	logger     *logrus.Entry
	onChange   func()
	fallback   []string
}

// Option configures New.
type Option func(*newOptions)

// WithHTTPClient sets the HTTP client used for probes and requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *newOptions) { o.httpClient = hc }
}

// WithLogger sets the base logger.
func WithLogger(l *logrus.Entry) Option {
	return func(o *newOptions) { o.logger = l }
}

// WithOnChange registers a callback run after any state change.
func WithOnChange(fn func()) Option {
	return func(o *newOptions) { o.onChange = fn }
}

// WithFallback replaces the built-in candidate list.
func WithFallback(urls []string) Option {
	return func(o *newOptions) { o.fallback = urls }
}

// New opens local state in config.DataDir and builds the components. Nothing
// is fetched until Connect.
func New(config *Config, opts ...Option) (*Service, error) {
	o := &newOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewLogger("ged.service")
	}

	state, err := localstate.Open(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	s := &Service{
		Config:   config,
		State:    state,
		Logger:   o.logger,
		validate: newValidator(),
		conn:     Connection{State: ConnChecking},
		onChange: o.onChange,
	}

	s.Resolver = endpoint.NewResolver(endpoint.Options{
		Overrides:    state,
		Injected:     config.APIURLs,
		Fallback:     o.fallback,
		ProbeTimeout: config.ProbeTimeout,
		HTTPClient:   o.httpClient,
		Logger:       o.logger.WithField("component", "ged.endpoint"),
	})

	clientOpts := []gateway.Option{gateway.WithLogger(o.logger.WithField("component", "ged.gateway"))}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, gateway.WithHTTPClient(o.httpClient))
	}
	s.Client = gateway.New(s.Resolver, clientOpts...)

	s.Tags = tags.NewRegistry(s.Client, tags.Options{
		CacheSize: config.TagCacheSize,
		CacheTTL:  config.TagCacheTTL,
		Logger:    o.logger.WithField("component", "ged.tags"),
		OnChange:  s.notify,
	})

	s.Nav = navigation.NewStore(s.Client,
		navigation.WithTagLoader(s.Tags),
		navigation.WithOnChange(s.notify),
		navigation.WithLogger(o.logger.WithField("component", "ged.navigation")),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.Search = search.NewOverlay(s.Client,
		search.WithDebounce(config.SearchDebounce),
		search.WithContext(ctx),
		search.WithOnChange(s.notify),
		search.WithLogger(o.logger.WithField("component", "ged.search")),
	)

	s.Favorites = favorites.New(s.Client, state, o.logger.WithField("component", "ged.favorites"))
	s.Favorites.OnChange(s.notify)

	return s, nil
}

// Close stops background work and closes the local state.
func (s *Service) Close() error {
	s.Search.Close()
	s.cancel()
	return s.State.Close()
}

// SetOnChange replaces the change callback. The callback may run on any
// goroutine, including the one that caused the change.
func (s *Service) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Service) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// View is everything a UI needs to draw one frame.
type View struct {
	Connection  Connection
	Nav         navigation.State
	Search      search.State
	Favorites   []models.Item
	Provisional bool
	Tags        []models.Tag
	UI          UI
}

// Snapshot returns the combined state of every component.
func (s *Service) Snapshot() View {
	s.mu.Lock()
	conn, ui := s.conn, s.ui
	s.mu.Unlock()
	return View{
		Connection:  conn,
		Nav:         s.Nav.Snapshot(),
		Search:      s.Search.Snapshot(),
		Favorites:   s.Favorites.Items(),
		Provisional: s.Favorites.Provisional(),
		Tags:        s.Tags.All(),
		UI:          ui,
	}
}

// Select selects item in the hierarchy. An active overlay is dismissed
// first, so picking a result lands in the normal browser.
func (s *Service) Select(ctx context.Context, item models.Item) error {
	if s.Search.Active() {
		s.Search.Clear()
	}
	return s.Nav.SelectItem(ctx, item)
}

// SelectCabinet selects a cabinet, or clears the selection when item is nil.
func (s *Service) SelectCabinet(ctx context.Context, item *models.Item) error {
	if s.Search.Active() {
		s.Search.Clear()
	}
	return s.Nav.Select(ctx, models.LevelCabinet, item)
}

// FilterByTag shows the items carrying tag in the overlay.
func (s *Service) FilterByTag(ctx context.Context, tag string) error {
	return s.Search.FilterByTag(ctx, tag)
}

// ToggleFavorite flips the favorite state of a document.
func (s *Service) ToggleFavorite(ctx context.Context, item models.Item) error {
	if !item.IsDocument() {
		return &ValidationError{Field: "item", Message: "only documents can be favorites"}
	}
	return s.Favorites.Toggle(ctx, item)
}

// MoveTargets returns the container tree used to pick a move destination.
func (s *Service) MoveTargets(ctx context.Context, maxDepth int) ([]models.TreeNode, error) {
	tree, err := s.Client.Tree(ctx, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("load move targets: %w", err)
	}
	return tree, nil
}
