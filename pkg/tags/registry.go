// Package tags caches the tag registry and per-item tag assignments. Counts
// always come from the service and are never adjusted locally.
package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

const (
	DefaultCacheSize = 512
	DefaultCacheTTL  = 10 * time.Minute
)

// ErrEmptyName is returned for a blank tag name.
var ErrEmptyName = errors.New("tag name is required")

// Service is the part of the gateway the registry needs.
type Service interface {
	Tags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, name, color string) (*models.Tag, error)
	DeleteTag(ctx context.Context, name string) error
	ItemTags(ctx context.Context, id string) ([]string, error)
	SetItemTags(ctx context.Context, id string, tags []string) ([]string, error)
	AddTagToItem(ctx context.Context, id, tag string) ([]string, error)
	RemoveTagFromItem(ctx context.Context, id, tag string) ([]string, error)
}

// Options configures a Registry.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Logger    *logrus.Entry
	OnChange  func()
}

// Registry holds the tag list and the per-item cache.
type Registry struct {
	svc      Service
	items    *expirable.LRU[string, []string]
	logger   *logrus.Entry
	onChange func()

	mu   sync.RWMutex
	tags []models.Tag
}

// NewRegistry creates an empty registry.
func NewRegistry(svc Service, opts Options) *Registry {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("ged.tags")
	}
	return &Registry{
		svc:      svc,
		items:    expirable.NewLRU[string, []string](opts.CacheSize, nil, opts.CacheTTL),
		logger:   opts.Logger,
		onChange: opts.OnChange,
	}
}

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}

// LoadAll replaces the registry with the service's list.
func (r *Registry) LoadAll(ctx context.Context) error {
	list, err := r.svc.Tags(ctx)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	r.mu.Lock()
	r.tags = append([]models.Tag(nil), list...)
	r.mu.Unlock()
	r.notify()
	return nil
}

// All returns the registry.
func (r *Registry) All() []models.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Tag(nil), r.tags...)
}

// Get returns the tag called name.
func (r *Registry) Get(name string) (models.Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tags {
		if t.Name == name {
			return t, true
		}
	}
	return models.Tag{}, false
}

// Color returns the tag's color, or the default for unknown tags.
func (r *Registry) Color(name string) string {
	if t, ok := r.Get(name); ok && t.Color != "" {
		return t.Color
	}
	return models.DefaultTagColor
}

// LoadForItem fetches the item's tags into the cache. On failure the cache
// holds an empty list for the item and the error is returned.
func (r *Registry) LoadForItem(ctx context.Context, id string) ([]string, error) {
	list, err := r.svc.ItemTags(ctx, id)
	if err != nil {
		r.items.Add(id, []string{})
		r.notify()
		return []string{}, fmt.Errorf("load tags of item: %w", err)
	}
	r.items.Add(id, list)
	r.notify()
	return append([]string(nil), list...), nil
}

// ForItem returns the cached tags of an item.
func (r *Registry) ForItem(id string) ([]string, bool) {
	list, ok := r.items.Get(id)
	if !ok {
		return nil, false
	}
	return append([]string(nil), list...), true
}

// Seed stores tags already known from a listing, avoiding a fetch.
func (r *Registry) Seed(item models.Item) {
	if item.TagsKnown {
		r.items.Add(item.ID, append([]string{}, item.Tags...))
	}
}

// Forget drops the cached tags of an item.
func (r *Registry) Forget(id string) {
	r.items.Remove(id)
}

// Create registers a new tag.
func (r *Registry) Create(ctx context.Context, name, color string) (*models.Tag, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	tag, err := r.svc.CreateTag(ctx, name, color)
	r.resync(ctx)
	if err != nil {
		return nil, fmt.Errorf("create tag %s: %w", name, err)
	}
	return tag, nil
}

// Delete removes a tag. The service unassigns it everywhere, so it is also
// dropped from every cached item list.
func (r *Registry) Delete(ctx context.Context, name string) error {
	err := r.svc.DeleteTag(ctx, name)
	if err == nil {
		for _, id := range r.items.Keys() {
			if list, ok := r.items.Peek(id); ok {
				r.items.Add(id, without(list, name))
			}
		}
	}
	r.resync(ctx)
	if err != nil {
		return fmt.Errorf("delete tag %s: %w", name, err)
	}
	return nil
}

// AddToItem assigns tag to an item. The cached list is the one returned by
// the service.
func (r *Registry) AddToItem(ctx context.Context, id, tag string) ([]string, error) {
	tag, err := cleanName(tag)
	if err != nil {
		return nil, err
	}
	return r.mutateItem(ctx, id, "add tag "+tag, func() ([]string, error) {
		return r.svc.AddTagToItem(ctx, id, tag)
	})
}

// RemoveFromItem unassigns tag from an item.
func (r *Registry) RemoveFromItem(ctx context.Context, id, tag string) ([]string, error) {
	return r.mutateItem(ctx, id, "remove tag "+tag, func() ([]string, error) {
		return r.svc.RemoveTagFromItem(ctx, id, tag)
	})
}

// SetForItem replaces every tag of an item.
func (r *Registry) SetForItem(ctx context.Context, id string, tags []string) ([]string, error) {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, t := range tags {
		name, err := cleanName(t)
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			cleaned = append(cleaned, name)
		}
	}
	return r.mutateItem(ctx, id, "set tags", func() ([]string, error) {
		return r.svc.SetItemTags(ctx, id, cleaned)
	})
}

func (r *Registry) mutateItem(ctx context.Context, id, what string, call func() ([]string, error)) ([]string, error) {
	list, err := call()
	if err == nil {
		r.items.Add(id, list)
	}
	r.resync(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return append([]string(nil), list...), nil
}

// resync reloads the registry after a mutation, whatever its outcome.
func (r *Registry) resync(ctx context.Context) {
	if err := r.LoadAll(ctx); err != nil {
		r.logger.WithError(err).Warn("Failed to reload tags")
	}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
