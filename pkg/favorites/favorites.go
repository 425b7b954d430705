// Package favorites keeps the user's favorite documents in sync with the
// service, applying changes optimistically.
package favorites

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
	"github.com/mattsolo1/grove-ged/pkg/optimistic"
)

// Service is the part of the gateway the coordinator needs.
type Service interface {
	Favorites(ctx context.Context) ([]models.Item, error)
	AddFavorite(ctx context.Context, id string) (*gateway.FavoritesResult, error)
	RemoveFavorite(ctx context.Context, id string) (*gateway.FavoritesResult, error)
}

// Cache stores the last known favorites for when the service is down.
type Cache interface {
	SaveFavorites(items []models.Item) error
	LoadFavorites() ([]models.Item, error)
}

// Coordinator owns the local favorite set.
type Coordinator struct {
	svc    Service
	cache  Cache
	set    *optimistic.Set[models.Item]
	logger *logrus.Entry

	mu          sync.Mutex
	provisional bool
}

// New creates a coordinator. cache may be nil.
func New(svc Service, cache Cache, logger *logrus.Entry) *Coordinator {
	if logger == nil {
		logger = logging.NewLogger("ged.favorites")
	}
	return &Coordinator{
		svc:    svc,
		cache:  cache,
		set:    optimistic.New(func(it models.Item) string { return it.ID }),
		logger: logger,
	}
}

// OnChange registers a callback run whenever the set changes.
func (c *Coordinator) OnChange(fn func()) {
	c.set.OnChange(fn)
}

// Load replaces the set with the server's list. When the server cannot be
// reached the local cache is used instead and marked provisional; the
// error is still returned.
func (c *Coordinator) Load(ctx context.Context) error {
	items, err := c.svc.Favorites(ctx)
	if err != nil {
		cached := c.loadCache()
		c.set.Replace(cached)
		c.setProvisional(true)
		c.logger.WithError(err).WithField("cached", len(cached)).Warn("Using cached favorites")
		return fmt.Errorf("load favorites: %w", err)
	}
	c.set.Replace(items)
	c.setProvisional(false)
	c.saveCache()
	return nil
}

// Add marks item as favorite, reverting if the server refuses.
func (c *Coordinator) Add(ctx context.Context, item models.Item) error {
	err := c.set.Add(ctx, item, func(ctx context.Context) error {
		_, err := c.svc.AddFavorite(ctx, item.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("add favorite %s: %w", item.Name, err)
	}
	c.saveCache()
	return nil
}

// Remove unmarks id, restoring the previous set if the server refuses.
func (c *Coordinator) Remove(ctx context.Context, id string) error {
	err := c.set.Remove(ctx, id, func(ctx context.Context) error {
		_, err := c.svc.RemoveFavorite(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	c.saveCache()
	return nil
}

// Toggle adds or removes item depending on its current state.
func (c *Coordinator) Toggle(ctx context.Context, item models.Item) error {
	if c.IsFavorite(item.ID) {
		return c.Remove(ctx, item.ID)
	}
	return c.Add(ctx, item)
}

// Forget drops id locally, for items the server already deleted.
func (c *Coordinator) Forget(id string) {
	if c.set.Forget(id) {
		c.saveCache()
	}
}

// IsFavorite reports whether id is in the set.
func (c *Coordinator) IsFavorite(id string) bool {
	return c.set.Contains(id)
}

// Items returns the favorites.
func (c *Coordinator) Items() []models.Item {
	return c.set.Items()
}

// Provisional reports whether the set came from the local cache rather
// than the server.
func (c *Coordinator) Provisional() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provisional
}

func (c *Coordinator) setProvisional(v bool) {
	c.mu.Lock()
	c.provisional = v
	c.mu.Unlock()
}

func (c *Coordinator) loadCache() []models.Item {
	if c.cache == nil {
		return nil
	}
	items, err := c.cache.LoadFavorites()
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read favorites cache")
		return nil
	}
	return items
}

func (c *Coordinator) saveCache() {
	if c.cache == nil || c.Provisional() {
		return
	}
	if err := c.cache.SaveFavorites(c.set.Items()); err != nil {
		c.logger.WithError(err).Warn("Failed to write favorites cache")
	}
}
