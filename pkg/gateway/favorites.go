package gateway

import (
	"context"
	"net/http"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

// FavoritesResult is returned by favorite mutations.
type FavoritesResult struct {
	Message   string        `json:"message"`
	Favorites []models.Item `json:"favorites"`
}

// Favorites lists the favorite documents.
func (c *Client) Favorites(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := c.getJSON(ctx, "favorites", "/api/favorites", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddFavorite marks an item as favorite.
func (c *Client) AddFavorite(ctx context.Context, id string) (*FavoritesResult, error) {
	var res FavoritesResult
	if err := c.sendJSON(ctx, "add_favorite", http.MethodPost, joinPath("/api/favorites", seg(id)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RemoveFavorite unmarks an item.
func (c *Client) RemoveFavorite(ctx context.Context, id string) (*FavoritesResult, error) {
	var res FavoritesResult
	if err := c.sendJSON(ctx, "remove_favorite", http.MethodDelete, joinPath("/api/favorites", seg(id)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
