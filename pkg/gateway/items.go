package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

// Health checks the service.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var h models.Health
	if err := c.getJSON(ctx, "health", "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Tree returns the container tree down to maxDepth levels.
func (c *Client) Tree(ctx context.Context, maxDepth int) ([]models.TreeNode, error) {
	q := url.Values{}
	if maxDepth > 0 {
		q.Set("max_depth", strconv.Itoa(maxDepth))
	}
	var nodes []models.TreeNode
	if err := c.getJSON(ctx, "tree", "/api/tree", q, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Cabinets lists the top-level containers.
func (c *Client) Cabinets(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := c.getJSON(ctx, "cabinets", "/api/armoires", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Children lists the direct children of a container.
func (c *Client) Children(ctx context.Context, id string) ([]models.Item, error) {
	var items []models.Item
	if err := c.getJSON(ctx, "browse", joinPath("/api/browse", seg(id)), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Item fetches a single item.
func (c *Client) Item(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := c.getJSON(ctx, "item", joinPath("/api/item", seg(id)), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

type nameBody struct {
	Name string `json:"name"`
}

// CreateItem creates a container. An empty parentID creates a cabinet; the
// kind of anything deeper is decided by the server from its depth.
func (c *Client) CreateItem(ctx context.Context, parentID, name string, kind models.Kind) (*models.Item, error) {
	path := joinPath("/api/create", seg(parentID))
	if parentID == "" {
		if kind != "" && kind != models.KindCabinet {
			return nil, fmt.Errorf("create %s %q: a parent is required", kind.Label(), name)
		}
		path = "/api/armoires"
	}
	var item models.Item
	if err := c.sendJSON(ctx, "create", http.MethodPost, path, nameBody{Name: name}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Rename renames an item. The server derives a new ID from the new name.
func (c *Client) Rename(ctx context.Context, id, newName string) (*models.Item, error) {
	body := struct {
		NewName string `json:"new_name"`
	}{newName}
	var item models.Item
	if err := c.sendJSON(ctx, "rename", http.MethodPut, joinPath("/api/rename", seg(id)), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item and everything below it.
func (c *Client) Delete(ctx context.Context, id string) (*models.DeleteResult, error) {
	var res models.DeleteResult
	if err := c.sendJSON(ctx, "delete", http.MethodDelete, joinPath("/api/delete", seg(id)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Move moves an item under destinationID.
func (c *Client) Move(ctx context.Context, id, destinationID string) (*models.Item, error) {
	body := struct {
		DestinationID string `json:"destination_id"`
	}{destinationID}
	var item models.Item
	if err := c.sendJSON(ctx, "move", http.MethodPut, joinPath("/api/move", seg(id)), body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// SearchFilters narrows a text search.
type SearchFilters struct {
	Kind      models.Kind
	Extension string
}

// Search runs a name search over the whole store.
func (c *Client) Search(ctx context.Context, query string, filters SearchFilters) ([]models.Item, error) {
	q := url.Values{}
	q.Set("q", query)
	if filters.Kind != "" {
		q.Set("type", string(filters.Kind))
	}
	if ext := strings.TrimPrefix(filters.Extension, "."); ext != "" {
		q.Set("extension", ext)
	}
	var items []models.Item
	if err := c.getJSON(ctx, "search", "/api/search", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Stats returns aggregate counts over the store.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var s models.Stats
	if err := c.getJSON(ctx, "stats", "/api/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
