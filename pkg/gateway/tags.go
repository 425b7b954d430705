package gateway

import (
	"context"
	"net/http"

	"github.com/mattsolo1/grove-ged/pkg/models"
)

type tagsBody struct {
	Tags []string `json:"tags"`
}

// Tags lists every tag with its server-computed count.
func (c *Client) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.getJSON(ctx, "tags", "/api/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag creates a tag definition.
func (c *Client) CreateTag(ctx context.Context, name, color string) (*models.Tag, error) {
	if color == "" {
		color = models.DefaultTagColor
	}
	body := struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}{name, color}
	var tag models.Tag
	if err := c.sendJSON(ctx, "create_tag", http.MethodPost, "/api/tags", body, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag removes a tag and its assignments.
func (c *Client) DeleteTag(ctx context.Context, name string) error {
	return c.sendJSON(ctx, "delete_tag", http.MethodDelete, joinPath("/api/tags", seg(name)), nil, nil)
}

// ItemTags returns the tags assigned to an item.
func (c *Client) ItemTags(ctx context.Context, id string) ([]string, error) {
	var tags []string
	if err := c.getJSON(ctx, "item_tags", joinPath("/api/item", seg(id), "tags"), nil, &tags); err != nil {
		return nil, err
	}
	return nonNil(tags), nil
}

// SetItemTags replaces the tags of an item.
func (c *Client) SetItemTags(ctx context.Context, id string, tags []string) ([]string, error) {
	var out []string
	body := tagsBody{Tags: nonNil(tags)}
	if err := c.sendJSON(ctx, "set_item_tags", http.MethodPut, joinPath("/api/item", seg(id), "tags"), body, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// AddTagToItem assigns tag to an item and returns the item's tags as stored
// by the server. Unknown tags are created with the default color.
func (c *Client) AddTagToItem(ctx context.Context, id, tag string) ([]string, error) {
	var out tagsBody
	if err := c.sendJSON(ctx, "add_item_tag", http.MethodPost, joinPath("/api/item", seg(id), "tags", seg(tag)), nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Tags), nil
}

// RemoveTagFromItem unassigns tag and returns the item's remaining tags.
func (c *Client) RemoveTagFromItem(ctx context.Context, id, tag string) ([]string, error) {
	var out tagsBody
	if err := c.sendJSON(ctx, "remove_item_tag", http.MethodDelete, joinPath("/api/item", seg(id), "tags", seg(tag)), nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.Tags), nil
}

// ItemsByTag lists the items carrying tag.
func (c *Client) ItemsByTag(ctx context.Context, tag string) ([]models.Item, error) {
	var items []models.Item
	if err := c.getJSON(ctx, "tag_items", joinPath("/api/tags", seg(tag), "items"), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
