package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

// CreateItem creates a container named name at level under parentID. A
// cabinet takes no parent.
func (s *Service) CreateItem(ctx context.Context, parentID, name string, level models.Level) (*models.Item, error) {
	s.beginAction()
	name = strings.TrimSpace(name)
	if err := s.check(createInput{ParentID: parentID, Name: name, Level: int(level)}); err != nil {
		return nil, s.endAction(err)
	}
	if level == models.LevelCabinet {
		parentID = ""
	}

	item, err := s.Client.CreateItem(ctx, parentID, name, level.Kind())
	if err != nil {
		return nil, s.endAction(fmt.Errorf("create %s %q: %w", level, name, err))
	}
	s.Logger.WithFields(logrus.Fields{"id": item.ID, "kind": item.Kind}).Info("Created item")
	s.refreshAfter(ctx, "create")
	return item, s.endAction(nil)
}

// Rename gives item a new name. For documents newName is the base name and
// the current extension is kept.
func (s *Service) Rename(ctx context.Context, item models.Item, newName string) (*models.Item, error) {
	s.beginAction()
	base := strings.TrimSpace(newName)
	if err := s.check(renameInput{ID: item.ID, Name: base}); err != nil {
		return nil, s.endAction(err)
	}
	final := documentName(item, base)
	if final == item.Name || final == item.FileName() {
		return nil, s.endAction(&ValidationError{Field: "name", Message: "The new name is the same as the current one"})
	}

	wasFavorite := s.Favorites.IsFavorite(item.ID)
	updated, err := s.Client.Rename(ctx, item.ID, final)
	if err != nil {
		return nil, s.endAction(fmt.Errorf("rename %q: %w", item.Name, err))
	}

	s.Nav.ReplaceSelected(item.ID, *updated)
	s.replacePreview(item.ID, updated)
	s.Tags.Forget(item.ID)
	if wasFavorite || !item.IsDocument() {
		s.reloadFavorites(ctx)
	}
	s.refreshAfter(ctx, "rename")
	return updated, s.endAction(nil)
}

// documentName re-attaches the extension of a document to base, unless the
// user typed it already.
func documentName(item models.Item, base string) string {
	ext := item.Extension()
	if !item.IsDocument() || ext == "" {
		return base
	}
	if strings.HasSuffix(strings.ToLower(base), "."+strings.ToLower(ext)) {
		return base
	}
	return base + "." + ext
}

// Move moves item under destinationID.
func (s *Service) Move(ctx context.Context, item models.Item, destinationID string) (*models.Item, error) {
	s.beginAction()
	if err := s.check(moveInput{ID: item.ID, DestinationID: destinationID}); err != nil {
		return nil, s.endAction(err)
	}

	wasFavorite := s.Favorites.IsFavorite(item.ID)
	moved, err := s.Client.Move(ctx, item.ID, destinationID)
	if err != nil {
		return nil, s.endAction(fmt.Errorf("move %q: %w", item.Name, err))
	}

	s.Nav.Forget(item.ID)
	s.replacePreview(item.ID, moved)
	s.Tags.Forget(item.ID)
	if wasFavorite || !item.IsDocument() {
		s.reloadFavorites(ctx)
	}
	s.refreshAfter(ctx, "move")
	return moved, s.endAction(nil)
}

// Delete removes item and everything below it, then drops it from the
// favorites, reloads the tag counts and clears its slot.
func (s *Service) Delete(ctx context.Context, item models.Item) error {
	s.beginAction()
	if strings.TrimSpace(item.ID) == "" {
		return s.endAction(&ValidationError{Field: "id", Message: "This field is required"})
	}

	if _, err := s.Client.Delete(ctx, item.ID); err != nil {
		return s.endAction(fmt.Errorf("delete %q: %w", item.Name, err))
	}

	if item.IsDocument() {
		s.Favorites.Forget(item.ID)
	} else {
		// Favorites below a deleted container are pruned by the server.
		s.reloadFavorites(ctx)
	}
	s.Tags.Forget(item.ID)
	if err := s.Tags.LoadAll(ctx); err != nil {
		s.Logger.WithError(err).Warn("Failed to reload tags after delete")
	}
	s.Nav.Forget(item.ID)
	s.replacePreview(item.ID, nil)
	s.refreshAfter(ctx, "delete")
	return s.endAction(nil)
}

// Upload stores files under parentID, in one request when there are
// several.
func (s *Service) Upload(ctx context.Context, parentID string, files []gateway.File) ([]models.Item, error) {
	s.beginAction()
	if strings.TrimSpace(parentID) == "" {
		return nil, s.endAction(&ValidationError{Field: "parent", Message: "This field is required"})
	}
	if len(files) == 0 {
		return nil, s.endAction(&ValidationError{Field: "files", Message: "Select at least one file"})
	}
	for i := range files {
		files[i].Name = strings.TrimSpace(files[i].Name)
		if err := s.checkName(fmt.Sprintf("files[%d]", i), files[i].Name); err != nil {
			return nil, s.endAction(err)
		}
	}

	var items []models.Item
	if len(files) == 1 {
		item, err := s.Client.Upload(ctx, parentID, files[0])
		if err != nil {
			return nil, s.endAction(fmt.Errorf("upload %s: %w", files[0].Name, err))
		}
		items = []models.Item{*item}
	} else {
		uploaded, err := s.Client.UploadFiles(ctx, parentID, files)
		if err != nil {
			return nil, s.endAction(fmt.Errorf("upload %d files: %w", len(files), err))
		}
		items = uploaded
	}

	s.Logger.WithFields(logrus.Fields{"parent": parentID, "count": len(items)}).Info("Uploaded documents")
	s.refreshAfter(ctx, "upload")
	return items, s.endAction(nil)
}

// refreshAfter reloads the selected listings. A failure lands in the
// navigation error slot; the mutation itself succeeded.
func (s *Service) refreshAfter(ctx context.Context, what string) {
	if err := s.Nav.Refresh(ctx); err != nil {
		s.Logger.WithError(err).WithField("after", what).Warn("Refresh failed")
	}
}

func (s *Service) reloadFavorites(ctx context.Context) {
	if err := s.Favorites.Load(ctx); err != nil {
		s.Logger.WithError(err).Warn("Failed to reload favorites")
	}
}
