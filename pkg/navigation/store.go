// Package navigation holds the selection path through the hierarchy and the
// listings shown for each level.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-ged/internal/logging"
	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

// Lister fetches listings from the service.
type Lister interface {
	Cabinets(ctx context.Context) ([]models.Item, error)
	Children(ctx context.Context, id string) ([]models.Item, error)
}

// ItemTagLoader fetches the tags of a selected document.
type ItemTagLoader interface {
	LoadForItem(ctx context.Context, id string) ([]string, error)
}

// State is a snapshot of the store. Items and slices are never modified in
// place once published, so a snapshot stays consistent after later
// transitions.
type State struct {
	// Selection holds one optional slot per level. The divider slot may be
	// empty while a document is selected.
	Selection [models.LevelCount]*models.Item
	// Listings holds the items shown at each level: cabinets at
	// LevelCabinet, children of the selected cabinet at LevelShelf, etc.
	Listings [models.LevelCount][]models.Item
	Loading  [models.LevelCount]bool
	Error    string
}

// Selected returns the item selected at level.
func (s State) Selected(level models.Level) (models.Item, bool) {
	if !level.Valid() || s.Selection[level] == nil {
		return models.Item{}, false
	}
	return *s.Selection[level], true
}

// Listing returns the items shown at level.
func (s State) Listing(level models.Level) []models.Item {
	if !level.Valid() {
		return nil
	}
	return s.Listings[level]
}

// Deepest returns the deepest selected level, or -1 when nothing is selected.
func (s State) Deepest() models.Level {
	deepest := models.Level(-1)
	for _, l := range models.Levels() {
		if s.Selection[l] != nil {
			deepest = l
		}
	}
	return deepest
}

// AnyLoading reports whether a fetch is in flight.
func (s State) AnyLoading() bool {
	for _, l := range s.Loading {
		if l {
			return true
		}
	}
	return false
}

// Crumb is one element of the breadcrumb trail.
type Crumb struct {
	ID    string       `json:"id" yaml:"id"`
	Name  string       `json:"name" yaml:"name"`
	Level models.Level `json:"level" yaml:"level"`
}

// Breadcrumb returns the selected items from cabinet downwards.
func (s State) Breadcrumb() []Crumb {
	var out []Crumb
	for _, l := range models.Levels() {
		if it := s.Selection[l]; it != nil {
			out = append(out, Crumb{ID: it.ID, Name: it.Name, Level: l})
		}
	}
	return out
}

// Store is the navigation state machine. Transitions hold the lock while
// they change state and release it across service calls.
type Store struct {
	lister Lister
	tags   ItemTagLoader
	logger *logrus.Entry

	mu    sync.Mutex
	state State
	// gen is bumped for a level whenever its listing is superseded; a fetch
	// that finishes with an outdated token is dropped.
	gen      [models.LevelCount]uint64
	onChange func()
}

// Option configures a Store.
type Option func(*Store)

// WithTagLoader sets the loader used when a document is selected.
func WithTagLoader(l ItemTagLoader) Option {
	return func(s *Store) { s.tags = l }
}

// WithOnChange registers a callback run after every state change.
func WithOnChange(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store.
func NewStore(lister Lister, opts ...Option) *Store {
	s := &Store{lister: lister}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewLogger("ged.navigation")
	}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// LoadCabinets fetches the top-level listing.
func (s *Store) LoadCabinets(ctx context.Context) error {
	s.mu.Lock()
	s.gen[models.LevelCabinet]++
	token := s.gen[models.LevelCabinet]
	s.state.Loading[models.LevelCabinet] = true
	s.mu.Unlock()
	s.notify()

	items, err := s.lister.Cabinets(ctx)

	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[models.LevelCabinet] != token {
		return nil
	}
	s.state.Loading[models.LevelCabinet] = false
	if err != nil {
		s.state.Error = fmt.Sprintf("Could not load cabinets: %s", gateway.Message(err))
		return fmt.Errorf("load cabinets: %w", err)
	}
	s.state.Listings[models.LevelCabinet] = items
	return nil
}

// Select sets the slot at level and clears everything deeper. A non-nil
// container selection loads its children into the next level. Selecting a
// document only loads its tags.
func (s *Store) Select(ctx context.Context, level models.Level, item *models.Item) error {
	if !level.Valid() {
		return fmt.Errorf("select: invalid level %d", int(level))
	}
	if item != nil && item.Level() != level {
		return fmt.Errorf("select: %s %q cannot be selected as a %s", item.Kind.Label(), item.Name, level)
	}
	if level == models.LevelDocument {
		return s.selectDocument(ctx, item)
	}

	var selected *models.Item
	if item != nil {
		copied := *item
		selected = &copied
	}

	s.mu.Lock()
	if selected != nil {
		if err := s.checkAncestorsLocked(level, selected); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.state.Selection[level] = selected
	for l := level + 1; int(l) < models.LevelCount; l++ {
		s.gen[l]++
		s.state.Selection[l] = nil
		s.state.Listings[l] = nil
		s.state.Loading[l] = false
	}
	if selected == nil {
		s.mu.Unlock()
		s.notify()
		return nil
	}
	child := level.Child()
	token := s.gen[child]
	s.setLoadingLocked(child, true)
	s.mu.Unlock()
	s.notify()

	s.logger.WithFields(logrus.Fields{"level": level.String(), "id": selected.ID}).Debug("Loading children")
	children, err := s.lister.Children(ctx, selected.ID)

	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[child] != token {
		s.logger.WithField("id", selected.ID).Debug("Dropping superseded listing")
		return nil
	}
	s.setLoadingLocked(child, false)
	if err != nil {
		s.state.Error = fmt.Sprintf("Could not load %s: %s", child.Plural(), gateway.Message(err))
		return fmt.Errorf("list children of %s: %w", selected.Name, err)
	}
	s.applyChildrenLocked(level, children)
	return nil
}

// setLoadingLocked marks the level as loading. A folder listing also feeds
// the document column.
func (s *Store) setLoadingLocked(child models.Level, v bool) {
	s.state.Loading[child] = v
	if child == models.LevelDivider {
		s.state.Loading[models.LevelDocument] = v
	}
}

// applyChildrenLocked stores the children of the item selected at parent.
func (s *Store) applyChildrenLocked(parent models.Level, children []models.Item) {
	if parent != models.LevelFolder {
		s.state.Listings[parent.Child()] = children
		return
	}
	dividers, documents := Partition(children)
	s.state.Listings[models.LevelDivider] = dividers
	if len(dividers) == 0 {
		s.state.Listings[models.LevelDocument] = documents
	} else if s.state.Selection[models.LevelDivider] == nil {
		s.state.Listings[models.LevelDocument] = nil
	}
}

// Partition splits the children of a folder into dividers and documents.
func Partition(children []models.Item) (dividers, documents []models.Item) {
	dividers = []models.Item{}
	documents = []models.Item{}
	for _, c := range children {
		if c.IsDividerCandidate() {
			dividers = append(dividers, c)
		} else {
			documents = append(documents, c)
		}
	}
	return dividers, documents
}

func (s *Store) selectDocument(ctx context.Context, item *models.Item) error {
	var selected *models.Item
	if item != nil {
		copied := *item
		selected = &copied
	}
	s.mu.Lock()
	if selected != nil {
		if err := s.checkAncestorsLocked(models.LevelDocument, selected); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.state.Selection[models.LevelDocument] = selected
	s.mu.Unlock()
	s.notify()

	if selected == nil || s.tags == nil {
		return nil
	}
	if _, err := s.tags.LoadForItem(ctx, selected.ID); err != nil {
		s.logger.WithError(err).WithField("id", selected.ID).Warn("Failed to load document tags")
		return fmt.Errorf("load tags of %s: %w", selected.Name, err)
	}
	return nil
}

// checkAncestorsLocked reports an error when selecting at level would leave
// a gap in the selection path. A document may skip the divider slot only
// when its folder has no dividers.
func (s *Store) checkAncestorsLocked(level models.Level, item *models.Item) error {
	if level == models.LevelCabinet {
		return nil
	}
	parent := level.Parent()
	if level == models.LevelDocument && s.state.Selection[models.LevelDivider] == nil &&
		len(s.state.Listings[models.LevelDivider]) == 0 {
		parent = models.LevelFolder
	}
	if s.state.Selection[parent] == nil {
		return fmt.Errorf("select %s %q: no %s selected", level, item.Name, parent)
	}
	return nil
}

// SelectItem selects item at the level of its kind.
func (s *Store) SelectItem(ctx context.Context, item models.Item) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("select: unknown kind %q", string(item.Kind))
	}
	return s.Select(ctx, item.Level(), &item)
}

// Refresh reloads cabinets and every selected level from the top down
// without changing the selection. Levels that fail keep their listing.
func (s *Store) Refresh(ctx context.Context) error {
	var errs []error
	if err := s.LoadCabinets(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, level := range models.Levels()[:models.LevelDocument] {
		s.mu.Lock()
		selected := s.state.Selection[level]
		if selected == nil {
			s.mu.Unlock()
			continue
		}
		child := level.Child()
		token := s.gen[child]
		s.setLoadingLocked(child, true)
		s.mu.Unlock()
		s.notify()

		children, err := s.lister.Children(ctx, selected.ID)

		s.mu.Lock()
		if s.gen[child] != token {
			s.mu.Unlock()
			continue
		}
		s.setLoadingLocked(child, false)
		if err != nil {
			s.state.Error = fmt.Sprintf("Could not refresh %s: %s", child.Plural(), gateway.Message(err))
			errs = append(errs, fmt.Errorf("refresh children of %s: %w", selected.Name, err))
		} else {
			s.applyChildrenLocked(level, children)
		}
		s.mu.Unlock()
		s.notify()
	}
	return errors.Join(errs...)
}

// Forget clears the slot holding id, the deeper slots and their listings,
// without fetching anything. It is used when the item no longer exists.
func (s *Store) Forget(id string) bool {
	s.mu.Lock()
	found := false
	for _, l := range models.Levels() {
		if it := s.state.Selection[l]; it != nil && it.ID == id {
			found = true
			s.state.Selection[l] = nil
			for d := l + 1; int(d) < models.LevelCount; d++ {
				s.gen[d]++
				s.state.Selection[d] = nil
				s.state.Listings[d] = nil
				s.state.Loading[d] = false
			}
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

// ReplaceSelected swaps the selected item oldID for item. IDs follow the
// storage path, so the selection below a renamed container is dropped.
func (s *Store) ReplaceSelected(oldID string, item models.Item) bool {
	s.mu.Lock()
	found := false
	for _, l := range models.Levels() {
		if it := s.state.Selection[l]; it != nil && it.ID == oldID {
			copied := item
			s.state.Selection[l] = &copied
			found = true
			if l == models.LevelDocument {
				break
			}
			for d := l + 1; int(d) < models.LevelCount; d++ {
				s.gen[d]++
				s.state.Selection[d] = nil
				s.state.Listings[d] = nil
				s.state.Loading[d] = false
			}
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

// ClearError empties the error slot.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
	s.notify()
}
