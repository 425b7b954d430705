package service

import (
	"errors"

	"github.com/mattsolo1/grove-ged/pkg/gateway"
	"github.com/mattsolo1/grove-ged/pkg/models"
)

// ModalKind names the dialog currently open.
type ModalKind string

const (
	ModalCreate     ModalKind = "create"
	ModalRename     ModalKind = "rename"
	ModalDelete     ModalKind = "delete"
	ModalMove       ModalKind = "move"
	ModalUpload     ModalKind = "upload"
	ModalDetails    ModalKind = "details"
	ModalTags       ModalKind = "tags"
	ModalManageTags ModalKind = "manage_tags"
)

// Modal is an open dialog. Errors of the action it runs land in Error
// instead of the global error slot.
type Modal struct {
	Kind  ModalKind
	Item  *models.Item
	Level models.Level
	Error string
	Busy  bool
}

// UI holds the presentation intents that are not part of navigation.
type UI struct {
	Modal      *Modal
	Preview    *models.Item
	MoveTarget *models.Item
}

// ShowModal opens a dialog for item at level. item may be nil, e.g. when
// creating a cabinet.
func (s *Service) ShowModal(kind ModalKind, level models.Level, item *models.Item) {
	m := &Modal{Kind: kind, Level: level}
	if item != nil {
		copied := *item
		m.Item = &copied
	}
	s.mu.Lock()
	s.ui.Modal = m
	s.mu.Unlock()
	s.notify()
}

// HideModal closes the open dialog.
func (s *Service) HideModal() {
	s.mu.Lock()
	s.ui.Modal = nil
	s.ui.MoveTarget = nil
	s.mu.Unlock()
	s.notify()
}

// OpenPreview shows a document preview. Passing nil closes it.
func (s *Service) OpenPreview(item *models.Item) {
	s.mu.Lock()
	if item == nil {
		s.ui.Preview = nil
	} else {
		copied := *item
		s.ui.Preview = &copied
	}
	s.mu.Unlock()
	s.notify()
}

// OpenMoveTarget opens the move dialog for item.
func (s *Service) OpenMoveTarget(item models.Item) {
	s.mu.Lock()
	copied := item
	s.ui.MoveTarget = &copied
	s.ui.Modal = &Modal{Kind: ModalMove, Item: &copied, Level: item.Level()}
	s.mu.Unlock()
	s.notify()
}

// beginAction marks the open dialog busy.
func (s *Service) beginAction() {
	s.mu.Lock()
	if s.ui.Modal != nil {
		m := *s.ui.Modal
		m.Busy = true
		m.Error = ""
		s.ui.Modal = &m
	}
	s.mu.Unlock()
	s.notify()
}

// endAction closes the dialog on success and records err in it otherwise.
func (s *Service) endAction(err error) error {
	s.mu.Lock()
	if s.ui.Modal != nil {
		if err == nil {
			s.ui.Modal = nil
			s.ui.MoveTarget = nil
		} else {
			m := *s.ui.Modal
			m.Busy = false
			m.Error = ErrorText(err)
			s.ui.Modal = &m
		}
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// ErrorText is the message shown to the user for err.
func ErrorText(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return gateway.Message(err)
}

// replacePreview keeps an open preview pointing at a renamed item.
func (s *Service) replacePreview(oldID string, item *models.Item) {
	s.mu.Lock()
	if s.ui.Preview != nil && s.ui.Preview.ID == oldID {
		if item == nil {
			s.ui.Preview = nil
		} else {
			copied := *item
			s.ui.Preview = &copied
		}
	}
	s.mu.Unlock()
}
