// Package selector tracks the single current document of a session.
package selector

import (
	"sync"

	"ruangkerja/internal/document/model"
)

// Store is the part of the entity store the selector resolves through.
type Store interface {
	Get(id string) (model.Document, bool)
}

// Selector holds the id of the current document, never the document itself,
// so Current always reflects the latest state in the store.
type Selector struct {
	mu    sync.Mutex
	store Store
	id    string
}

func New(store Store) *Selector {
	return &Selector{store: store}
}

// Select makes id current. An empty id clears the selection.
func (s *Selector) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.id = ""
		return nil
	}
	if _, ok := s.store.Get(id); !ok {
		return model.NewError("select", id, model.ErrNotFound)
	}
	s.id = id
	return nil
}

// Current returns a snapshot of the current document. If the document has
// been removed from the store the selection is cleared.
func (s *Selector) Current() (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == "" {
		return model.Document{}, false
	}
	doc, ok := s.store.Get(s.id)
	if !ok {
		s.id = ""
		return model.Document{}, false
	}
	return doc, true
}

func (s *Selector) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Forget clears the selection if it points at id.
func (s *Selector) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == id {
		s.id = ""
	}
}
