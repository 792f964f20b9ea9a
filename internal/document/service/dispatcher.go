package service

import (
	"sync"

	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/repository"
	"ruangkerja/internal/document/selector"
)

type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeRemoved  ChangeType = "removed"
	ChangeSelected ChangeType = "selected"
)

// Change describes a document mutation after it has been committed, or a
// change of the current document. A selected change with a zero Document
// means the selection was cleared.
type Change struct {
	Type     ChangeType
	Document model.Document
}

// Dispatcher is the only path through which stored documents change. It
// keeps the repository and the selector consistent: the selector resolves
// through the repository, so a committed update is visible to Current in the
// same step, and a removed document is dropped from the selection before the
// lock is released.
type Dispatcher struct {
	mu        sync.Mutex
	repo      *repository.DocumentRepository
	sel       *selector.Selector
	listeners []func(Change)
}

func NewDispatcher(repo *repository.DocumentRepository, sel *selector.Selector) *Dispatcher {
	return &Dispatcher{repo: repo, sel: sel}
}

// OnChange registers fn to run after every committed change. Listeners run
// outside the dispatcher lock and receive their own copy of the document.
// They may still run under the workspace lock, so they must not call back
// into the workspace.
func (d *Dispatcher) OnChange(fn func(Change)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Apply merges p into document id. Shape is not checked here; callers that
// accept untrusted patches validate with the schema package first.
func (d *Dispatcher) Apply(id string, p model.Patch) (model.Document, error) {
	d.mu.Lock()
	doc, err := d.repo.Update(id, p)
	listeners := d.listeners
	d.mu.Unlock()
	if err != nil {
		return model.Document{}, err
	}

	d.emit(listeners, Change{Type: ChangeUpdated, Document: doc})
	return doc, nil
}

// Remove deletes document id and clears it from the selection.
func (d *Dispatcher) Remove(id string) error {
	d.mu.Lock()
	doc, ok := d.repo.Get(id)
	err := d.repo.Remove(id)
	if err == nil {
		d.sel.Forget(id)
	}
	listeners := d.listeners
	d.mu.Unlock()
	if err != nil {
		return err
	}

	if ok {
		d.emit(listeners, Change{Type: ChangeRemoved, Document: doc})
	}
	return nil
}

func (d *Dispatcher) created(doc model.Document) {
	d.mu.Lock()
	listeners := d.listeners
	d.mu.Unlock()
	d.emit(listeners, Change{Type: ChangeCreated, Document: doc})
}

func (d *Dispatcher) selected(doc model.Document) {
	d.mu.Lock()
	listeners := d.listeners
	d.mu.Unlock()
	d.emit(listeners, Change{Type: ChangeSelected, Document: doc})
}

func (d *Dispatcher) emit(listeners []func(Change), c Change) {
	for _, fn := range listeners {
		fn(Change{Type: c.Type, Document: c.Document.Clone()})
	}
}
