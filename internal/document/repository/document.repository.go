package repository

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/schema"
	"ruangkerja/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultTitle = "Untitled Document"

	maxIDAttempts = 8
)

var errIDExhausted = errors.New("could not allocate a fresh document id")

// DocumentRepository is the in-memory owner of a workspace's documents.
// Everything it hands out is a deep copy; the stored documents are only
// reachable through its methods.
type DocumentRepository struct {
	mu     sync.RWMutex
	order  []string
	docs   map[string]*model.Document
	issued map[string]struct{}

	now   func() time.Time
	newID func() string
}

type Option func(*DocumentRepository)

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *DocumentRepository) { r.now = now }
}

// WithIDGenerator replaces the uuid v4 id source.
func WithIDGenerator(newID func() string) Option {
	return func(r *DocumentRepository) { r.newID = newID }
}

func NewDocumentRepository(opts ...Option) *DocumentRepository {
	r := &DocumentRepository{
		docs:   make(map[string]*model.Document),
		issued: make(map[string]struct{}),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a new document of the given kind with that kind's default
// content. An empty title falls back to DefaultTitle.
func (r *DocumentRepository) Create(kind model.Kind, title string) (model.Document, error) {
	content, err := schema.DefaultContent(kind)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document of kind %q: %v", kind, err)
		return model.Document{}, model.NewError("create", "", err)
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.allocateID()
	if err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
		return model.Document{}, model.NewError("create", "", err)
	}

	now := r.now()
	doc := &model.Document{
		ID:            id,
		Title:         title,
		Kind:          kind,
		Content:       content,
		Version:       1,
		Collaborators: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.docs[id] = doc
	r.order = append(r.order, id)
	return doc.Clone(), nil
}

// allocateID must be called with mu held.
func (r *DocumentRepository) allocateID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.newID()
		if _, taken := r.issued[id]; id == "" || taken {
			continue
		}
		r.issued[id] = struct{}{}
		return id, nil
	}
	return "", errIDExhausted
}

func (r *DocumentRepository) Get(id string) (model.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return model.Document{}, false
	}
	return doc.Clone(), true
}

// Update merges p into the document. The title is replaced when supplied and
// content is shallow-merged: only the supplied top-level content fields are
// replaced. UpdatedAt always moves forward, even when the clock does not.
func (r *DocumentRepository) Update(id string, p model.Patch) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		logger.Sugar.Warnf("Update rejected: document %s not found", id)
		return model.Document{}, model.NewError("update", id, model.ErrNotFound)
	}

	updated := doc.Clone()
	if p.Title != nil {
		updated.Title = *p.Title
	}
	if p.Content != nil {
		updated.Content = updated.Content.Merge(*p.Content)
	}
	updated.UpdatedAt = r.tick(doc.UpdatedAt)
	updated.Version++

	*doc = updated
	return doc.Clone(), nil
}

func (r *DocumentRepository) tick(prev time.Time) time.Time {
	now := r.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// Remove deletes the document. A missing id is an error rather than a no-op.
// The id stays reserved so it is never handed out again.
func (r *DocumentRepository) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		logger.Sugar.Warnf("Remove rejected: document %s not found", id)
		return model.NewError("remove", id, model.ErrNotFound)
	}
	delete(r.docs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns documents in creation order. An empty kind matches all.
func (r *DocumentRepository) List(kind model.Kind) []model.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]model.Document, 0, len(r.order))
	for _, id := range r.order {
		doc := r.docs[id]
		if kind != "" && doc.Kind != kind {
			continue
		}
		docs = append(docs, doc.Clone())
	}
	return docs
}

// Search matches titles case-insensitively, most recently updated first.
func (r *DocumentRepository) Search(query string, kind model.Kind) []model.Document {
	q := strings.ToLower(strings.TrimSpace(query))
	var docs []model.Document
	for _, doc := range r.List(kind) {
		if strings.Contains(strings.ToLower(doc.Title), q) {
			docs = append(docs, doc)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
	return docs
}

func (r *DocumentRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
