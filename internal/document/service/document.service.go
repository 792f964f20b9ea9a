package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ruangkerja/internal/ai"
	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/repository"
	"ruangkerja/internal/document/schema"
	"ruangkerja/internal/document/selector"
	"ruangkerja/pkg/logger"
)

var ErrNoCurrentDocument = errors.New("no document is selected")

// Workspace is one application session: the documents a user owns, the
// document their editors are bound to, and the dispatcher that mutates them.
// Every operation runs to completion under the workspace lock.
type Workspace struct {
	mu         sync.Mutex
	Repo       *repository.DocumentRepository
	Selector   *selector.Selector
	Dispatcher *Dispatcher
	AI         ai.Processor
	History    *ai.History
}

func NewWorkspace(processor ai.Processor, opts ...repository.Option) *Workspace {
	if processor == nil {
		processor = ai.AcknowledgingProcessor{}
	}
	repo := repository.NewDocumentRepository(opts...)
	sel := selector.New(repo)
	return &Workspace{
		Repo:       repo,
		Selector:   sel,
		Dispatcher: NewDispatcher(repo, sel),
		AI:         processor,
		History:    ai.NewHistory(ai.DefaultHistorySize),
	}
}

// CreateDocument creates a document of kind and makes it current.
func (w *Workspace) CreateDocument(kind model.Kind, title string) (model.Document, error) {
	w.mu.Lock()
	doc, err := w.Repo.Create(kind, title)
	if err == nil {
		err = w.Selector.Select(doc.ID)
	}
	w.mu.Unlock()
	if err != nil {
		return model.Document{}, err
	}

	logger.Sugar.Infof("Created %s document %s", doc.Kind, doc.ID)
	w.Dispatcher.created(doc)
	return doc, nil
}

// UpdateDocument validates p against the document's kind and applies it.
func (w *Workspace) UpdateDocument(id string, p model.Patch) (model.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.update("update", id, p)
}

// update must be called with mu held.
func (w *Workspace) update(op, id string, p model.Patch) (model.Document, error) {
	doc, ok := w.Repo.Get(id)
	if !ok {
		return model.Document{}, model.NewError(op, id, model.ErrNotFound)
	}
	if p.Content != nil {
		if err := schema.ValidateUpdate(doc.Content, *p.Content); err != nil {
			logger.Sugar.Warnf("Rejected %s patch for document %s: %v", doc.Kind, id, err)
			return model.Document{}, model.NewError(op, id, err)
		}
	}
	return w.Dispatcher.Apply(id, p)
}

func (w *Workspace) GetCurrentDocument() (model.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Selector.Current()
}

// SelectDocument makes id current; an empty id clears the selection.
// Listeners are told about the new selection with a selected change.
func (w *Workspace) SelectDocument(id string) error {
	w.mu.Lock()
	err := w.Selector.Select(id)
	var doc model.Document
	if err == nil {
		doc, _ = w.Selector.Current()
	}
	w.mu.Unlock()
	if err != nil {
		return err
	}

	w.Dispatcher.selected(doc)
	return nil
}

func (w *Workspace) GetDocument(id string) (model.Document, bool) {
	return w.Repo.Get(id)
}

func (w *Workspace) RemoveDocument(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Dispatcher.Remove(id)
}

// ListDocuments returns metadata in creation order, optionally filtered by
// kind.
func (w *Workspace) ListDocuments(kind model.Kind) []model.DocumentMetadata {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metadata(w.Repo.List(kind))
}

// SearchDocuments matches query against titles, most recently updated first.
func (w *Workspace) SearchDocuments(query string, kind model.Kind) []model.DocumentMetadata {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metadata(w.Repo.Search(query, kind))
}

// metadata must be called with mu held.
func (w *Workspace) metadata(docs []model.Document) []model.DocumentMetadata {
	currentID := w.Selector.CurrentID()
	out := make([]model.DocumentMetadata, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Metadata(currentID))
	}
	return out
}

// RequestAIAction hands a snapshot of the current document to the AI
// processor. The processor runs outside the workspace lock.
func (w *Workspace) RequestAIAction(ctx context.Context, action ai.Action, params map[string]any) (ai.Result, error) {
	doc, ok := w.GetCurrentDocument()
	if !ok {
		return ai.Result{}, ErrNoCurrentDocument
	}
	res, err := w.AI.Process(ctx, ai.Request{Action: action, Document: doc, Parameters: params})
	if err != nil {
		return ai.Result{}, err
	}
	w.History.Add(res)
	return res, nil
}

// AIHistory returns up to limit recorded AI results, newest first.
func (w *Workspace) AIHistory(limit int) []ai.Result {
	return w.History.Recent(limit)
}

func (w *Workspace) SetText(id, text string) (model.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.update("set text", id, model.TextPatch(text))
}

func (w *Workspace) SetCell(id string, sheet, row, col int, value string) (model.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.load("set cell", id, model.KindSpreadsheet)
	if err != nil {
		return model.Document{}, err
	}
	sheets, err := doc.Content.(model.SpreadsheetContent).SetCell(sheet, row, col, value)
	if err != nil {
		return model.Document{}, model.NewError("set cell", id, err)
	}
	return w.update("set cell", id, model.SheetsPatch(sheets))
}

func (w *Workspace) AddSlide(id string) (model.Document, error) {
	return w.editSlides("add slide", id, func(c model.PresentationContent) ([]model.Slide, error) {
		return c.AddSlide(), nil
	})
}

func (w *Workspace) UpdateSlide(id string, index int, u model.SlideUpdate) (model.Document, error) {
	return w.editSlides("update slide", id, func(c model.PresentationContent) ([]model.Slide, error) {
		return c.UpdateSlide(index, u)
	})
}

func (w *Workspace) DeleteSlide(id string, index int) (model.Document, error) {
	return w.editSlides("delete slide", id, func(c model.PresentationContent) ([]model.Slide, error) {
		return c.DeleteSlide(index)
	})
}

// DuplicateSlide inserts a copy of slide index right after it. The copy gets
// the next free slide id and a " (Copy)" title suffix.
func (w *Workspace) DuplicateSlide(id string, index int) (model.Document, error) {
	return w.editSlides("duplicate slide", id, func(c model.PresentationContent) ([]model.Slide, error) {
		return c.DuplicateSlide(index)
	})
}

func (w *Workspace) editSlides(op, id string, edit func(model.PresentationContent) ([]model.Slide, error)) (model.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.load(op, id, model.KindPresentation)
	if err != nil {
		return model.Document{}, err
	}
	slides, err := edit(doc.Content.(model.PresentationContent))
	if err != nil {
		return model.Document{}, model.NewError(op, id, err)
	}
	return w.update(op, id, model.SlidesPatch(slides))
}

// load must be called with mu held.
func (w *Workspace) load(op, id string, kind model.Kind) (model.Document, error) {
	doc, ok := w.Repo.Get(id)
	if !ok {
		return model.Document{}, model.NewError(op, id, model.ErrNotFound)
	}
	if doc.Kind != kind {
		return model.Document{}, model.NewError(op, id, fmt.Errorf("%w: document is %s, not %s", model.ErrShapeMismatch, doc.Kind, kind))
	}
	return doc, nil
}
