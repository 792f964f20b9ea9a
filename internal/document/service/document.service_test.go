package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ruangkerja/internal/ai"
	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/repository"
	"ruangkerja/internal/document/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return NewWorkspace(nil)
}

func TestCreateDocumentSelectsIt(t *testing.T) {
	w := newWorkspace(t)

	doc, err := w.CreateDocument(model.KindPresentation, "Pitch")
	require.NoError(t, err)

	cur, ok := w.GetCurrentDocument()
	require.True(t, ok)
	assert.Equal(t, doc.ID, cur.ID)
	assert.Equal(t, model.PresentationContent{Slides: []model.Slide{{
		ID:         1,
		Title:      "Title Slide",
		Content:    "Subtitle",
		Layout:     model.LayoutTitle,
		Background: "#ffffff",
	}}}, cur.Content)
}

func TestCreateDocumentUnknownKindLeavesSelection(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindText, "")
	require.NoError(t, err)

	_, err = w.CreateDocument(model.Kind("video"), "")
	assert.ErrorIs(t, err, model.ErrUnknownKind)

	cur, ok := w.GetCurrentDocument()
	require.True(t, ok)
	assert.Equal(t, doc.ID, cur.ID)
	assert.Equal(t, 1, w.Repo.Count())
}

func TestSelectorSeesUpdate(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindText, "Notes")
	require.NoError(t, err)
	require.NoError(t, w.SelectDocument(doc.ID))

	updated, err := w.UpdateDocument(doc.ID, model.TextPatch("patched"))
	require.NoError(t, err)

	cur, ok := w.GetCurrentDocument()
	require.True(t, ok)
	assert.Equal(t, model.TextContent{Text: "patched"}, cur.Content)
	assert.Equal(t, updated.UpdatedAt, cur.UpdatedAt)
	assert.Equal(t, updated.Version, cur.Version)
}

func TestUpdateMissingDocument(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindText, "Keep")
	require.NoError(t, err)

	_, err = w.UpdateDocument("missing-id", model.TitlePatch("x"))
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Equal(t, 1, w.Repo.Count())
	got, ok := w.GetDocument(doc.ID)
	require.True(t, ok)
	assert.Equal(t, doc, got)
}

func TestUpdateRejectsForeignShape(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindSpreadsheet, "Sheet")
	require.NoError(t, err)

	_, err = w.UpdateDocument(doc.ID, model.TextPatch("not a grid"))
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	got, _ := w.GetDocument(doc.ID)
	assert.Equal(t, doc.UpdatedAt, got.UpdatedAt, "rejected patch must not touch the document")
	assert.Equal(t, doc.Content, got.Content)
}

func TestDispatcherApplyBypassesValidation(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindSpreadsheet, "Sheet")
	require.NoError(t, err)

	// The foreign text field has no slot in spreadsheet content.
	updated, err := w.Dispatcher.Apply(doc.ID, model.TextPatch("ignored"))
	require.NoError(t, err)
	assert.Equal(t, doc.Content, updated.Content)
	assert.True(t, updated.UpdatedAt.After(doc.UpdatedAt))
}

func TestDuplicateFirstSlide(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindPresentation, "Deck")
	require.NoError(t, err)

	updated, err := w.DuplicateSlide(doc.ID, 0)
	require.NoError(t, err)

	slides := updated.Content.(model.PresentationContent).Slides
	require.Len(t, slides, 2)
	assert.Equal(t, 1, slides[0].ID)
	assert.Equal(t, 2, slides[1].ID)
	assert.Equal(t, "Title Slide (Copy)", slides[1].Title)
	assert.Equal(t, "Subtitle", slides[1].Content)
}

func TestSlideEditing(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindPresentation, "Deck")
	require.NoError(t, err)

	_, err = w.DeleteSlide(doc.ID, 0)
	assert.ErrorIs(t, err, model.ErrLastSlide)

	updated, err := w.AddSlide(doc.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Content.(model.PresentationContent).Slides, 2)

	title := "Agenda"
	updated, err = w.UpdateSlide(doc.ID, 1, model.SlideUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Agenda", updated.Content.(model.PresentationContent).Slides[1].Title)

	updated, err = w.DeleteSlide(doc.ID, 0)
	require.NoError(t, err)
	slides := updated.Content.(model.PresentationContent).Slides
	require.Len(t, slides, 1)
	assert.Equal(t, "Agenda", slides[0].Title)

	_, err = w.DuplicateSlide(doc.ID, 5)
	assert.ErrorIs(t, err, model.ErrSlideOutOfRange)

	text, _ := w.CreateDocument(model.KindText, "")
	_, err = w.AddSlide(text.ID)
	assert.ErrorIs(t, err, model.ErrShapeMismatch)
}

func TestSetCellAndText(t *testing.T) {
	w := newWorkspace(t)
	sheet, err := w.CreateDocument(model.KindSpreadsheet, "")
	require.NoError(t, err)

	updated, err := w.SetCell(sheet.ID, 0, 19, 9, "last")
	require.NoError(t, err)
	assert.Equal(t, "last", updated.Content.(model.SpreadsheetContent).Sheets[0].Data[19][9])

	_, err = w.SetCell(sheet.ID, 0, 20, 0, "x")
	assert.ErrorIs(t, err, model.ErrCellOutOfRange)

	text, err := w.CreateDocument(model.KindText, "")
	require.NoError(t, err)
	updated, err = w.SetText(text.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, model.TextContent{Text: "hello"}, updated.Content)

	_, err = w.SetCell(text.ID, 0, 0, 0, "x")
	assert.ErrorIs(t, err, model.ErrShapeMismatch)
}

func TestRemoveCurrentClearsSelection(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindPDF, "Scan")
	require.NoError(t, err)

	require.NoError(t, w.RemoveDocument(doc.ID))
	_, ok := w.GetCurrentDocument()
	assert.False(t, ok)

	assert.ErrorIs(t, w.RemoveDocument(doc.ID), model.ErrNotFound)
}

func TestListDocumentsMarksCurrent(t *testing.T) {
	w := newWorkspace(t)
	a, _ := w.CreateDocument(model.KindText, "Alpha notes")
	b, _ := w.CreateDocument(model.KindSpreadsheet, "Beta sheet")

	list := w.ListDocuments("")
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.False(t, list[0].IsCurrent)
	assert.True(t, list[1].IsCurrent)

	list = w.ListDocuments(model.KindText)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	list = w.SearchDocuments("beta", "")
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.True(t, list[0].IsCurrent)
}

func TestSearchDocumentsMostRecentFirst(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWorkspace(nil, repository.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	a, _ := w.CreateDocument(model.KindText, "Plan A")
	b, _ := w.CreateDocument(model.KindText, "Plan B")
	w.CreateDocument(model.KindPDF, "Invoice")

	found := w.SearchDocuments("plan", "")
	require.Len(t, found, 2)
	assert.Equal(t, b.ID, found[0].ID)

	_, err := w.UpdateDocument(a.ID, model.TitlePatch("Plan A v2"))
	require.NoError(t, err)
	found = w.SearchDocuments("PLAN", model.KindText)
	require.Len(t, found, 2)
	assert.Equal(t, a.ID, found[0].ID)

	assert.Empty(t, w.SearchDocuments("plan", model.KindPDF))
}

func TestRequestAIAction(t *testing.T) {
	var got ai.Request
	w := NewWorkspace(ai.ProcessorFunc(func(ctx context.Context, req ai.Request) (ai.Result, error) {
		got = req
		req.Document.Title = "mutated by processor"
		return ai.Result{Action: req.Action, DocumentID: req.Document.ID, Status: ai.StatusAccepted}, nil
	}))

	_, err := w.RequestAIAction(context.Background(), ai.Summarize, nil)
	assert.ErrorIs(t, err, ErrNoCurrentDocument)

	doc, err := w.CreateDocument(model.KindText, "Essay")
	require.NoError(t, err)

	res, err := w.RequestAIAction(context.Background(), ai.Summarize, map[string]any{"length": "short"})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, res.DocumentID)
	assert.Equal(t, ai.Summarize, got.Action)
	assert.Equal(t, "short", got.Parameters["length"])

	cur, _ := w.GetCurrentDocument()
	assert.Equal(t, "Essay", cur.Title)

	history := w.AIHistory(0)
	require.Len(t, history, 1)
	assert.Equal(t, res, history[0])
}

func TestAIHistoryNewestFirst(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.CreateDocument(model.KindText, "")
	require.NoError(t, err)

	for _, a := range []ai.Action{ai.Summarize, ai.Grammar, ai.Format} {
		_, err := w.RequestAIAction(context.Background(), a, nil)
		require.NoError(t, err)
	}

	history := w.AIHistory(2)
	require.Len(t, history, 2)
	assert.Equal(t, ai.Format, history[0].Action)
	assert.Equal(t, ai.Grammar, history[1].Action)
}

func TestRequestAIActionProcessorError(t *testing.T) {
	boom := errors.New("model offline")
	w := NewWorkspace(ai.ProcessorFunc(func(ctx context.Context, req ai.Request) (ai.Result, error) {
		return ai.Result{}, boom
	}))
	_, err := w.CreateDocument(model.KindText, "")
	require.NoError(t, err)

	_, err = w.RequestAIAction(context.Background(), ai.Translate, nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, w.AIHistory(0), "failed actions are not recorded")
}

func TestChangeListeners(t *testing.T) {
	w := newWorkspace(t)
	var changes []Change
	w.Dispatcher.OnChange(func(c Change) { changes = append(changes, c) })

	doc, err := w.CreateDocument(model.KindText, "")
	require.NoError(t, err)
	_, err = w.SetText(doc.ID, "x")
	require.NoError(t, err)
	require.NoError(t, w.SelectDocument(""))
	require.NoError(t, w.SelectDocument(doc.ID))
	require.NoError(t, w.RemoveDocument(doc.ID))

	require.Len(t, changes, 5)
	assert.Equal(t, ChangeCreated, changes[0].Type)
	assert.Equal(t, ChangeUpdated, changes[1].Type)
	assert.Equal(t, model.TextContent{Text: "x"}, changes[1].Document.Content)
	assert.Equal(t, ChangeSelected, changes[2].Type)
	assert.Empty(t, changes[2].Document.ID, "cleared selection")
	assert.Equal(t, ChangeSelected, changes[3].Type)
	assert.Equal(t, doc.ID, changes[3].Document.ID)
	assert.Equal(t, 2, changes[3].Document.Version)
	assert.Equal(t, ChangeRemoved, changes[4].Type)
	assert.Equal(t, doc.ID, changes[4].Document.ID)
}

func TestFailedSelectEmitsNothing(t *testing.T) {
	w := newWorkspace(t)
	var changes []Change
	w.Dispatcher.OnChange(func(c Change) { changes = append(changes, c) })

	assert.ErrorIs(t, w.SelectDocument("missing"), model.ErrNotFound)
	assert.Empty(t, changes)
}

func TestUpdateKeepsSheetDimensions(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindSpreadsheet, "Grid")
	require.NoError(t, err)

	_, err = w.UpdateDocument(doc.ID, model.SheetsPatch([]model.Sheet{{Name: "Sheet1", Data: [][]string{{"a"}}}}))
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	_, err = w.UpdateDocument(doc.ID, model.SheetsPatch([]model.Sheet{{Name: "Sheet1"}}))
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	// Same dimensions, plus an appended sheet of its own size.
	grid := schema.EmptyGrid(20, 10)
	grid[3][4] = "x"
	updated, err := w.UpdateDocument(doc.ID, model.SheetsPatch([]model.Sheet{
		{Name: "Renamed", Data: grid},
		{Name: "Extra", Data: schema.EmptyGrid(2, 3)},
	}))
	require.NoError(t, err)
	sheets := updated.Content.(model.SpreadsheetContent).Sheets
	require.Len(t, sheets, 2)
	assert.Equal(t, "x", sheets[0].Data[3][4])
	assert.Equal(t, 3, sheets[1].Cols())
}

func TestConcurrentUpdatesKeepVersionsConsistent(t *testing.T) {
	w := newWorkspace(t)
	doc, err := w.CreateDocument(model.KindText, "")
	require.NoError(t, err)

	const writers = 8
	const edits = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < edits; j++ {
				_, err := w.SetText(doc.ID, "edit")
				assert.NoError(t, err)
				_, _ = w.GetCurrentDocument()
			}
		}()
	}
	wg.Wait()

	cur, ok := w.GetCurrentDocument()
	require.True(t, ok)
	assert.Equal(t, 1+writers*edits, cur.Version)
}

func TestSessionsIsolateUsers(t *testing.T) {
	s := NewSessions(nil)
	var seen []string
	s.OnChange(func(userID string, c Change) { seen = append(seen, userID+":"+string(c.Type)) })

	alice := s.Workspace("alice")
	bob := s.Workspace("bob")
	assert.Same(t, alice, s.Workspace("alice"))
	assert.Equal(t, 2, s.Len())

	doc, err := alice.CreateDocument(model.KindText, "private")
	require.NoError(t, err)

	_, ok := bob.GetDocument(doc.ID)
	assert.False(t, ok)
	_, ok = bob.GetCurrentDocument()
	assert.False(t, ok)

	assert.Equal(t, []string{"alice:created"}, seen)
}
