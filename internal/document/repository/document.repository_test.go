package repository

import (
	"fmt"
	"testing"
	"time"

	"ruangkerja/internal/document/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stuckClock always reports the same instant, which forces the repository to
// advance UpdatedAt on its own.
func stuckClock() func() time.Time {
	t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestCreateSpreadsheet(t *testing.T) {
	repo := NewDocumentRepository()

	doc, err := repo.Create(model.KindSpreadsheet, "")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, DefaultTitle, doc.Title)
	assert.Equal(t, model.KindSpreadsheet, doc.Kind)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	sheets := doc.Content.(model.SpreadsheetContent).Sheets
	require.Len(t, sheets, 1)
	assert.Equal(t, "Sheet1", sheets[0].Name)
	assert.Equal(t, 20, sheets[0].Rows())
	assert.Equal(t, 10, sheets[0].Cols())
	assert.Equal(t, 1, repo.Count())
}

func TestCreateUnknownKind(t *testing.T) {
	repo := NewDocumentRepository()

	_, err := repo.Create(model.Kind("video"), "x")
	assert.ErrorIs(t, err, model.ErrUnknownKind)
	assert.Equal(t, 0, repo.Count())
}

func TestIDsNeverReused(t *testing.T) {
	repo := NewDocumentRepository()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		doc, err := repo.Create(model.KindText, "")
		require.NoError(t, err)
		assert.False(t, seen[doc.ID], "id %s reissued", doc.ID)
		seen[doc.ID] = true
		require.NoError(t, repo.Remove(doc.ID))
	}
	assert.Equal(t, 0, repo.Count())
}

func TestRemovedIDIsNotReissuedByGenerator(t *testing.T) {
	// The generator replays ids; the repository must skip every one it
	// already handed out, including removed ones.
	seq := []string{"a", "a", "b", "a", "b", "c"}
	i := 0
	gen := func() string {
		id := seq[i%len(seq)]
		i++
		return id
	}
	repo := NewDocumentRepository(WithIDGenerator(gen))

	first, err := repo.Create(model.KindText, "")
	require.NoError(t, err)
	require.NoError(t, repo.Remove(first.ID))

	second, err := repo.Create(model.KindText, "")
	require.NoError(t, err)
	third, err := repo.Create(model.KindText, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, []string{first.ID, second.ID, third.ID})
}

func TestIDExhaustion(t *testing.T) {
	repo := NewDocumentRepository(WithIDGenerator(func() string { return "same" }))
	_, err := repo.Create(model.KindText, "")
	require.NoError(t, err)

	_, err = repo.Create(model.KindText, "")
	assert.ErrorIs(t, err, errIDExhausted)
	assert.Equal(t, 1, repo.Count())
}

func TestUpdateTitleTwice(t *testing.T) {
	repo := NewDocumentRepository(WithClock(stuckClock()))
	doc, err := repo.Create(model.KindText, "Draft")
	require.NoError(t, err)

	first, err := repo.Update(doc.ID, model.TitlePatch("Same"))
	require.NoError(t, err)
	second, err := repo.Update(doc.ID, model.TitlePatch("Same"))
	require.NoError(t, err)

	assert.Equal(t, "Same", second.Title)
	assert.Equal(t, doc.Content, first.Content)
	assert.Equal(t, doc.Content, second.Content)
	assert.True(t, first.UpdatedAt.After(doc.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, doc.CreatedAt, second.CreatedAt)
	assert.Equal(t, 3, second.Version)
}

func TestUpdateReplacesArrays(t *testing.T) {
	repo := NewDocumentRepository()
	doc, err := repo.Create(model.KindSpreadsheet, "Budget")
	require.NoError(t, err)

	s2 := model.Sheet{Name: "Q2", Data: [][]string{{"rev", "100"}}}
	updated, err := repo.Update(doc.ID, model.SheetsPatch([]model.Sheet{s2}))
	require.NoError(t, err)

	assert.Equal(t, model.SpreadsheetContent{Sheets: []model.Sheet{s2}}, updated.Content)
	assert.Equal(t, "Budget", updated.Title)
}

func TestUpdateTitleKeepsContent(t *testing.T) {
	repo := NewDocumentRepository()
	doc, err := repo.Create(model.KindPresentation, "Deck")
	require.NoError(t, err)

	updated, err := repo.Update(doc.ID, model.TitlePatch("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, doc.Content, updated.Content)
}

func TestUpdateMissing(t *testing.T) {
	repo := NewDocumentRepository()
	existing, err := repo.Create(model.KindText, "Keep")
	require.NoError(t, err)

	_, err = repo.Update("missing-id", model.TitlePatch("x"))
	require.ErrorIs(t, err, model.ErrNotFound)

	var docErr *model.DocumentError
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, "update", docErr.Op)
	assert.Equal(t, "missing-id", docErr.ID)

	assert.Equal(t, 1, repo.Count())
	got, ok := repo.Get(existing.ID)
	require.True(t, ok)
	assert.Equal(t, existing, got)
}

func TestGetReturnsCopies(t *testing.T) {
	repo := NewDocumentRepository()
	doc, err := repo.Create(model.KindSpreadsheet, "Copy")
	require.NoError(t, err)

	doc.Content.(model.SpreadsheetContent).Sheets[0].Data[0][0] = "leak"
	doc.Title = "leak"

	got, ok := repo.Get(doc.ID)
	require.True(t, ok)
	assert.Equal(t, "Copy", got.Title)
	assert.Equal(t, "", got.Content.(model.SpreadsheetContent).Sheets[0].Data[0][0])

	got.Content.(model.SpreadsheetContent).Sheets[0].Data[0][0] = "leak again"
	again, _ := repo.Get(doc.ID)
	assert.Equal(t, "", again.Content.(model.SpreadsheetContent).Sheets[0].Data[0][0])
}

func TestUpdateDoesNotAliasPatch(t *testing.T) {
	repo := NewDocumentRepository()
	doc, err := repo.Create(model.KindPresentation, "")
	require.NoError(t, err)

	slides := []model.Slide{{ID: 1, Title: "One", Layout: model.LayoutTitle}}
	_, err = repo.Update(doc.ID, model.SlidesPatch(slides))
	require.NoError(t, err)
	slides[0].Title = "mutated"

	got, _ := repo.Get(doc.ID)
	assert.Equal(t, "One", got.Content.(model.PresentationContent).Slides[0].Title)
}

func TestRemove(t *testing.T) {
	repo := NewDocumentRepository()
	a, _ := repo.Create(model.KindText, "a")
	b, _ := repo.Create(model.KindText, "b")
	c, _ := repo.Create(model.KindText, "c")

	require.NoError(t, repo.Remove(b.ID))
	_, ok := repo.Get(b.ID)
	assert.False(t, ok)

	err := repo.Remove(b.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	ids := []string{}
	for _, d := range repo.List("") {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{a.ID, c.ID}, ids)
}

func TestUpdateKeepsOrder(t *testing.T) {
	repo := NewDocumentRepository()
	var want []string
	for i := 0; i < 3; i++ {
		d, err := repo.Create(model.KindText, fmt.Sprintf("doc %d", i))
		require.NoError(t, err)
		want = append(want, d.ID)
	}
	_, err := repo.Update(want[0], model.TextPatch("edited"))
	require.NoError(t, err)

	var got []string
	for _, d := range repo.List("") {
		got = append(got, d.ID)
	}
	assert.Equal(t, want, got)
}

func TestListAndSearch(t *testing.T) {
	repo := NewDocumentRepository(WithClock(stuckClock()))
	report, _ := repo.Create(model.KindText, "Quarterly Report")
	sheet, _ := repo.Create(model.KindSpreadsheet, "Report Data")
	_, _ = repo.Create(model.KindPresentation, "Pitch")

	assert.Len(t, repo.List(""), 3)
	assert.Len(t, repo.List(model.KindSpreadsheet), 1)

	_, err := repo.Update(report.ID, model.TextPatch("body"))
	require.NoError(t, err)

	found := repo.Search("report", "")
	require.Len(t, found, 2)
	assert.Equal(t, report.ID, found[0].ID, "most recently updated first")
	assert.Equal(t, sheet.ID, found[1].ID)

	found = repo.Search("REPORT", model.KindSpreadsheet)
	require.Len(t, found, 1)
	assert.Equal(t, sheet.ID, found[0].ID)

	assert.Empty(t, repo.Search("nothing", ""))
}
