package model

import "fmt"

const (
	DefaultSlideBackground = "#ffffff"
	copySuffix             = " (Copy)"
)

// SlideUpdate changes individual slide fields; the slide id never changes.
type SlideUpdate struct {
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	Layout     *Layout `json:"layout,omitempty"`
	Background *string `json:"background,omitempty"`
}

// NextSlideID is one past the highest id in the sequence, or 1 when empty.
func (c PresentationContent) NextSlideID() int {
	next := 1
	for _, s := range c.Slides {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}

// AddSlide returns the slides with a fresh content slide appended.
func (c PresentationContent) AddSlide() []Slide {
	out := cloneSlides(c.Slides)
	n := len(out) + 1
	return append(out, Slide{
		ID:         c.NextSlideID(),
		Title:      fmt.Sprintf("Slide %d", n),
		Content:    "Content goes here...",
		Layout:     LayoutContent,
		Background: DefaultSlideBackground,
	})
}

// DuplicateSlide inserts a copy of slide i directly after it.
func (c PresentationContent) DuplicateSlide(i int) ([]Slide, error) {
	if i < 0 || i >= len(c.Slides) {
		return nil, fmt.Errorf("%w: %d", ErrSlideOutOfRange, i)
	}
	dup := c.Slides[i]
	dup.ID = c.NextSlideID()
	dup.Title += copySuffix

	out := make([]Slide, 0, len(c.Slides)+1)
	out = append(out, c.Slides[:i+1]...)
	out = append(out, dup)
	out = append(out, c.Slides[i+1:]...)
	return out, nil
}

// DeleteSlide removes slide i. A presentation always keeps one slide.
func (c PresentationContent) DeleteSlide(i int) ([]Slide, error) {
	if i < 0 || i >= len(c.Slides) {
		return nil, fmt.Errorf("%w: %d", ErrSlideOutOfRange, i)
	}
	if len(c.Slides) <= 1 {
		return nil, ErrLastSlide
	}
	out := make([]Slide, 0, len(c.Slides)-1)
	out = append(out, c.Slides[:i]...)
	return append(out, c.Slides[i+1:]...), nil
}

func (c PresentationContent) UpdateSlide(i int, u SlideUpdate) ([]Slide, error) {
	if i < 0 || i >= len(c.Slides) {
		return nil, fmt.Errorf("%w: %d", ErrSlideOutOfRange, i)
	}
	if u.Layout != nil && !u.Layout.Valid() {
		return nil, fmt.Errorf("%w: unknown layout %q", ErrShapeMismatch, *u.Layout)
	}
	out := cloneSlides(c.Slides)
	s := &out[i]
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Content != nil {
		s.Content = *u.Content
	}
	if u.Layout != nil {
		s.Layout = *u.Layout
	}
	if u.Background != nil {
		s.Background = *u.Background
	}
	return out, nil
}

// SetCell writes value into one cell. The grid keeps its dimensions.
func (c SpreadsheetContent) SetCell(sheet, row, col int, value string) ([]Sheet, error) {
	if sheet < 0 || sheet >= len(c.Sheets) {
		return nil, fmt.Errorf("%w: sheet %d", ErrCellOutOfRange, sheet)
	}
	s := c.Sheets[sheet]
	if row < 0 || row >= s.Rows() || col < 0 || col >= len(s.Data[row]) {
		return nil, fmt.Errorf("%w: sheet %d row %d col %d", ErrCellOutOfRange, sheet, row, col)
	}
	out := cloneSheets(c.Sheets)
	out[sheet].Data[row][col] = value
	return out, nil
}
