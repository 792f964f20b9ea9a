// Package schema maps each document kind to its canonical empty content and
// checks that content patches fit a kind.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"ruangkerja/internal/document/model"
)

const (
	DefaultSheetName = "Sheet1"
	DefaultRows      = 20
	DefaultCols      = 10
)

// DefaultContent returns a fresh empty payload for kind. Every call allocates
// a new value, so callers may mutate the result freely.
func DefaultContent(kind model.Kind) (model.Content, error) {
	switch kind {
	case model.KindText:
		return model.TextContent{Text: ""}, nil
	case model.KindSpreadsheet:
		return model.SpreadsheetContent{Sheets: []model.Sheet{
			{Name: DefaultSheetName, Data: EmptyGrid(DefaultRows, DefaultCols)},
		}}, nil
	case model.KindPresentation:
		return model.PresentationContent{Slides: []model.Slide{{
			ID:         1,
			Title:      "Title Slide",
			Content:    "Subtitle",
			Layout:     model.LayoutTitle,
			Background: model.DefaultSlideBackground,
		}}}, nil
	case model.KindPDF:
		return model.PDFContent{Pages: []json.RawMessage{}}, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
}

// EmptyGrid builds a rows×cols grid of empty strings.
func EmptyGrid(rows, cols int) [][]string {
	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	return grid
}

// ParseKind accepts the canonical kind names. "writer" is still accepted as
// an alias for text because older clients send it.
func ParseKind(s string) (model.Kind, error) {
	k := model.Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "writer" {
		return model.KindText, nil
	}
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", model.ErrUnknownKind, s)
	}
	return k, nil
}

// RequiredField names the top-level content field a kind cannot do without.
func RequiredField(kind model.Kind) string {
	switch kind {
	case model.KindText:
		return model.FieldText
	case model.KindSpreadsheet:
		return model.FieldSheets
	case model.KindPresentation:
		return model.FieldSlides
	case model.KindPDF:
		return model.FieldPages
	}
	return ""
}

// IsShapeCompatible reports whether p carries the kind's required field and
// nothing that belongs to another kind.
func IsShapeCompatible(kind model.Kind, p model.ContentPatch) bool {
	return checkFields(kind, p) == nil
}

// Validate is the strict form of IsShapeCompatible. Besides the field check it
// rejects empty or ragged grids, unknown slide layouts and duplicate slide ids.
func Validate(kind model.Kind, p model.ContentPatch) error {
	if err := checkFields(kind, p); err != nil {
		return err
	}
	switch kind {
	case model.KindSpreadsheet:
		for i, s := range p.Sheets {
			if s.Rows() == 0 || s.Cols() == 0 {
				return fmt.Errorf("%w: sheet %d has an empty grid", model.ErrShapeMismatch, i)
			}
			for r, row := range s.Data {
				if len(row) != s.Cols() {
					return fmt.Errorf("%w: sheet %d row %d has %d columns, want %d",
						model.ErrShapeMismatch, i, r, len(row), s.Cols())
				}
			}
		}
	case model.KindPresentation:
		seen := make(map[int]bool, len(p.Slides))
		for _, s := range p.Slides {
			if seen[s.ID] {
				return fmt.Errorf("%w: duplicate slide id %d", model.ErrShapeMismatch, s.ID)
			}
			seen[s.ID] = true
			if !s.Layout.Valid() {
				return fmt.Errorf("%w: slide %d has unknown layout %q", model.ErrShapeMismatch, s.ID, s.Layout)
			}
		}
	}
	return nil
}

// ValidateUpdate runs Validate and also checks p against the content it will
// replace. A sheet's row and column counts are fixed once it exists: sheets
// may be appended or dropped, but a sheet kept at the same position must keep
// its dimensions.
func ValidateUpdate(current model.Content, p model.ContentPatch) error {
	if err := Validate(current.Kind(), p); err != nil {
		return err
	}
	sc, ok := current.(model.SpreadsheetContent)
	if !ok {
		return nil
	}
	for i, s := range p.Sheets {
		if i >= len(sc.Sheets) {
			break
		}
		old := sc.Sheets[i]
		if s.Rows() != old.Rows() || s.Cols() != old.Cols() {
			return fmt.Errorf("%w: sheet %d is %dx%d, cannot become %dx%d",
				model.ErrShapeMismatch, i, old.Rows(), old.Cols(), s.Rows(), s.Cols())
		}
	}
	return nil
}

func checkFields(kind model.Kind, p model.ContentPatch) error {
	required := RequiredField(kind)
	if required == "" {
		return fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}
	fields := p.Fields()
	found := false
	for _, f := range fields {
		if f != required {
			return fmt.Errorf("%w: field %q does not belong to %s content", model.ErrShapeMismatch, f, kind)
		}
		found = true
	}
	if !found {
		return fmt.Errorf("%w: %s content requires %q", model.ErrShapeMismatch, kind, required)
	}
	return nil
}
