package model

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a document's content schema.
type Kind string

const (
	KindText         Kind = "text"
	KindSpreadsheet  Kind = "spreadsheet"
	KindPresentation Kind = "presentation"
	KindPDF          Kind = "pdf"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindText, KindSpreadsheet, KindPresentation, KindPDF}

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindSpreadsheet, KindPresentation, KindPDF:
		return true
	}
	return false
}

// Content is the kind-specific payload of a document. The set of
// implementations is closed: TextContent, SpreadsheetContent,
// PresentationContent and PDFContent.
type Content interface {
	Kind() Kind
	// Clone returns a deep copy sharing no memory with the receiver.
	Clone() Content
	// Merge returns a copy with the fields supplied in p replaced. Fields
	// belonging to other kinds have no slot here and are ignored.
	Merge(p ContentPatch) Content

	isContent()
}

type TextContent struct {
	Text string `json:"text"`
}

type Sheet struct {
	Name string     `json:"name"`
	Data [][]string `json:"data"`
}

func (s Sheet) Rows() int { return len(s.Data) }

func (s Sheet) Cols() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

type SpreadsheetContent struct {
	Sheets []Sheet `json:"sheets"`
}

type Layout string

const (
	LayoutTitle     Layout = "title"
	LayoutContent   Layout = "content"
	LayoutTwoColumn Layout = "two-column"
	LayoutImage     Layout = "image"
)

func (l Layout) Valid() bool {
	switch l {
	case LayoutTitle, LayoutContent, LayoutTwoColumn, LayoutImage:
		return true
	}
	return false
}

type Slide struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Layout     Layout `json:"layout"`
	Background string `json:"background"`
}

type PresentationContent struct {
	Slides []Slide `json:"slides"`
}

// PDFContent only tracks the page sequence; each page descriptor is kept as
// the raw JSON the client supplied.
type PDFContent struct {
	Pages []json.RawMessage `json:"pages"`
}

func (TextContent) Kind() Kind         { return KindText }
func (SpreadsheetContent) Kind() Kind  { return KindSpreadsheet }
func (PresentationContent) Kind() Kind { return KindPresentation }
func (PDFContent) Kind() Kind          { return KindPDF }

func (TextContent) isContent()         {}
func (SpreadsheetContent) isContent()  {}
func (PresentationContent) isContent() {}
func (PDFContent) isContent()          {}

func (c TextContent) Clone() Content { return c }

func (c SpreadsheetContent) Clone() Content {
	return SpreadsheetContent{Sheets: cloneSheets(c.Sheets)}
}

func (c PresentationContent) Clone() Content {
	return PresentationContent{Slides: cloneSlides(c.Slides)}
}

func (c PDFContent) Clone() Content {
	return PDFContent{Pages: clonePages(c.Pages)}
}

func (c TextContent) Merge(p ContentPatch) Content {
	if p.Text != nil {
		c.Text = *p.Text
	}
	return c
}

func (c SpreadsheetContent) Merge(p ContentPatch) Content {
	out := c.Clone().(SpreadsheetContent)
	if p.Sheets != nil {
		out.Sheets = cloneSheets(p.Sheets)
	}
	return out
}

func (c PresentationContent) Merge(p ContentPatch) Content {
	out := c.Clone().(PresentationContent)
	if p.Slides != nil {
		out.Slides = cloneSlides(p.Slides)
	}
	return out
}

func (c PDFContent) Merge(p ContentPatch) Content {
	out := c.Clone().(PDFContent)
	if p.Pages != nil {
		out.Pages = clonePages(p.Pages)
	}
	return out
}

// ContentPatch carries the top-level content fields an update replaces.
// A nil field is absent; an empty non-nil slice replaces with an empty list.
type ContentPatch struct {
	Text   *string           `json:"text,omitempty"`
	Sheets []Sheet           `json:"sheets,omitempty"`
	Slides []Slide           `json:"slides,omitempty"`
	Pages  []json.RawMessage `json:"pages,omitempty"`
}

// Field names as they appear on the wire.
const (
	FieldText   = "text"
	FieldSheets = "sheets"
	FieldSlides = "slides"
	FieldPages  = "pages"
)

// Fields returns the names of the supplied fields.
func (p ContentPatch) Fields() []string {
	var fields []string
	if p.Text != nil {
		fields = append(fields, FieldText)
	}
	if p.Sheets != nil {
		fields = append(fields, FieldSheets)
	}
	if p.Slides != nil {
		fields = append(fields, FieldSlides)
	}
	if p.Pages != nil {
		fields = append(fields, FieldPages)
	}
	return fields
}

// Patch is a partial update: a nil field leaves the document's value alone.
type Patch struct {
	Title   *string       `json:"title,omitempty"`
	Content *ContentPatch `json:"content,omitempty"`
}

func TitlePatch(title string) Patch {
	return Patch{Title: &title}
}

func TextPatch(text string) Patch {
	return Patch{Content: &ContentPatch{Text: &text}}
}

func SheetsPatch(sheets []Sheet) Patch {
	if sheets == nil {
		sheets = []Sheet{}
	}
	return Patch{Content: &ContentPatch{Sheets: sheets}}
}

func SlidesPatch(slides []Slide) Patch {
	if slides == nil {
		slides = []Slide{}
	}
	return Patch{Content: &ContentPatch{Slides: slides}}
}

func PagesPatch(pages []json.RawMessage) Patch {
	if pages == nil {
		pages = []json.RawMessage{}
	}
	return Patch{Content: &ContentPatch{Pages: pages}}
}

// DecodeContent parses raw into the content type for kind.
func DecodeContent(kind Kind, raw json.RawMessage) (Content, error) {
	var (
		c   Content
		err error
	)
	switch kind {
	case KindText:
		var v TextContent
		err = json.Unmarshal(raw, &v)
		c = v
	case KindSpreadsheet:
		var v SpreadsheetContent
		err = json.Unmarshal(raw, &v)
		if v.Sheets == nil {
			v.Sheets = []Sheet{}
		}
		c = v
	case KindPresentation:
		var v PresentationContent
		err = json.Unmarshal(raw, &v)
		if v.Slides == nil {
			v.Slides = []Slide{}
		}
		c = v
	case KindPDF:
		var v PDFContent
		err = json.Unmarshal(raw, &v)
		if v.Pages == nil {
			v.Pages = []json.RawMessage{}
		}
		c = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s content: %w", kind, err)
	}
	return c, nil
}

func cloneSheets(in []Sheet) []Sheet {
	if in == nil {
		return nil
	}
	out := make([]Sheet, len(in))
	for i, s := range in {
		out[i] = Sheet{Name: s.Name, Data: cloneGrid(s.Data)}
	}
	return out
}

func cloneGrid(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
		if row != nil && out[i] == nil {
			out[i] = []string{}
		}
	}
	return out
}

func cloneSlides(in []Slide) []Slide {
	if in == nil {
		return nil
	}
	out := make([]Slide, len(in))
	copy(out, in)
	return out
}

func clonePages(in []json.RawMessage) []json.RawMessage {
	if in == nil {
		return nil
	}
	out := make([]json.RawMessage, len(in))
	for i, p := range in {
		if p != nil {
			out[i] = append(json.RawMessage{}, p...)
		}
	}
	return out
}
