package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type Document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Kind          Kind      `json:"kind"`
	Content       Content   `json:"content"`
	Version       int       `json:"version"`
	Collaborators []string  `json:"collaborators"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	if d.Content != nil {
		out.Content = d.Content.Clone()
	}
	out.Collaborators = append([]string{}, d.Collaborators...)
	return out
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type alias Document
	var raw struct {
		alias
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Document(raw.alias)
	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		d.Content = nil
		return nil
	}
	c, err := DecodeContent(d.Kind, raw.Content)
	if err != nil {
		return err
	}
	d.Content = c
	return nil
}

type CreateDocRequest struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

type SelectDocRequest struct {
	DocID string `json:"document_id"`
}

type SlideRequest struct {
	DocID string `json:"document_id"`
	Index int    `json:"index"`
}

// SlideEditRequest updates the slide at Index; absent fields are kept.
type SlideEditRequest struct {
	DocID string `json:"document_id"`
	Index int    `json:"index"`
	SlideUpdate
}

type CellRequest struct {
	DocID string `json:"document_id"`
	Sheet int    `json:"sheet"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

type TextRequest struct {
	DocID string `json:"document_id"`
	Text  string `json:"text"`
}

type AIActionRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type DocumentMetadata struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Kind      Kind      `json:"kind"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Snippet   string    `json:"snippet"`
	IsCurrent bool      `json:"is_current"`
}

func (d Document) Metadata(currentID string) DocumentMetadata {
	return DocumentMetadata{
		ID:        d.ID,
		Title:     d.Title,
		Kind:      d.Kind,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
		Snippet:   Snippet(d.Content),
		IsCurrent: currentID != "" && d.ID == currentID,
	}
}

const snippetLen = 100

// Snippet renders a short single-line preview of the content.
func Snippet(c Content) string {
	var sb strings.Builder
	switch v := c.(type) {
	case TextContent:
		sb.WriteString(v.Text)
	case SpreadsheetContent:
	cells:
		for _, s := range v.Sheets {
			for _, row := range s.Data {
				for _, cell := range row {
					if cell == "" {
						continue
					}
					if sb.Len() > 0 {
						sb.WriteString(" ")
					}
					sb.WriteString(cell)
					if sb.Len() > snippetLen {
						break cells
					}
				}
			}
		}
	case PresentationContent:
		for _, s := range v.Slides {
			if sb.Len() > 0 {
				sb.WriteString(" / ")
			}
			sb.WriteString(s.Title)
			if sb.Len() > snippetLen {
				break
			}
		}
	case PDFContent:
		return fmt.Sprintf("%d pages", len(v.Pages))
	}
	res := strings.TrimSpace(sb.String())
	res = strings.ReplaceAll(res, "\n", " ")
	if len(res) > snippetLen {
		n := snippetLen
		for n > 0 && !utf8.RuneStart(res[n]) {
			n--
		}
		return res[:n] + "..."
	}
	return res
}
