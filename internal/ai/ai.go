// Package ai dispatches AI actions against document snapshots. The actual
// processing belongs to a Processor supplied by the caller.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ruangkerja/internal/document/model"
	"ruangkerja/pkg/logger"

	"github.com/google/uuid"
)

type Action string

const (
	Summarize Action = "summarize"
	Grammar   Action = "grammar"
	Translate Action = "translate"
	Analyze   Action = "analyze"
	Format    Action = "format"
	Generate  Action = "generate"
)

var Actions = []Action{Summarize, Grammar, Translate, Analyze, Format, Generate}

var ErrUnknownAction = errors.New("unknown AI action")

// Older clients use the long action names.
var aliases = map[string]Action{
	"grammar_check":    Grammar,
	"analyze_data":     Analyze,
	"generate_content": Generate,
}

func ParseAction(s string) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if a, ok := aliases[name]; ok {
		return a, nil
	}
	for _, a := range Actions {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Request carries a read-only snapshot; processors must not expect changes
// they make to it to reach the store.
type Request struct {
	Action     Action
	Document   model.Document
	Parameters map[string]any
}

type Result struct {
	ID               string         `json:"id"`
	Action           Action         `json:"action"`
	DocumentID       string         `json:"document_id"`
	DocumentKind     model.Kind     `json:"document_kind"`
	DocumentVersion  int            `json:"document_version"`
	Status           string         `json:"status"`
	Output           map[string]any `json:"output,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`
}

const StatusAccepted = "accepted"

type Processor interface {
	Process(ctx context.Context, req Request) (Result, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, req Request) (Result, error)

func (f ProcessorFunc) Process(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// AcknowledgingProcessor records the request and answers with an accepted
// result. It performs no computation of its own.
type AcknowledgingProcessor struct {
	Now func() time.Time
}

func (p AcknowledgingProcessor) Process(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	start := now()
	logger.Sugar.Infof("AI action %s requested for document %s (v%d)", req.Action, req.Document.ID, req.Document.Version)
	return Result{
		ID:               uuid.NewString(),
		Action:           req.Action,
		DocumentID:       req.Document.ID,
		DocumentKind:     req.Document.Kind,
		DocumentVersion:  req.Document.Version,
		Status:           StatusAccepted,
		ProcessingTimeMs: now().Sub(start).Milliseconds(),
		CreatedAt:        start,
	}, nil
}
