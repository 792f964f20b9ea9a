// Package mcpserver exposes the document workspace to AI agents as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ruangkerja/internal/ai"
	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/schema"
	"ruangkerja/internal/document/service"
	"ruangkerja/middleware"
	"ruangkerja/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const Version = "0.1.0"

type CreateDocumentArgs struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

type UpdateDocumentArgs struct {
	DocumentID string `json:"document_id"`
	Patch      string `json:"patch"` // JSON-encoded model.Patch
}

type SelectDocumentArgs struct {
	DocumentID string `json:"document_id"`
}

type CurrentDocumentArgs struct{}

type AIActionArgs struct {
	Action     string `json:"action"`
	Parameters string `json:"parameters"` // optional JSON object
}

type SearchDocumentsArgs struct {
	Query string `json:"query"`
	Kind  string `json:"kind"`
}

type SetCellArgs struct {
	DocumentID string `json:"document_id"`
	Sheet      int    `json:"sheet"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Value      string `json:"value"`
}

type UpdateSlideArgs struct {
	DocumentID string  `json:"document_id"`
	Index      int     `json:"index"`
	Title      *string `json:"title,omitempty"`
	Content    *string `json:"content,omitempty"`
	Layout     *string `json:"layout,omitempty"`
	Background *string `json:"background,omitempty"`
}

type AIHistoryArgs struct {
	Limit int `json:"limit"`
}

// NewServer registers the document tools against sessions.
func NewServer(sessions *service.Sessions) *server.MCPServer {
	s := server.NewMCPServer(
		"Ruang Kerja Documents",
		Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create an empty document and make it the current document"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Document kind: text, spreadsheet, presentation or pdf"),
		),
		mcp.WithString("title",
			mcp.Description("Document title, defaults to \"Untitled Document\""),
		),
	), mcp.NewTypedToolHandler(createDocumentHandler(sessions)))

	s.AddTool(mcp.NewTool("update_document",
		mcp.WithDescription("Apply a partial update to a document. Content fields replace the stored value as a whole"),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Id of the document to update"),
		),
		mcp.WithString("patch",
			mcp.Required(),
			mcp.Description(`JSON patch, e.g. {"title":"Q3","content":{"text":"..."}}`),
		),
	), mcp.NewTypedToolHandler(updateDocumentHandler(sessions)))

	s.AddTool(mcp.NewTool("get_current_document",
		mcp.WithDescription("Return the current document, or null when nothing is selected"),
	), mcp.NewTypedToolHandler(currentDocumentHandler(sessions)))

	s.AddTool(mcp.NewTool("select_document",
		mcp.WithDescription("Make a document current. An empty id clears the selection"),
		mcp.WithString("document_id",
			mcp.Description("Id of the document to select"),
		),
	), mcp.NewTypedToolHandler(selectDocumentHandler(sessions)))

	s.AddTool(mcp.NewTool("request_ai_action",
		mcp.WithDescription("Request an AI action on the current document"),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("One of summarize, grammar, translate, analyze, format, generate"),
		),
		mcp.WithString("parameters",
			mcp.Description("Optional JSON object passed to the AI processor"),
		),
	), mcp.NewTypedToolHandler(aiActionHandler(sessions)))

	s.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Find documents whose title contains query, most recently updated first"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive title fragment"),
		),
		mcp.WithString("kind",
			mcp.Description("Optional kind filter"),
		),
	), mcp.NewTypedToolHandler(searchDocumentsHandler(sessions)))

	s.AddTool(mcp.NewTool("set_cell",
		mcp.WithDescription("Write one cell of a spreadsheet"),
		mcp.WithString("document_id", mcp.Required()),
		mcp.WithNumber("sheet", mcp.Description("Zero-based sheet index")),
		mcp.WithNumber("row", mcp.Required()),
		mcp.WithNumber("col", mcp.Required()),
		mcp.WithString("value", mcp.Description("New cell value")),
	), mcp.NewTypedToolHandler(setCellHandler(sessions)))

	s.AddTool(mcp.NewTool("update_slide",
		mcp.WithDescription("Change fields of one slide. Omitted fields are kept"),
		mcp.WithString("document_id", mcp.Required()),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based slide index")),
		mcp.WithString("title"),
		mcp.WithString("content"),
		mcp.WithString("layout", mcp.Description("title, content, two-column or image")),
		mcp.WithString("background", mcp.Description("CSS color")),
	), mcp.NewTypedToolHandler(updateSlideHandler(sessions)))

	s.AddTool(mcp.NewTool("get_ai_history",
		mcp.WithDescription("List recent AI action results, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results, defaults to 10")),
	), mcp.NewTypedToolHandler(aiHistoryHandler(sessions)))

	return s
}

func createDocumentHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args CreateDocumentArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args CreateDocumentArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		kind, err := schema.ParseKind(args.Kind)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc, err := ws.CreateDocument(kind, args.Title)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create document: %v", err)), nil
		}
		return jsonResult(doc)
	}
}

func updateDocumentHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args UpdateDocumentArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args UpdateDocumentArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		if args.DocumentID == "" {
			return mcp.NewToolResultError("document_id is required"), nil
		}
		var patch model.Patch
		if err := json.Unmarshal([]byte(args.Patch), &patch); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
		}
		doc, err := ws.UpdateDocument(args.DocumentID, patch)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to update document: %v", err)), nil
		}
		return jsonResult(doc)
	}
}

func currentDocumentHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args CurrentDocumentArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args CurrentDocumentArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		doc, ok := ws.GetCurrentDocument()
		if !ok {
			return mcp.NewToolResultText("null"), nil
		}
		return jsonResult(doc)
	}
}

func selectDocumentHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args SelectDocumentArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SelectDocumentArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		if err := ws.SelectDocument(args.DocumentID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to select document: %v", err)), nil
		}
		doc, ok := ws.GetCurrentDocument()
		if !ok {
			return mcp.NewToolResultText("null"), nil
		}
		return jsonResult(doc)
	}
}

func aiActionHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args AIActionArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args AIActionArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		action, err := ai.ParseAction(args.Action)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var params map[string]any
		if args.Parameters != "" {
			if err := json.Unmarshal([]byte(args.Parameters), &params); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
			}
		}
		res, err := ws.RequestAIAction(ctx, action, params)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to run %s: %v", action, err)), nil
		}
		return jsonResult(res)
	}
}

func searchDocumentsHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args SearchDocumentsArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SearchDocumentsArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		var kind model.Kind
		if args.Kind != "" {
			parsed, err := schema.ParseKind(args.Kind)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			kind = parsed
		}
		return jsonResult(ws.SearchDocuments(args.Query, kind))
	}
}

func setCellHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args SetCellArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SetCellArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		doc, err := ws.SetCell(args.DocumentID, args.Sheet, args.Row, args.Col, args.Value)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set cell: %v", err)), nil
		}
		return jsonResult(doc)
	}
}

func updateSlideHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args UpdateSlideArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args UpdateSlideArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		u := model.SlideUpdate{Title: args.Title, Content: args.Content, Background: args.Background}
		if args.Layout != nil {
			layout := model.Layout(*args.Layout)
			u.Layout = &layout
		}
		doc, err := ws.UpdateSlide(args.DocumentID, args.Index, u)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to update slide: %v", err)), nil
		}
		return jsonResult(doc)
	}
}

func aiHistoryHandler(sessions *service.Sessions) func(ctx context.Context, request mcp.CallToolRequest, args AIHistoryArgs) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args AIHistoryArgs) (*mcp.CallToolResult, error) {
		ws, errResult := workspace(ctx, sessions)
		if errResult != nil {
			return errResult, nil
		}
		return jsonResult(ws.AIHistory(args.Limit))
	}
}

func workspace(ctx context.Context, sessions *service.Sessions) (*service.Workspace, *mcp.CallToolResult) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, mcp.NewToolResultError("unauthenticated")
	}
	return sessions.Workspace(userID), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// httpContextFunc carries the authenticated user from the HTTP request into
// the tool call context.
func httpContextFunc(ctx context.Context, r *http.Request) context.Context {
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		return middleware.WithUserID(ctx, userID)
	}
	logger.Sugar.Warn("MCP request without an authenticated user")
	return ctx
}

// NewHTTPHandler serves s over streamable HTTP at endpoint.
func NewHTTPHandler(s *server.MCPServer, endpoint string) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath(endpoint),
		server.WithHTTPContextFunc(httpContextFunc),
	)
}
