package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ruangkerja/internal/ai"
	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/schema"
	"ruangkerja/internal/document/service"
	"ruangkerja/middleware"
	"ruangkerja/pkg/logger"
)

type DocumentHandler struct {
	Sessions *service.Sessions
}

func NewDocumentHandler(sessions *service.Sessions) *DocumentHandler {
	return &DocumentHandler{Sessions: sessions}
}

// workspace resolves the caller's workspace, writing 401 if the request
// carries no user.
func (h *DocumentHandler) workspace(w http.ResponseWriter, r *http.Request) (*service.Workspace, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return h.Sessions.Workspace(userID), true
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req model.CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	kind, err := schema.ParseKind(req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := ws.CreateDocument(kind, req.Title)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create document: %v", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var patch model.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := ws.UpdateDocument(docID, patch)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to update document %s: %v", docID, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var kind model.Kind
	if k := r.URL.Query().Get("kind"); k != "" {
		parsed, err := schema.ParseKind(k)
		if err != nil {
			writeError(w, err)
			return
		}
		kind = parsed
	}
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, ws.SearchDocuments(q, kind))
		return
	}
	writeJSON(w, http.StatusOK, ws.ListDocuments(kind))
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	doc, found := ws.GetDocument(docID)
	if !found {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	if err := ws.RemoveDocument(docID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete document %s: %v", docID, err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Document deleted successfully"))
}

func (h *DocumentHandler) GetCurrentDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	doc, found := ws.GetCurrentDocument()
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) SelectDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req model.SelectDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := ws.SelectDocument(req.DocID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Document selected"))
}

func (h *DocumentHandler) AddSlide(w http.ResponseWriter, r *http.Request) {
	h.slideCommand(w, r, func(ws *service.Workspace, req model.SlideRequest) (model.Document, error) {
		return ws.AddSlide(req.DocID)
	})
}

func (h *DocumentHandler) DuplicateSlide(w http.ResponseWriter, r *http.Request) {
	h.slideCommand(w, r, func(ws *service.Workspace, req model.SlideRequest) (model.Document, error) {
		return ws.DuplicateSlide(req.DocID, req.Index)
	})
}

func (h *DocumentHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	h.slideCommand(w, r, func(ws *service.Workspace, req model.SlideRequest) (model.Document, error) {
		return ws.DeleteSlide(req.DocID, req.Index)
	})
}

func (h *DocumentHandler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req model.SlideEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := ws.UpdateSlide(req.DocID, req.Index, req.SlideUpdate)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to update slide %d of %s: %v", req.Index, req.DocID, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) SetCell(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req model.CellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := ws.SetCell(req.DocID, req.Sheet, req.Row, req.Col, req.Value)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to set cell in %s: %v", req.DocID, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) SetText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req model.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := ws.SetText(req.DocID, req.Text)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to set text of %s: %v", req.DocID, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) slideCommand(w http.ResponseWriter, r *http.Request, run func(*service.Workspace, model.SlideRequest) (model.Document, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req model.SlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := run(ws, req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Slide command on %s failed: %v", req.DocID, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) RequestAIAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var req model.AIActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	action, err := ai.ParseAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := ws.RequestAIAction(r.Context(), action, req.Parameters)
	if err != nil {
		logger.Sugar.Errorf("Handler: AI action %s failed: %v", action, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *DocumentHandler) GetAIHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	limit := ai.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, ws.AIHistory(limit))
}

// Health reports liveness. It needs no authentication.
func (h *DocumentHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"workspaces": h.Sessions.Len(),
	})
}

// StatusFor maps store and service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, model.ErrShapeMismatch),
		errors.Is(err, model.ErrSlideOutOfRange),
		errors.Is(err, model.ErrCellOutOfRange),
		errors.Is(err, ai.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrLastSlide),
		errors.Is(err, service.ErrNoCurrentDocument):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Handler: Failed to encode response: %v", err)
	}
}
