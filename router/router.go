package router

import (
	"net/http"

	"ruangkerja/config"
	docHandler "ruangkerja/internal/document"
	"ruangkerja/internal/document/service"
	"ruangkerja/middleware"
	"ruangkerja/pkg/logger"
	"ruangkerja/socket"
)

// Setup wires the REST, WebSocket and (optional) MCP endpoints. mcp may be
// nil to leave /mcp unmounted.
func Setup(cfg config.Config, sessions *service.Sessions, hub *socket.Hub, mcp http.Handler) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(cfg.JWTSecret)

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		socket.ServeWs(hub, sessions, w, r, userID)
	})
	mux.Handle("/ws", auth(wsHandler))

	// REST API
	docHandler := docHandler.NewDocumentHandler(sessions)

	mux.Handle("/api/documents/create", auth(http.HandlerFunc(docHandler.CreateDocument)))
	mux.Handle("/api/documents/update", auth(http.HandlerFunc(docHandler.UpdateDocument)))
	mux.Handle("/api/documents/delete", auth(http.HandlerFunc(docHandler.DeleteDocument)))
	mux.Handle("/api/documents/get", auth(http.HandlerFunc(docHandler.GetDocument)))
	mux.Handle("/api/documents", auth(http.HandlerFunc(docHandler.GetDocuments)))
	mux.Handle("/api/documents/current", auth(http.HandlerFunc(docHandler.GetCurrentDocument)))
	mux.Handle("/api/documents/select", auth(http.HandlerFunc(docHandler.SelectDocument)))
	mux.Handle("/api/documents/slides/add", auth(http.HandlerFunc(docHandler.AddSlide)))
	mux.Handle("/api/documents/slides/duplicate", auth(http.HandlerFunc(docHandler.DuplicateSlide)))
	mux.Handle("/api/documents/slides/delete", auth(http.HandlerFunc(docHandler.DeleteSlide)))
	mux.Handle("/api/documents/slides/update", auth(http.HandlerFunc(docHandler.UpdateSlide)))
	mux.Handle("/api/documents/cells/set", auth(http.HandlerFunc(docHandler.SetCell)))
	mux.Handle("/api/documents/text", auth(http.HandlerFunc(docHandler.SetText)))
	mux.Handle("/api/ai/action", auth(http.HandlerFunc(docHandler.RequestAIAction)))
	mux.Handle("/api/ai/history", auth(http.HandlerFunc(docHandler.GetAIHistory)))
	mux.HandleFunc("/health", docHandler.Health)

	// MCP
	if mcp != nil {
		mux.Handle("/mcp", auth(mcp))
		logger.Sugar.Info("MCP endpoint mounted at /mcp")
	}

	return middleware.CORS(cfg.AllowedOrigins)(mux)
}
