package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ruangkerja/internal/ai"
	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/schema"
	"ruangkerja/internal/document/service"
	"ruangkerja/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func ServeWs(hub *Hub, sessions *service.Sessions, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:       hub,
		Conn:      conn,
		UserID:    userID,
		Workspace: sessions.Workspace(userID),
		Send:      make(chan []byte, 256),
	}
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			c.fail(msg, err)
			continue
		}
		// The sender is always the authenticated user.
		msg.UserID = c.UserID
		c.handle(msg)
	}
}

// handle runs one client request against the workspace. Mutations answer
// through the hub's change fan-out, everything else replies directly.
func (c *Client) handle(msg WSMessage) {
	ws := c.Workspace
	switch msg.Type {
	case CreateType:
		var req model.CreateDocRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.fail(msg, err)
			return
		}
		kind, err := schema.ParseKind(req.Kind)
		if err != nil {
			c.fail(msg, err)
			return
		}
		if _, err := ws.CreateDocument(kind, req.Title); err != nil {
			c.fail(msg, err)
		}

	case UpdateType:
		var patch model.Patch
		if err := json.Unmarshal(msg.Payload, &patch); err != nil {
			c.fail(msg, err)
			return
		}
		c.edit(msg, func() (model.Document, error) {
			return ws.UpdateDocument(msg.DocID, patch)
		})

	case SetTextType:
		var req model.TextRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.fail(msg, err)
			return
		}
		c.edit(msg, func() (model.Document, error) {
			return ws.SetText(msg.DocID, req.Text)
		})

	case SetCellType:
		var req model.CellRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.fail(msg, err)
			return
		}
		c.edit(msg, func() (model.Document, error) {
			return ws.SetCell(msg.DocID, req.Sheet, req.Row, req.Col, req.Value)
		})

	case SlideType:
		var req model.SlideEditRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.fail(msg, err)
			return
		}
		c.edit(msg, func() (model.Document, error) {
			return ws.UpdateSlide(msg.DocID, req.Index, req.SlideUpdate)
		})

	case SelectType:
		// The selected change reaches every connection, this one included.
		if err := ws.SelectDocument(msg.DocID); err != nil {
			c.fail(msg, err)
		}

	case CurrentType:
		c.sendCurrent()

	case AIActionType:
		var req model.AIActionRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			c.fail(msg, err)
			return
		}
		action, err := ai.ParseAction(req.Action)
		if err != nil {
			c.fail(msg, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		res, err := ws.RequestAIAction(ctx, action, req.Parameters)
		cancel()
		if err != nil {
			c.fail(msg, err)
			return
		}
		out, err := newMessage(AIResultType, res.DocumentID, c.UserID, res)
		if err != nil {
			c.fail(msg, err)
			return
		}
		c.Hub.reply(c, out)

	default:
		logger.Sugar.Warnf("Unknown message type %q from user %s", msg.Type, c.UserID)
		c.fail(msg, errUnknownType(msg.Type))
	}
}

// edit runs a mutation of msg.DocID. The connection is pointed at the
// document first so it sees the resulting change, and pointed back if the
// mutation fails.
func (c *Client) edit(msg WSMessage, run func() (model.Document, error)) {
	prev := c.Hub.focus(c, msg.DocID)
	if _, err := run(); err != nil {
		c.Hub.unfocus(c, msg.DocID, prev)
		c.fail(msg, err)
	}
}

func (c *Client) sendCurrent() {
	payload := DocumentPayload{}
	docID := ""
	if doc, ok := c.Workspace.GetCurrentDocument(); ok {
		payload.Document = &doc
		docID = doc.ID
	}
	c.Hub.focus(c, docID)
	out, err := newMessage(DocumentType, docID, c.UserID, payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling current document: %v", err)
		return
	}
	c.Hub.reply(c, out)
}

func (c *Client) fail(req WSMessage, err error) {
	logger.Sugar.Warnf("Request %s from user %s failed: %v", req.Type, c.UserID, err)
	out, mErr := newMessage(ErrorType, req.DocID, c.UserID, ErrorPayload{Error: err.Error()})
	if mErr != nil {
		return
	}
	c.Hub.reply(c, out)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type errUnknownType string

func (e errUnknownType) Error() string { return "unknown message type " + string(e) }
