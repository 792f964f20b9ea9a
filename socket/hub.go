package socket

import (
	"encoding/json"
	"sync"

	"ruangkerja/internal/document/model"
	"ruangkerja/internal/document/service"
	"ruangkerja/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	// Client -> server
	CreateType   = "CREATE"       // Create a document and make it current
	UpdateType   = "UPDATE"       // Apply a patch to a document
	SelectType   = "SELECT"       // Change the current document
	CurrentType  = "CURRENT"      // Ask for the current document
	AIActionType = "AI_ACTION"    // Run an AI action on the current document
	SetTextType  = "SET_TEXT"     // Replace a text document's body
	SetCellType  = "SET_CELL"     // Write one spreadsheet cell
	SlideType    = "UPDATE_SLIDE" // Change fields of one slide

	// Server -> client
	DocumentType = "DOCUMENT"  // Document snapshot, optionally with the change that produced it
	AIResultType = "AI_RESULT" // Result of an AI_ACTION
	ErrorType    = "ERROR"     // A request failed
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id,omitempty"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DocumentPayload is the payload of a DOCUMENT message. Document is nil when
// nothing is selected.
type DocumentPayload struct {
	Change   service.ChangeType `json:"change,omitempty"`
	Document *model.Document    `json:"document"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// envelope is a message queued for the hub. A nil To fans it out to the
// user's room.
type envelope struct {
	Msg    WSMessage
	Change service.ChangeType
	To     *Client
}

type Hub struct {
	// Rooms groups a user's open connections.
	Rooms      map[string]map[*Client]bool
	Broadcast  chan envelope
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	UserID    string
	Workspace *service.Workspace
	Send      chan []byte

	// DocID is the document this connection is looking at. Guarded by Hub.mu.
	DocID string
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan envelope, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			current, ok := client.Workspace.GetCurrentDocument()

			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			if ok {
				client.DocID = current.ID
			}
			h.mu.Unlock()

			// The new connection starts from the workspace's current document.
			payload := DocumentPayload{}
			if ok {
				payload.Document = &current
			}
			msg, err := newMessage(DocumentType, client.DocID, client.UserID, payload)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling initial document: %v", err)
				continue
			}
			h.deliver(client, msg)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case env := <-h.Broadcast:
			payload, err := json.Marshal(env.Msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			var clientsToSend []*Client
			if env.To != nil {
				if h.Rooms[env.To.UserID][env.To] {
					clientsToSend = append(clientsToSend, env.To)
				}
			} else {
				for client := range h.Rooms[env.Msg.UserID] {
					if h.follows(client, env) {
						clientsToSend = append(clientsToSend, client)
					}
				}
			}
			for _, client := range clientsToSend {
				h.deliverLocked(client, payload)
			}
			h.mu.Unlock()
		}
	}
}

// follows reports whether client should see a change, and moves its focus
// for changes that affect the current document.
func (h *Hub) follows(client *Client, env envelope) bool {
	switch env.Change {
	case service.ChangeCreated:
		// Creating selects, and the selection is shared by the user's
		// connections.
		client.DocID = env.Msg.DocID
		return true
	case service.ChangeSelected:
		// Selection is per workspace, so every connection follows it.
		client.DocID = env.Msg.DocID
		return true
	case service.ChangeRemoved:
		if client.DocID == env.Msg.DocID {
			client.DocID = ""
			return true
		}
		return false
	}
	return client.DocID == env.Msg.DocID
}

// DocumentChanged queues a committed change for the user's connections. It
// runs inside workspace operations, so it never blocks.
func (h *Hub) DocumentChanged(userID string, c service.Change) {
	payload := DocumentPayload{Change: c.Type, Document: &c.Document}
	if c.Document.ID == "" {
		payload.Document = nil
	}
	msg, err := newMessage(DocumentType, c.Document.ID, userID, payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s change for %s: %v", c.Type, c.Document.ID, err)
		return
	}
	select {
	case h.Broadcast <- envelope{Msg: msg, Change: c.Type}:
	default:
		logger.Sugar.Warnf("Broadcast queue full, dropping %s change for document %s", c.Type, c.Document.ID)
	}
}

// reply queues msg for a single connection.
func (h *Hub) reply(c *Client, msg WSMessage) {
	h.Broadcast <- envelope{Msg: msg, To: c}
}

// focus points c at docID and returns the document it was looking at.
func (h *Hub) focus(c *Client, docID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := c.DocID
	c.DocID = docID
	return prev
}

// unfocus restores prev unless c has moved on from docID since.
func (h *Hub) unfocus(c *Client, docID, prev string) {
	h.mu.Lock()
	if c.DocID == docID {
		c.DocID = prev
	}
	h.mu.Unlock()
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[userID])
}

func (h *Hub) deliver(client *Client, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling message: %v", err)
		return
	}
	h.mu.Lock()
	h.deliverLocked(client, payload)
	h.mu.Unlock()
}

func (h *Hub) deliverLocked(client *Client, payload []byte) {
	if !h.Rooms[client.UserID][client] {
		return
	}
	select {
	case client.Send <- payload:
	default:
		// The client is lagging; drop it rather than block the hub.
		logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	room, ok := h.Rooms[client.UserID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.Send)
	if len(room) == 0 {
		delete(h.Rooms, client.UserID)
		logger.Sugar.Infof("Closed last connection for user %s", client.UserID)
	}
}

func newMessage(typ, docID, userID string, payload any) (WSMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WSMessage{}, err
	}
	return WSMessage{Type: typ, DocID: docID, UserID: userID, Payload: raw}, nil
}
