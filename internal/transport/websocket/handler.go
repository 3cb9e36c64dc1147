package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/skillduels/backend/internal/domain"
	"github.com/skillduels/backend/internal/service/duel"
	"github.com/skillduels/backend/pkg/uid"
)

// Handler manages WebSocket dependencies
type Handler struct {
	ConnManager  *ConnectionManager
	Orchestrator *duel.Orchestrator
	Upgrader     websocket.Upgrader
}

func NewHandler(cm *ConnectionManager, orch *duel.Orchestrator) *Handler {
	return &Handler{
		ConnManager:  cm,
		Orchestrator: orch,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket upgrades the connection and runs its read loop.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	h.handleConnection(conn)
}

func (h *Handler) handleConnection(conn *websocket.Conn) {
	connID := uid.GenerateConnectionID()
	h.ConnManager.AddConnection(connID, conn)
	log.Printf("[WS] Connection %s established", connID)

	// Detect stale connections
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Keep-alive pinger
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	defer func() {
		close(done)
		log.Printf("[WS] Connection %s closed", connID)
		h.Orchestrator.Disconnect(connID)
		h.ConnManager.RemoveConnection(connID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Connection %s dropped unexpectedly: %v", connID, err)
			}
			break
		}

		var msg domain.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WS] Invalid message from %s: %v", connID, err)
			continue
		}

		h.processMessage(connID, msg)
	}
}

// processMessage routes specific actions
func (h *Handler) processMessage(connID string, msg domain.ClientMessage) {
	switch msg.Type {
	case domain.MsgFindDuel:
		err := h.Orchestrator.RequestDuel(connID, msg.UserID, msg.DisplayName, msg.Category)
		if err != nil {
			h.ConnManager.Send(connID, errorMessage(err))
		}

	case domain.MsgSubmitScore:
		h.Orchestrator.RecordScore(msg.RoomID, connID, msg.Score)

	case domain.MsgFinishDuel:
		h.Orchestrator.CompleteDuel(msg.RoomID, connID, msg.FinalScore)

	case domain.MsgCancelSearch:
		h.Orchestrator.CancelSearch(connID)

	default:
		h.ConnManager.Send(connID, domain.ServerMessage{
			Type:    domain.MsgError,
			Message: "unknown message type",
		})
	}
}

func errorMessage(err error) domain.ServerMessage {
	var derr domain.Error
	if errors.As(err, &derr) {
		return domain.ServerMessage{Type: domain.MsgError, Message: string(derr)}
	}
	return domain.ServerMessage{Type: domain.MsgError, Message: "internal error"}
}
