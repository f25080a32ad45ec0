package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	service  *app.GameService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type submitAnswerPayload struct {
	AnswerIndices []int `json:"answerIndices"`
}

type renamePayload struct {
	PlayerID string `json:"playerId,omitempty"`
	NewName  string `json:"newName"`
}

type clearedPayload struct {
	Removed int `json:"removed"`
}

// connection is the per-socket state shared by the read loop handlers.
type connection struct {
	gameID string
	role   app.Audience
	client *client
	joined bool
}

// ServeWS upgrades HTTP requests to websockets. Hosts connect with
// role=host and drive the game; everyone else is a player who must send a
// join message before taking part.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		http.Error(w, "missing gameId", http.StatusBadRequest)
		return
	}
	role := app.AudiencePlayers
	if r.URL.Query().Get("role") == string(app.AudienceHost) {
		role = app.AudienceHost
	}
	if !h.service.HasSession(gameID) {
		http.Error(w, domain.ErrSessionNotFound.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &connection{gameID: gameID, role: role, client: newClient(uuid.NewString())}
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer conn.Close()
		for evt := range c.client.send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	}()

	ctx := r.Context()
	if role == app.AudienceHost {
		err := h.service.AttachHost(ctx, gameID, func(state app.StateView) {
			h.hub.Reply(c.client, app.Event{Type: app.EventHostJoined, Payload: state})
			h.hub.Register(gameID, app.AudienceHost, c.client)
		})
		if err != nil {
			h.replyError(c, app.EventError, err)
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if role == app.AudienceHost {
			h.handleHost(ctx, c, inbound)
		} else {
			h.handlePlayer(ctx, c, inbound)
		}
	}

	if c.joined {
		h.service.Disconnect(ctx, gameID, c.client.id)
	}
	h.hub.Unregister(gameID, role, c.client)
	<-writerDone
	hosts, players := h.hub.Connections(gameID)
	log.Printf("ws %s %s left %s (%d hosts, %d players still connected)", role, c.client.id, gameID, hosts, players)
}

func (h *WSHandler) handleHost(ctx context.Context, c *connection, msg inboundMessage) {
	var err error
	switch msg.Type {
	case "start-game":
		err = h.service.StartGame(ctx, c.gameID)
	case "start-answering":
		err = h.service.StartAnswering(ctx, c.gameID)
	case "reveal-answers":
		err = h.service.RevealAnswers(ctx, c.gameID)
	case "show-distribution":
		err = h.service.ShowDistribution(ctx, c.gameID)
	case "show-scoreboard":
		err = h.service.ShowScoreboard(ctx, c.gameID)
	case "next-question":
		err = h.service.NextQuestion(ctx, c.gameID)
	case "end-game":
		err = h.service.EndGame(ctx, c.gameID)
	case "rename-player":
		var payload renamePayload
		if err = json.Unmarshal(msg.Payload, &payload); err != nil {
			h.hub.Reply(c.client, errorEvent(app.EventError, "invalid rename payload"))
			return
		}
		err = h.service.RenamePlayer(ctx, c.gameID, payload.PlayerID, payload.NewName)
	case "clear-disconnected":
		var removed int
		removed, err = h.service.ClearDisconnected(ctx, c.gameID)
		if err == nil {
			h.hub.Reply(c.client, app.Event{Type: "disconnected-cleared", Payload: clearedPayload{Removed: removed}})
		}
	default:
		h.hub.Reply(c.client, errorEvent(app.EventError, "unsupported message type"))
		return
	}
	if err != nil {
		h.replyError(c, app.EventError, err)
	}
}

func (h *WSHandler) handlePlayer(ctx context.Context, c *connection, msg inboundMessage) {
	switch msg.Type {
	case "join":
		var payload joinPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.hub.Reply(c.client, errorEvent(app.EventJoinFailed, "invalid join payload"))
			return
		}
		if c.joined {
			h.replyError(c, app.EventJoinFailed, domain.ErrAlreadyJoined)
			return
		}
		// enter the room first so the joined event published during Join reaches us
		h.hub.Register(c.gameID, app.AudiencePlayers, c.client)
		if _, err := h.service.Join(ctx, c.gameID, c.client.id, payload.Name); err != nil {
			h.hub.Leave(c.gameID, app.AudiencePlayers, c.client)
			h.replyError(c, app.EventJoinFailed, err)
			return
		}
		c.joined = true
	case "submit-answer":
		var payload submitAnswerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.hub.Reply(c.client, errorEvent(app.EventError, "invalid answer payload"))
			return
		}
		if err := h.service.SubmitAnswer(ctx, c.gameID, c.client.id, payload.AnswerIndices); err != nil {
			h.replyError(c, app.EventError, err)
		}
	case "rename":
		var payload renamePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.hub.Reply(c.client, errorEvent(app.EventError, "invalid rename payload"))
			return
		}
		if err := h.service.RenameSelf(ctx, c.gameID, c.client.id, payload.NewName); err != nil {
			h.replyError(c, app.EventError, err)
		}
	default:
		h.hub.Reply(c.client, errorEvent(app.EventError, "unsupported message type"))
	}
}

func (h *WSHandler) replyError(c *connection, eventType string, err error) {
	if !errors.Is(err, domain.ErrInvalidTransition) {
		log.Printf("ws %s %s in %s: %v", c.role, c.client.id, c.gameID, err)
	}
	h.hub.Reply(c.client, errorEvent(eventType, err.Error()))
}

func errorEvent(eventType, message string) app.Event {
	return app.Event{Type: eventType, Payload: app.ErrorPayload{Message: message}}
}
