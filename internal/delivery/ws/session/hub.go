package ws_session

import (
	"log/slog"
	"sync"

	"github.com/coplay/gamenight/core/internal/model"
)

const (
	// EventVoteProgress carries only counts, never per-candidate tallies.
	EventVoteProgress  = "VOTE_PROGRESS"
	EventSessionClosed = "SESSION_CLOSED"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type sessionEvent struct {
	sessionID string
	event     Event
}

// ProgressSource reports how many of a session's voters have voted.
type ProgressSource interface {
	Progress(sessionID string) (votesCast, eligible int, err error)
}

// Hub fans session progress out to websocket subscribers. Clients register
// for one session; events for other sessions never reach them.
type Hub struct {
	source ProgressSource
	logger *slog.Logger

	clients    map[*Client]bool
	sessions   map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan sessionEvent
	mu         sync.RWMutex
}

func NewHub(source ProgressSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		source:     source,
		logger:     logger,
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan sessionEvent),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case ev := <-h.broadcast:
			h.broadcastToSession(ev.sessionID, ev.event)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if _, exists := h.sessions[client.sessionID]; !exists {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.logger.Info("ws client registered", "session_id", client.sessionID)

	go h.NotifyProgress(client.sessionID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		if clients, exists := h.sessions[client.sessionID]; exists {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.sessions, client.sessionID)
			}
		}
	}

	h.logger.Info("ws client unregistered", "session_id", client.sessionID)
}

// NotifyProgress broadcasts how many votes are in, so lobbies can show
// "3 of 5 voted" without revealing who leads.
func (h *Hub) NotifyProgress(sessionID string) {
	votesCast, eligible, err := h.source.Progress(sessionID)
	if err != nil {
		h.logger.Error("failed to get session progress",
			"session_id", sessionID, "error", err)
		return
	}

	h.broadcast <- sessionEvent{
		sessionID: sessionID,
		event: Event{
			Type: EventVoteProgress,
			Payload: map[string]any{
				"votes_cast":      votesCast,
				"eligible_voters": eligible,
			},
		},
	}
}

// NotifyClosed announces the close and the winner, if any.
func (h *Hub) NotifyClosed(sessionID string, winner *model.GameRecord) {
	payload := map[string]any{
		"session_id": sessionID,
	}
	if winner != nil {
		payload["winner_app_id"] = winner.AppID
		payload["winner_name"] = winner.Name
	}

	h.broadcast <- sessionEvent{
		sessionID: sessionID,
		event: Event{
			Type:    EventSessionClosed,
			Payload: payload,
		},
	}
}

func (h *Hub) broadcastToSession(sessionID string, event Event) {
	// Write lock: slow clients are dropped from the session map here.
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, exists := h.sessions[sessionID]
	if !exists {
		return
	}
	for client := range clients {
		select {
		case client.send <- event:
		default:
			// Drop the slow client from both maps. Its eventual
			// unregister then finds nothing, so send is closed once.
			close(client.send)
			delete(h.clients, client)
			delete(clients, client)
		}
	}
	if len(clients) == 0 {
		delete(h.sessions, sessionID)
	}
}
