package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/studyarena/backend/internal/battle"
	"github.com/studyarena/backend/internal/game"
	"github.com/studyarena/backend/internal/progression"
)

type client struct {
	playerID string
	conn     *websocket.Conn
	send     chan []byte
}

func newClient(playerID string, conn *websocket.Conn) *client {
	c := &client{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Hub tracks connected clients per player and delivers targeted
// notifications. It implements game.Notifier: notification delivery is
// fire-and-forget, dropping frames for clients that cannot keep up.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		log:     log,
	}
}

func (h *Hub) addClient(playerID string, conn *websocket.Conn) *client {
	c := newClient(playerID, conn)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// sendTo marshals msg and queues it for every connection of the given
// player. Slow clients lose the frame rather than blocking the caller.
func (h *Hub) sendTo(playerID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshaling ws message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.playerID != playerID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client too slow, drop the frame.
		}
	}
}

// OnLevelUp implements game.Notifier.
func (h *Hub) OnLevelUp(playerID string, up progression.LevelUp) {
	h.sendTo(playerID, Message{
		Type:    MsgLevelUp,
		Payload: LevelUpPayload{Level: up.To, Rewards: up.Rewards},
	})
}

// OnAchievementUnlocked implements game.Notifier.
func (h *Hub) OnAchievementUnlocked(playerID string, a progression.Achievement) {
	h.sendTo(playerID, Message{
		Type: MsgAchievementUnlocked,
		Payload: AchievementUnlockedPayload{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Tier:        string(a.Tier),
		},
	})
}

// OnBattleCompleted implements game.Notifier.
func (h *Hub) OnBattleCompleted(playerID string, sess *battle.Session) {
	h.sendTo(playerID, Message{
		Type: MsgBattleCompleted,
		Payload: BattleCompletedPayload{
			SessionID: sess.ID,
			Outcome:   sess.Outcome(),
			Rewards:   sess.Rewards,
		},
	})
}

var _ game.Notifier = (*Hub)(nil)
