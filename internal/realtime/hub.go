package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Question board events pushed to connected clients.
const (
	EventQuestionCreated  = "question_created"
	EventQuestionVotes    = "question_votes"
	EventQuestionLikes    = "question_likes"
	EventQuestionAnswered = "question_answered"
	EventQuestionStatus   = "question_status"
	EventAudienceCount    = "audience_count"
)

// Hub maintains talk id -> set of connections and broadcasts question board events.
// Uses Redis pub/sub for horizontal scaling: publish to Redis, the subscriber fans out locally.
type Hub struct {
	talks    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per talk
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    Publisher
	redisSub Subscriber
}

// Publisher publishes talk events for cross-instance broadcast.
type Publisher interface {
	PublishTalkEvent(talkID uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to talk channels and invokes handler for incoming events.
type Subscriber interface {
	SubscribeTalk(talkID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. pub and sub may be nil for a single instance.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		talks:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    pub,
		redisSub: sub,
	}
}

// Register adds a client to a talk room. Starts the Redis subscription for this talk if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.talks[c.TalkID] == nil {
		h.talks[c.TalkID] = make(map[string]*Client)
		if h.redisSub != nil {
			talkID := c.TalkID
			cancel, err := h.redisSub.SubscribeTalk(talkID, func(event string, payload []byte) {
				h.broadcastLocal(talkID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("talk subscription failed", zap.String("talk_id", talkID.String()), zap.Error(err))
			} else {
				h.subs[talkID] = cancel
			}
		}
	}
	h.talks[c.TalkID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined talk", zap.String("client_id", c.ID), zap.String("talk_id", c.TalkID.String()))
}

// Unregister removes a client from a talk room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.talks[c.TalkID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.talks, c.TalkID)
			if cancel, ok := h.subs[c.TalkID]; ok {
				cancel()
				delete(h.subs, c.TalkID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left talk", zap.String("client_id", c.ID), zap.String("talk_id", c.TalkID.String()))
}

func (h *Hub) broadcastLocal(talkID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.talks[talkID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every client watching the talk on every instance.
// With Redis configured the subscriber callback performs the local broadcast, so it happens once.
func (h *Hub) Publish(talkID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal talk event", zap.String("event", event), zap.Error(err))
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishTalkEvent(talkID, event, data); err != nil {
			h.logger.Warn("publish talk event", zap.String("event", event), zap.Error(err))
		}
		return
	}
	h.broadcastLocal(talkID, event, data)
}

// AudienceCount returns the number of connected clients watching a talk on this instance.
func (h *Hub) AudienceCount(talkID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.talks[talkID])
}
