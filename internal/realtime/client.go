package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin; auth is the token
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is a single WebSocket connection watching one talk's question board.
type Client struct {
	ID            string
	TalkID        uuid.UUID
	ParticipantID uuid.UUID
	hub           *Hub
	conn          *websocket.Conn
	send          chan WSMessage
	logger        *zap.Logger
}

// TokenFunc validates a token and returns the participant id.
type TokenFunc func(token string) (uuid.UUID, error)

// ServeWs handles GET /ws?palestra_id=&token= and runs the client loop.
// The board is read-only over the socket; mutations go through the REST API.
func ServeWs(hub *Hub, logger *zap.Logger, validate TokenFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		talkIDStr := c.Query("palestra_id")
		tok := c.Query("token")
		if talkIDStr == "" || tok == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "palestra_id and token required"})
			return
		}
		talkID, err := uuid.Parse(talkIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid palestra_id"})
			return
		}
		participantID, err := validate(tok)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:            uuid.New().String(),
			TalkID:        talkID,
			ParticipantID: participantID,
			hub:           hub,
			conn:          conn,
			send:          make(chan WSMessage, 64),
			logger:        logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		if msg.Event == "join" {
			c.hub.Publish(c.TalkID, EventAudienceCount, map[string]int{
				"count": c.hub.AudienceCount(c.TalkID),
			})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
