package realtime

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(talk uuid.UUID) *Client {
	return &Client{ID: uuid.NewString(), TalkID: talk, send: make(chan WSMessage, 4)}
}

func TestPublishLocalOnlyReachesTalk(t *testing.T) {
	h := NewHub(nil, nil, nil)
	talk, other := uuid.New(), uuid.New()
	a, b := newTestClient(talk), newTestClient(other)
	h.Register(a)
	h.Register(b)

	h.Publish(talk, EventQuestionVotes, map[string]int{"votos": 2})

	select {
	case msg := <-a.send:
		assert.Equal(t, EventQuestionVotes, msg.Event)
		assert.JSONEq(t, `{"votos":2}`, string(msg.Data))
	default:
		t.Fatal("talk client got nothing")
	}
	assert.Empty(t, b.send)
	assert.Equal(t, 1, h.AudienceCount(talk))

	h.Unregister(a)
	assert.Equal(t, 0, h.AudienceCount(talk))
	_, open := <-a.send
	assert.False(t, open)
}

type loopback struct {
	handlers  map[uuid.UUID]func(string, []byte)
	cancelled int
}

func (l *loopback) PublishTalkEvent(talkID uuid.UUID, event string, payload []byte) error {
	if h, ok := l.handlers[talkID]; ok {
		h(event, payload)
	}
	return nil
}

func (l *loopback) SubscribeTalk(talkID uuid.UUID, handler func(string, []byte)) (func(), error) {
	l.handlers[talkID] = handler
	return func() {
		delete(l.handlers, talkID)
		l.cancelled++
	}, nil
}

func TestPublishGoesThroughPubSub(t *testing.T) {
	lb := &loopback{handlers: map[uuid.UUID]func(string, []byte){}}
	h := NewHub(nil, lb, lb)
	talk := uuid.New()
	c := newTestClient(talk)
	h.Register(c)

	h.Publish(talk, EventQuestionCreated, map[string]string{"titulo": "Oi"})
	require.Len(t, c.send, 1)

	h.Unregister(c)
	assert.Equal(t, 1, lb.cancelled)
}

func TestServeWsDeliversEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil, nil)
	participant := uuid.New()
	validate := func(tok string) (uuid.UUID, error) {
		if tok != "good" {
			return uuid.Nil, errors.New("bad token")
		}
		return participant, nil
	}
	r := gin.New()
	r.GET("/ws", ServeWs(hub, nil, validate))
	srv := httptest.NewServer(r)
	defer srv.Close()

	talk := uuid.New()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?palestra_id=" + talk.String()

	_, resp, err := websocket.DefaultDialer.Dial(base+"&token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"&token=good", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.AudienceCount(talk) == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(talk, EventQuestionAnswered, map[string]bool{"respondida": true})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventQuestionAnswered, msg.Event)
	var data map[string]bool
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.True(t, data["respondida"])
}
