// internal/app/system/realtime/server.go
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client message types.
const (
	MsgJoin      = "join"
	MsgJoinIdea  = "join_idea"
	MsgJoinGroup = "join_group"
	MsgLeave     = "leave"
)

// GroupAuthorizer reports whether userID may receive group chat for groupID.
type GroupAuthorizer func(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error)

// Server wires WebSocket connections to a Registry.
type Server struct {
	Registry  *Registry
	CanJoin   GroupAuthorizer
	Log       *zap.Logger
	QueueSize int
}

// clientMessage is what a client sends.
type clientMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Channel string `json:"channel"`
}

// Serve runs one connection until the peer goes away. It blocks; the write
// pump runs in its own goroutine.
func (s *Server) Serve(ctx context.Context, ws *websocket.Conn, userID string) {
	c := NewConn(userID, s.QueueSize)
	s.Registry.Add(c)
	log := s.Log.With(zap.String("conn_id", c.ID), zap.String("user_id", userID))
	log.Debug("realtime: connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(ws, c)
	}()

	s.readPump(ctx, ws, c, log)

	s.Registry.Remove(c)
	<-done
	log.Debug("realtime: disconnected")
}

func (s *Server) readPump(ctx context.Context, ws *websocket.Conn, c *Conn, log *zap.Logger) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("realtime: read error", zap.Error(err))
			}
			return
		}
		if reply := s.Handle(ctx, c, raw); reply != nil {
			c.enqueue(reply)
		}
	}
}

func (s *Server) writePump(ws *websocket.Conn, c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Queue():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Registry closed the queue.
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handle applies one client message and returns the reply to queue, if any.
func (s *Server) Handle(ctx context.Context, c *Conn, raw []byte) []byte {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return replyError("", "malformed message")
	}

	switch msg.Type {
	case MsgJoin:
		// Only the caller's own user channel; it is joined on connect anyway.
		if msg.ID != c.UserID {
			return replyError(msg.Type, "cannot join another user's channel")
		}
		return s.join(c, UserChannel(c.UserID))

	case MsgJoinIdea:
		if _, err := primitive.ObjectIDFromHex(msg.ID); err != nil {
			return replyError(msg.Type, "invalid idea id")
		}
		return s.join(c, IdeaChannel(msg.ID))

	case MsgJoinGroup:
		gid, err := primitive.ObjectIDFromHex(msg.ID)
		if err != nil {
			return replyError(msg.Type, "invalid group id")
		}
		uid, err := primitive.ObjectIDFromHex(c.UserID)
		if err != nil || s.CanJoin == nil {
			return replyError(msg.Type, "not a member of this group")
		}
		ok, err := s.CanJoin(ctx, uid, gid)
		if err != nil {
			s.Log.Warn("realtime: group membership check failed", zap.Error(err))
			return replyError(msg.Type, "membership check failed")
		}
		if !ok {
			return replyError(msg.Type, "not a member of this group")
		}
		return s.join(c, GroupChannel(msg.ID))

	case MsgLeave:
		if msg.Channel == "" || msg.Channel == UserChannel(c.UserID) {
			return replyError(msg.Type, "cannot leave this channel")
		}
		s.Registry.Unsubscribe(c, msg.Channel)
		return reply("left", msg.Channel)
	}

	return replyError(msg.Type, "unknown message type")
}

func (s *Server) join(c *Conn, channel string) []byte {
	if !s.Registry.Subscribe(c, channel) {
		return replyError("join", "connection closed")
	}
	return reply("joined", channel)
}

func reply(event, channel string) []byte {
	b, _ := json.Marshal(wireEvent{Event: event, Channel: channel})
	return b
}

func replyError(msgType, message string) []byte {
	b, _ := json.Marshal(wireEvent{Event: "error", Data: map[string]string{
		"type":    msgType,
		"message": message,
	}})
	return b
}
