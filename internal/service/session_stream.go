package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fypquiz_backend/pkg/logger"
	"fypquiz_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// EventSnapshot 连接建立后的第一条消息，携带当前会话视图
const EventSnapshot = "session.snapshot"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type streamClient struct {
	conn      *websocket.Conn
	sessionID string
	userID    uint
}

// ServeStream 把会话事件（朗读批次就绪、停止播放、完成）推送给 WebSocket 客户端。
// 会话不存在时在升级前返回错误；多实例部署下事件经 Redis 频道转发
func (s *SessionService) ServeStream(w http.ResponseWriter, r *http.Request, userID uint, sessionID string) error {
	session, err := s.load(r.Context(), userID, sessionID)
	if err != nil {
		return err
	}
	snapshot, err := s.view(r.Context(), session)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return nil
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	pubsub := s.Sessions.Subscribe(ctx, sessionID)
	monitoring.ActiveSessions.Inc()

	c := &streamClient{conn: conn, sessionID: sessionID, userID: userID}
	first, _ := json.Marshal(SessionEvent{Type: EventSnapshot, Data: snapshot})

	go c.writePump(ctx, pubsub, first)
	go c.readPump(cancel)
	return nil
}

// readPump 只处理 pong 和关闭；客户端发来的内容被忽略
func (c *streamClient) readPump(cancel context.CancelFunc) {
	defer cancel()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Session stream unexpected close",
					zap.Error(err),
					zap.String("sessionId", c.sessionID),
					zap.Uint("userId", c.userID),
				)
			}
			return
		}
	}
}

func (c *streamClient) writePump(ctx context.Context, pubsub *redis.PubSub, first []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		pubsub.Close()
		c.conn.Close()
		monitoring.ActiveSessions.Dec()
	}()

	if !c.write(websocket.TextMessage, first) {
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !c.write(websocket.TextMessage, []byte(msg.Payload)) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *streamClient) write(messageType int, data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data) == nil
}
