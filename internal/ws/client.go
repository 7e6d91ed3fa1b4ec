package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"codearena/internal/domain"
	"codearena/internal/logger"
	"codearena/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// connSeq порядок открытия соединений, более новое может забрать место игрока у старого
var connSeq atomic.Uint64

// Client одно websocket соединение. Игрок может переподключиться
// новым Client с тем же PlayerID, ID у каждого соединения свой.
type Client struct {
	ID       string
	PlayerID string
	Profile  domain.Profile // из таблицы players, может быть пустым
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	Done     chan struct{}

	seq       uint64
	closeOnce sync.Once
}

func NewClient(playerID string, profile domain.Profile, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Profile:  profile,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Hub:      hub,
		Done:     make(chan struct{}),
		seq:      connSeq.Add(1),
	}
}

// Run регистрирует соединение и блокируется до его закрытия
func (c *Client) Run() {
	c.Hub.Register(c)
	go c.writePump()

	c.send(Message{Type: TypeReady, Payload: ReadyPayload{ConnectionID: c.ID}})
	c.readPump()
}

// send неблокирующая постановка в очередь. Вызывается в том числе
// под локом комнаты, поэтому переполненный буфер = сообщение теряется.
func (c *Client) send(msg Message) bool {
	data, err := encode(msg)
	if err != nil {
		logger.Error("encode message", "type", msg.Type, "error", err)
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		metrics.DroppedMessages.Inc()
		logger.Warn("send buffer full, message dropped", "conn_id", c.ID, "player_id", c.PlayerID, "type", msg.Type)
		return false
	}
}

func (c *Client) sendError(code, message, matchID string) {
	c.send(Message{Type: TypeError, Payload: ErrorPayload{Code: code, Message: message, MatchID: matchID}})
}

func (c *Client) sendAck(ref, matchID string, ignored bool) {
	c.send(Message{Type: TypeAck, Payload: AckPayload{Ref: ref, MatchID: matchID, Ignored: ignored}})
}

// read
func (c *Client) readPump() {
	defer c.close()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "conn_id", c.ID, "player_id", c.PlayerID, "error", err)
			}
			return
		}
		// любое сообщение продлевает дедлайн чтения
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.Hub.Dispatch(c, msg)
	}
}

// write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "conn_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// close отключение ровно один раз
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.Hub.Disconnect(c)
		close(c.Done)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}
