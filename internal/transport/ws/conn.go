package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

const writeWait = 10 * time.Second

// Conn is one live WebSocket connection with a bounded FIFO outbound queue.
// Sends to the queue never block the caller; a full queue makes TrySend
// report false and the presence registry drops the connection. A single
// writer goroutine drains the queue, which keeps per-sender ordering.
type Conn struct {
	ws     *websocket.Conn
	out    chan event.Event
	done   chan struct{}
	once   sync.Once
	logger logx.Logger
}

// NewConn wraps an upgraded WebSocket connection and starts its write pump.
func NewConn(ws *websocket.Conn, sendBuffer int, logger logx.Logger) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	c := &Conn{
		ws:     ws,
		out:    make(chan event.Event, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.writePump()
	return c
}

// TrySend queues an event for delivery without blocking. False means the
// queue is full and this consumer is too slow to keep.
func (c *Conn) TrySend(ev event.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- ev:
		return true
	default:
		return false
	}
}

// Close shuts the connection down; safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		if err := c.ws.Close(); err != nil {
			c.logger.Debug("ws close", logx.Any("err", err))
		}
	})
}

func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.out:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug("ws write failed", logx.Any("err", err))
				c.Close()
				return
			}
		}
	}
}
