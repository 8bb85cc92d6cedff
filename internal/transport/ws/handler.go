package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

// Client-to-server event names that extend the shared vocabulary. Events that
// exist in both directions (send-message, typing, call-*) reuse their names.
const (
	inboundSubscribeLocation   = "subscribe-location"
	inboundUnsubscribeLocation = "unsubscribe-location"
	inboundJoinRoom            = "join-room"
	inboundLeaveRoom           = "leave-room"
	inboundWatchStatus         = "watch-status"
	inboundUnwatchStatus       = "unwatch-status"
	inboundCallDecline         = "call-decline"
)

type inboundEnvelope struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Presence is the connection lifecycle side of the presence registry.
type Presence interface {
	Register(identity string, conn *Conn)
	Unregister(identity string, conn *Conn)
	SetStatus(identity string, status domain.PresenceStatus)
	Watch(observer, target string)
	Unwatch(observer, target string)
}

// ChatService relays room traffic.
type ChatService interface {
	Join(roomID, identity string) error
	Leave(roomID, identity string)
	Send(ctx context.Context, roomID, sender, text string) error
	SetTyping(roomID, sender string, isTyping bool) error
}

// CallService relays call signaling.
type CallService interface {
	Ring(roomID, from string, payload json.RawMessage) error
	Answer(roomID string, payload json.RawMessage) error
	Decline(roomID string) error
	RelayICE(roomID, from string, payload json.RawMessage) error
	End(roomID string) error
}

// LocationService accepts courier positions and stream subscriptions.
type LocationService interface {
	Publish(courierID string, loc domain.Location)
	Subscribe(deliveryID, identity string)
	Unsubscribe(deliveryID, identity string)
}

// Handler upgrades HTTP requests to WebSocket connections and pumps inbound
// events into the core services. One read-loop goroutine per connection; a
// connection's failure never touches another connection's session.
type Handler struct {
	upgrader   websocket.Upgrader
	presence   Presence
	chat       ChatService
	calls      CallService
	locations  LocationService
	sendBuffer int
	logger     logx.Logger
}

// NewHandler creates the WebSocket entry point.
func NewHandler(p Presence, chat ChatService, calls CallService, locations LocationService, sendBuffer int, logger logx.Logger) *Handler {
	return &Handler{
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		presence:   p,
		chat:       chat,
		calls:      calls,
		locations:  locations,
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// ServeHTTP handles GET /ws?identity=... The identity arrives already
// authenticated by the surrounding platform.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := strings.TrimSpace(r.URL.Query().Get("identity"))
	if identity == "" {
		http.Error(w, `{"error":"identity required"}`, http.StatusBadRequest)
		return
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", logx.Any("err", err))
		return
	}

	conn := NewConn(sock, h.sendBuffer, h.logger)
	h.presence.Register(identity, conn)
	h.logger.Info("ws connected", logx.String("identity", identity))

	// the request context dies with the upgrade; the loop owns its own
	go h.readLoop(context.Background(), identity, conn, sock)
}

func (h *Handler) readLoop(ctx context.Context, identity string, conn *Conn, sock *websocket.Conn) {
	defer func() {
		h.presence.Unregister(identity, conn)
		conn.Close()
		h.logger.Info("ws disconnected", logx.String("identity", identity))
	}()

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			return
		}
		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Debug("ws bad envelope", logx.String("identity", identity), logx.Any("err", err))
			continue
		}
		if err := h.dispatch(ctx, identity, env); err != nil {
			// per-connection errors stay on this connection
			h.logger.Debug("ws event rejected",
				logx.String("identity", identity),
				logx.String("event", env.Name),
				logx.Any("err", err),
			)
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, identity string, env inboundEnvelope) error {
	switch env.Name {
	case event.SendMessage:
		var p event.MessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.chat.Send(ctx, p.RoomID, identity, p.Text)

	case event.Typing, event.StopTyping:
		var p event.TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.chat.SetTyping(p.RoomID, identity, env.Name == event.Typing)

	case inboundJoinRoom:
		var p event.TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.chat.Join(p.RoomID, identity)

	case inboundLeaveRoom:
		var p event.TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.chat.Leave(p.RoomID, identity)
		return nil

	case event.LocationUpdate:
		var p event.LocationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.locations.Publish(identity, domain.Location{Lat: p.Lat, Lon: p.Lon, Timestamp: p.Timestamp})
		return nil

	case inboundSubscribeLocation:
		var p event.LocationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.locations.Subscribe(p.DeliveryID, identity)
		return nil

	case inboundUnsubscribeLocation:
		var p event.LocationPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.locations.Unsubscribe(p.DeliveryID, identity)
		return nil

	case event.UserStatusChange:
		var p event.StatusChangePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.presence.SetStatus(identity, p.Status)
		return nil

	case inboundWatchStatus:
		var p event.StatusChangePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.presence.Watch(identity, p.Identity)
		return nil

	case inboundUnwatchStatus:
		var p event.StatusChangePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.presence.Unwatch(identity, p.Identity)
		return nil

	case event.CallRing:
		var p event.CallPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.calls.Ring(p.RoomID, identity, p.Signal)

	case event.CallAnswer:
		var p event.CallPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.calls.Answer(p.RoomID, p.Signal)

	case inboundCallDecline:
		var p event.CallPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.calls.Decline(p.RoomID)

	case event.CallICE:
		var p event.CallPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.calls.RelayICE(p.RoomID, identity, p.Signal)

	case event.CallEnd:
		var p event.CallPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.calls.End(p.RoomID)

	default:
		h.logger.Debug("ws unknown event", logx.String("event", env.Name))
		return nil
	}
}
