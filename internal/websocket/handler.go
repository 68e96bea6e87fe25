package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chatrelay/internal/config"
	"chatrelay/pkg/interfaces"
	"chatrelay/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from arbitrary origins; the relay has
		// no authentication layer to protect.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// EventSink receives connection lifecycle events and decoded inbound
// frames. Implemented by the hub.
type EventSink interface {
	Register(conn interfaces.Connection) error
	Unregister(connID string) error
	Submit(connID string, ev types.InboundEvent) error
}

// Handler upgrades HTTP requests and pumps inbound frames into the
// event sink.
type Handler struct {
	sink EventSink
	cfg  *config.WebSocketConfig
}

// NewHandler creates a WebSocket handler feeding the given sink.
func NewHandler(sink EventSink, cfg *config.WebSocketConfig) *Handler {
	return &Handler{
		sink: sink,
		cfg:  cfg,
	}
}

// HandleWebSocket upgrades the request and runs the connection's read
// loop. The username arrives later over the socket via join_chat; an
// upgrade needs no parameters.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn, h.cfg.SendBuffer, h.cfg.PingInterval, h.cfg.WriteTimeout)

	if err := h.sink.Register(wsConn); err != nil {
		log.Printf("Connection registration failed: conn=%s: %v", wsConn.ID(), err)
		_ = wsConn.Close()
		return
	}

	go h.readLoop(wsConn)
}

// readLoop reads frames until the peer goes away, decoding each into a
// typed event for the sink. Malformed frames are dropped silently; no
// error flows back to the sender.
func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		if err := h.sink.Unregister(conn.id); err != nil {
			log.Printf("Connection deregistration failed: conn=%s: %v", conn.id, err)
		}
		_ = conn.Close()
	}()

	// The read limit is the transport's cap on in-line payloads; an
	// oversized frame terminates the connection rather than being
	// buffered.
	conn.conn.SetReadLimit(h.cfg.MaxMessageBytes)
	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Connection read error: conn=%s: %v", conn.id, err)
			}
			return
		}

		ev, err := types.DecodeInbound(data)
		if err != nil {
			log.Printf("Dropping malformed frame: conn=%s: %v", conn.id, err)
			continue
		}

		if err := h.sink.Submit(conn.id, ev); err != nil {
			log.Printf("Dropping event: conn=%s: %v", conn.id, err)
		}
	}
}
