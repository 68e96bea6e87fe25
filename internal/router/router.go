// Package router performs the authoritative state transitions and
// fanout for every inbound event. All handlers run on the hub's single
// event loop, so no two events interleave on the presence registry or
// the membership table.
package router

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"chatrelay/internal/config"
	"chatrelay/internal/presence"
	"chatrelay/internal/room"
	"chatrelay/pkg/interfaces"
	"chatrelay/pkg/types"
)

// Router validates and enriches inbound events, then fans them out to
// the target room's membership set. Failure semantics are best-effort
// fire-and-forget: malformed events are dropped and per-recipient write
// errors are swallowed.
type Router struct {
	registry interfaces.ConnectionRegistry
	presence *presence.Registry
	rooms    *room.Table
	catalog  interfaces.ChannelStore
	limiter  *EventLimiter
	cfg      *config.ChatConfig

	// Injected for tests.
	now   func() time.Time
	newID func() string
}

// NewRouter creates an event router. catalog may be nil; the roster
// push is then skipped.
func NewRouter(registry interfaces.ConnectionRegistry, pres *presence.Registry, rooms *room.Table, catalog interfaces.ChannelStore, cfg *config.ChatConfig) *Router {
	return &Router{
		registry: registry,
		presence: pres,
		rooms:    rooms,
		catalog:  catalog,
		limiter:  NewEventLimiter(defaultEventsPerMinute),
		cfg:      cfg,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Dispatch routes one inbound event. The switch covers the closed event
// union; adding a variant without a handler fails to compile the
// protocol's tests, not the relay at runtime.
func (r *Router) Dispatch(connID string, ev types.InboundEvent) {
	if !r.limiter.Allow(connID) {
		log.Printf("Dropping event: conn=%s: %v", connID, ErrEventRateExceeded)
		return
	}

	switch e := ev.(type) {
	case *types.JoinChat:
		r.handleJoinChat(connID, e)
	case *types.JoinRoom:
		r.handleJoinRoom(connID, e)
	case *types.SendMessage:
		r.handleSendMessage(connID, e)
	case *types.PrivateMessage:
		r.handlePrivateMessage(connID, e)
	case *types.SendFile:
		r.handleSendFile(connID, e)
	case *types.PrivateFile:
		r.handlePrivateFile(connID, e)
	case *types.Reaction:
		r.handleReaction(connID, e)
	case *types.Typing:
		r.handleTyping(connID, e.Room, false)
	case *types.StopTyping:
		r.handleTyping(connID, e.Room, true)
	default:
		log.Printf("Dropping event: conn=%s: unhandled event %T", connID, ev)
	}
}

// HandleConnect runs once per new connection: it pushes the named
// channel roster so clients need not hardcode it.
func (r *Router) HandleConnect(conn interfaces.Connection) {
	if r.catalog == nil {
		return
	}

	channels, err := r.catalog.List(context.Background())
	if err != nil {
		log.Printf("Channel roster unavailable: conn=%s: %v", conn.ID(), err)
		return
	}
	if err := conn.WriteEvent(types.ChannelList{Channels: channels}); err != nil {
		log.Printf("Failed to send channel roster: conn=%s: %v", conn.ID(), err)
	}
}

// HandleDisconnect removes the connection from the presence registry
// and every room. The user-left notification goes out only if the
// connection had joined the chat.
func (r *Router) HandleDisconnect(connID string) {
	r.limiter.Forget(connID)
	r.rooms.RemoveAll(connID)

	username, joined := r.presence.Leave(connID)
	if !joined {
		return
	}

	log.Printf("User left: conn=%s user=%s", connID, username)
	r.broadcastAll(connID, types.UserEvent{Username: username, Left: true})
	r.broadcastAll("", types.OnlineUsers{Users: r.presence.OnlineUsernames()})
}

func (r *Router) handleJoinChat(connID string, ev *types.JoinChat) {
	if err := ev.Validate(); err != nil {
		log.Printf("Dropping join_chat: conn=%s: %v", connID, err)
		return
	}

	r.presence.Join(connID, ev.Username)
	log.Printf("User joined: conn=%s user=%s", connID, ev.Username)

	r.broadcastAll(connID, types.UserEvent{Username: ev.Username})
	r.broadcastAll("", types.OnlineUsers{Users: r.presence.OnlineUsernames()})
}

func (r *Router) handleJoinRoom(connID string, ev *types.JoinRoom) {
	if err := ev.Validate(); err != nil {
		log.Printf("Dropping join_room: conn=%s: %v", connID, err)
		return
	}

	// Earlier subscriptions stay live: clients keep receiving messages
	// in rooms they are not currently displaying.
	r.rooms.AddMember(ev.Room, connID)
}

func (r *Router) handleSendMessage(connID string, ev *types.SendMessage) {
	if err := ev.Validate(); err != nil {
		log.Printf("Dropping send_message: conn=%s: %v", connID, err)
		return
	}

	roomID := ev.Room
	if roomID == "" {
		roomID = r.cfg.DefaultRoom
	}

	r.broadcastRoom(roomID, r.enrich(connID, ev.ID, ev.Text, roomID, false))
}

func (r *Router) handlePrivateMessage(connID string, ev *types.PrivateMessage) {
	if err := ev.Validate(); err != nil {
		log.Printf("Dropping private_message: conn=%s: %v", connID, err)
		return
	}

	// The room id arrives verbatim: the sender has already derived and
	// joined it. The router does not re-derive.
	r.broadcastRoom(ev.Room, r.enrich(connID, ev.ID, ev.Text, ev.Room, true))
}

// enrich stamps a relayed message with the sender identity from the
// presence registry (never the client payload) and a server-assigned
// timestamp. A client-supplied id is kept so reactions resolve to the
// same message on every projector; absent one, the server assigns it.
func (r *Router) enrich(connID, id, text, roomID string, private bool) types.ChatMessage {
	sender, _ := r.presence.Username(connID)
	if id == "" {
		id = r.newID()
	}
	return types.ChatMessage{
		ID:        id,
		Text:      text,
		Sender:    sender,
		Room:      roomID,
		Timestamp: r.now(),
		Delivered: true,
		Private:   private,
	}
}

func (r *Router) handleSendFile(connID string, ev *types.SendFile) {
	if err := ev.Validate(); err != nil {
		log.Printf("Dropping send_file: conn=%s: %v", connID, err)
		return
	}

	roomID := ev.Room
	if roomID == "" {
		roomID = r.cfg.DefaultRoom
	}
	r.relayFile(connID, ev.File, roomID)
}

func (r *Router) handlePrivateFile(connID string, ev *types.PrivateFile) {
	if err := ev.Validate(); err != nil {
		log.Printf("Dropping private_file: conn=%s: %v", connID, err)
		return
	}

	r.relayFile(connID, ev.File, ev.Room)
}

func (r *Router) relayFile(connID string, file types.FileAttachment, roomID string) {
	if len(file.Data) > r.cfg.MaxFileBytes {
		log.Printf("Dropping oversized file: conn=%s name=%s bytes=%d limit=%d",
			connID, file.Name, len(file.Data), r.cfg.MaxFileBytes)
		return
	}

	sender, _ := r.presence.Username(connID)
	r.broadcastRoom(roomID, types.FileMessage{
		Sender:    sender,
		File:      file,
		Room:      roomID,
		Timestamp: r.now(),
	})
}

// handleReaction relays the toggle to every room member, the sender
// included: projectors rely on receiving their own echo to apply the
// toggle exactly once. The user field is overwritten from the presence
// registry, like every other sender identity.
func (r *Router) handleReaction(connID string, ev *types.Reaction) {
	if err := ev.Validate(); err != nil {
		log.Printf("Dropping reaction: conn=%s: %v", connID, err)
		return
	}

	user, _ := r.presence.Username(connID)
	r.broadcastRoom(ev.Room, types.Reaction{
		MessageID: ev.MessageID,
		Reaction:  ev.Reaction,
		User:      user,
		Room:      ev.Room,
	})
}

func (r *Router) handleTyping(connID, roomID string, stopped bool) {
	username, joined := r.presence.Username(connID)
	if !joined {
		// A typing signal without an identity renders nothing anywhere.
		return
	}

	if r.cfg.TypingGlobal {
		// Compatibility mode: the indicator crosses room boundaries.
		r.broadcastAll(connID, types.TypingNotice{Username: username, Stopped: stopped})
		return
	}

	if roomID == "" {
		roomID = r.cfg.DefaultRoom
	}
	notice := types.TypingNotice{Username: username, Room: roomID, Stopped: stopped}
	for _, memberID := range r.rooms.MembersOf(roomID) {
		if memberID == connID {
			continue
		}
		r.writeTo(memberID, notice)
	}
}

// broadcastRoom fans an event out to every member of a room. Delivery
// failures are per-recipient and never abort the rest of the fanout.
func (r *Router) broadcastRoom(roomID string, ev types.OutboundEvent) {
	for _, connID := range r.rooms.MembersOf(roomID) {
		r.writeTo(connID, ev)
	}
}

// broadcastAll fans an event out to every live connection, optionally
// excluding one (the originator).
func (r *Router) broadcastAll(except string, ev types.OutboundEvent) {
	for _, conn := range r.registry.All() {
		if conn.ID() == except {
			continue
		}
		if err := conn.WriteEvent(ev); err != nil {
			log.Printf("Delivery failed: conn=%s event=%s: %v", conn.ID(), ev.EventType(), err)
		}
	}
}

func (r *Router) writeTo(connID string, ev types.OutboundEvent) {
	conn, exists := r.registry.Get(connID)
	if !exists {
		// Membership can briefly outlive a connection mid-disconnect.
		return
	}
	if err := conn.WriteEvent(ev); err != nil {
		log.Printf("Delivery failed: conn=%s event=%s: %v", connID, ev.EventType(), err)
	}
}
