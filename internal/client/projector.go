// Package client holds the per-connection session projector: a reducer
// that folds the server's event stream into local view state. The state
// is derived and disposable; the routing core remains authoritative.
package client

import (
	"sync"
	"time"

	"chatrelay/pkg/types"
)

// Message is a projected message log entry. Reactions aggregate here,
// on the consuming side, by replaying the relayed toggle events.
type Message struct {
	ID        string
	Text      string
	Sender    string
	Room      string
	Timestamp time.Time
	File      *types.FileAttachment
	Private   bool
	Delivered bool
	System    bool
	Reactions map[string][]string // symbol -> usernames
}

// Projector reduces the outbound event stream into a message log, the
// online list, per-room typing sets, and reaction tallies. Each event
// must be applied exactly once; duplicate delivery of a reaction frame
// would re-toggle it.
type Projector struct {
	mu       sync.Mutex
	messages []Message
	online   []string
	channels []string
	typing   map[string]map[string]time.Time // room -> user -> expiry
	unread   int

	typingTTL time.Duration
	now       func() time.Time
}

// NewProjector creates an empty projector. typingTTL bounds how long a
// typing indicator survives without a renewed signal, mirroring the
// server's model of "present until stop or timeout".
func NewProjector(typingTTL time.Duration) *Projector {
	return &Projector{
		typing:    make(map[string]map[string]time.Time),
		typingTTL: typingTTL,
		now:       time.Now,
	}
}

// Apply folds one server event into local state.
func (p *Projector) Apply(ev types.OutboundEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := ev.(type) {
	case types.ChatMessage:
		p.messages = append(p.messages, Message{
			ID:        e.ID,
			Text:      e.Text,
			Sender:    e.Sender,
			Room:      e.Room,
			Timestamp: e.Timestamp,
			Private:   e.Private,
			Delivered: e.Delivered,
		})
		p.unread++

	case types.FileMessage:
		file := e.File
		p.messages = append(p.messages, Message{
			Sender:    e.Sender,
			Room:      e.Room,
			Timestamp: e.Timestamp,
			File:      &file,
			Delivered: true,
		})
		p.unread++

	case types.Reaction:
		p.toggleReaction(e)

	case types.TypingNotice:
		if e.Stopped {
			p.removeTyping(e.Room, e.Username)
		} else {
			p.addTyping(e.Room, e.Username)
		}

	case types.OnlineUsers:
		p.online = append([]string(nil), e.Users...)

	case types.UserEvent:
		text := e.Username + " joined the chat"
		if e.Left {
			text = e.Username + " left the chat"
		}
		p.messages = append(p.messages, Message{Text: text, System: true})

	case types.ChannelList:
		p.channels = append([]string(nil), e.Channels...)
	}
}

// toggleReaction applies the shared toggle rule: present removes,
// absent adds, per (message, symbol, user).
func (p *Projector) toggleReaction(e types.Reaction) {
	if e.User == "" {
		return
	}

	for i := range p.messages {
		msg := &p.messages[i]
		if msg.ID != e.MessageID {
			continue
		}

		if msg.Reactions == nil {
			msg.Reactions = make(map[string][]string)
		}
		users := msg.Reactions[e.Reaction]
		for j, user := range users {
			if user == e.User {
				users = append(users[:j], users[j+1:]...)
				if len(users) == 0 {
					delete(msg.Reactions, e.Reaction)
				} else {
					msg.Reactions[e.Reaction] = users
				}
				return
			}
		}
		msg.Reactions[e.Reaction] = append(users, e.User)
		return
	}
}

func (p *Projector) addTyping(roomID, username string) {
	if username == "" {
		return
	}
	users, exists := p.typing[roomID]
	if !exists {
		users = make(map[string]time.Time)
		p.typing[roomID] = users
	}
	users[username] = p.now().Add(p.typingTTL)
}

func (p *Projector) removeTyping(roomID, username string) {
	users, exists := p.typing[roomID]
	if !exists {
		return
	}
	delete(users, username)
	if len(users) == 0 {
		delete(p.typing, roomID)
	}
}

// Messages returns a snapshot of the projected message log.
func (p *Projector) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// OnlineUsers returns the latest presence snapshot.
func (p *Projector) OnlineUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.online...)
}

// Channels returns the named-channel roster pushed at connect.
func (p *Projector) Channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.channels...)
}

// TypingUsers returns who is typing in a room, expiring entries whose
// renewal signal never arrived.
func (p *Projector) TypingUsers(roomID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, exists := p.typing[roomID]
	if !exists {
		return nil
	}

	now := p.now()
	var active []string
	for username, deadline := range users {
		if now.After(deadline) {
			delete(users, username)
			continue
		}
		active = append(active, username)
	}
	if len(users) == 0 {
		delete(p.typing, roomID)
	}
	return active
}

// Reactions returns the aggregated reaction map for one message.
func (p *Projector) Reactions(messageID string) map[string][]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.messages {
		if p.messages[i].ID != messageID {
			continue
		}
		out := make(map[string][]string, len(p.messages[i].Reactions))
		for symbol, users := range p.messages[i].Reactions {
			out[symbol] = append([]string(nil), users...)
		}
		return out
	}
	return nil
}

// Unread returns the count of messages folded since the last MarkRead.
func (p *Projector) Unread() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.unread
}

// MarkRead resets the unread counter.
func (p *Projector) MarkRead() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unread = 0
}
