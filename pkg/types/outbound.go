package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutboundEvent is the closed set of server-originated events.
type OutboundEvent interface {
	EventType() string
}

// ChatMessage is a relayed text message, enriched by the router: the
// sender comes from the presence registry and the timestamp is
// server-assigned. Private selects the receive_private_message frame.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
	Delivered bool      `json:"delivered"`
	Private   bool      `json:"-"`
}

// FileMessage is a relayed file event.
type FileMessage struct {
	Sender    string         `json:"sender"`
	File      FileAttachment `json:"file"`
	Room      string         `json:"room"`
	Timestamp time.Time      `json:"timestamp"`
}

// TypingNotice reports that a user started or stopped typing.
type TypingNotice struct {
	Username string `json:"username"`
	Room     string `json:"room,omitempty"`
	Stopped  bool   `json:"-"`
}

// OnlineUsers is the full distinct-username presence snapshot, pushed to
// every connection on each presence change.
type OnlineUsers struct {
	Users []string `json:"users"`
}

// UserEvent announces a user joining or leaving the chat.
type UserEvent struct {
	Username string `json:"username"`
	Left     bool   `json:"-"`
}

// ChannelList is the named-channel roster, sent once after connect.
type ChannelList struct {
	Channels []string `json:"channels"`
}

func (m ChatMessage) EventType() string {
	if m.Private {
		return EventReceivePrivateMessage
	}
	return EventReceiveMessage
}

func (FileMessage) EventType() string { return EventReceiveFile }

// Reaction frames relay unchanged, so the inbound type doubles as the
// outbound one.
func (Reaction) EventType() string { return EventReaction }

func (n TypingNotice) EventType() string {
	if n.Stopped {
		return EventUserStopTyping
	}
	return EventUserTyping
}

func (OnlineUsers) EventType() string { return EventOnlineUsers }

func (e UserEvent) EventType() string {
	if e.Left {
		return EventUserLeft
	}
	return EventUserJoined
}

func (ChannelList) EventType() string { return EventChannelList }

// EncodeOutbound frames an outbound event for the wire.
func EncodeOutbound(ev OutboundEvent) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", ev.EventType(), err)
	}
	return json.Marshal(Envelope{Type: ev.EventType(), Payload: payload})
}

// DecodeOutbound parses a server frame into its typed event. Fields the
// wire expresses through the event name (private, stopped, left) are
// restored from the envelope type.
func DecodeOutbound(data []byte) (OutboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	decode := func(v interface{}) error {
		if len(env.Payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Payload, v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, env.Type, err)
		}
		return nil
	}

	switch env.Type {
	case EventReceiveMessage, EventReceivePrivateMessage:
		var ev ChatMessage
		if err := decode(&ev); err != nil {
			return nil, err
		}
		ev.Private = env.Type == EventReceivePrivateMessage
		return ev, nil
	case EventReceiveFile:
		var ev FileMessage
		err := decode(&ev)
		return ev, err
	case EventReaction:
		var ev Reaction
		err := decode(&ev)
		return ev, err
	case EventUserTyping, EventUserStopTyping:
		var ev TypingNotice
		if err := decode(&ev); err != nil {
			return nil, err
		}
		ev.Stopped = env.Type == EventUserStopTyping
		return ev, nil
	case EventOnlineUsers:
		var ev OnlineUsers
		err := decode(&ev)
		return ev, err
	case EventUserJoined, EventUserLeft:
		var ev UserEvent
		if err := decode(&ev); err != nil {
			return nil, err
		}
		ev.Left = env.Type == EventUserLeft
		return ev, nil
	case EventChannelList:
		var ev ChannelList
		err := decode(&ev)
		return ev, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
}
