package types

import (
	"encoding/json"
	"fmt"
)

// Inbound event names (client -> server).
const (
	EventJoinChat       = "join_chat"
	EventJoinRoom       = "join_room"
	EventSendMessage    = "send_message"
	EventPrivateMessage = "private_message"
	EventSendFile       = "send_file"
	EventPrivateFile    = "private_file"
	EventReaction       = "reaction"
	EventTyping         = "typing"
	EventStopTyping     = "stop_typing"
)

// Outbound event names (server -> client).
const (
	EventReceiveMessage        = "receive_message"
	EventReceivePrivateMessage = "receive_private_message"
	EventReceiveFile           = "receive_file"
	EventUserTyping            = "user_typing"
	EventUserStopTyping        = "user_stop_typing"
	EventOnlineUsers           = "online_users"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventChannelList           = "channel_list"
)

// Envelope is the single frame format on the wire: a tag plus a
// type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// FileAttachment carries an in-line file payload. Data is a base64 data
// URL, framed like any other message.
type FileAttachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// InboundEvent is the closed set of client-originated events. Each wire
// event name has exactly one variant, so the router's dispatch switch
// covers the whole protocol at compile time.
type InboundEvent interface {
	inbound()
}

// JoinChat associates a username with the sending connection.
type JoinChat struct {
	Username string `json:"username"`
}

// JoinRoom subscribes the sending connection to a room. Previous
// subscriptions stay live.
type JoinRoom struct {
	Room string `json:"room"`
}

// SendMessage targets a named room, defaulting if unspecified.
type SendMessage struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	Room string `json:"room,omitempty"`
}

// PrivateMessage targets a derived private room verbatim; the client has
// already computed and joined it.
type PrivateMessage struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Room      string `json:"room"`
	Recipient string `json:"recipient,omitempty"`
}

// SendFile carries a file to a named room.
type SendFile struct {
	ID   string         `json:"id,omitempty"`
	File FileAttachment `json:"file"`
	Room string         `json:"room,omitempty"`
}

// PrivateFile carries a file to a derived private room.
type PrivateFile struct {
	ID   string         `json:"id,omitempty"`
	File FileAttachment `json:"file"`
	Room string         `json:"room"`
}

// Reaction toggles a (message, symbol, user) reaction. The server relays
// it; every projector applies the identical toggle rule, the sender
// included.
type Reaction struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	User      string `json:"user,omitempty"`
	Room      string `json:"room"`
}

// Typing signals the start of a typing burst. Room is optional; absent
// means the default room.
type Typing struct {
	Room string `json:"room,omitempty"`
}

// StopTyping ends a typing burst.
type StopTyping struct {
	Room string `json:"room,omitempty"`
}

func (JoinChat) inbound()       {}
func (JoinRoom) inbound()       {}
func (SendMessage) inbound()    {}
func (PrivateMessage) inbound() {}
func (SendFile) inbound()       {}
func (PrivateFile) inbound()    {}
func (Reaction) inbound()       {}
func (Typing) inbound()         {}
func (StopTyping) inbound()     {}

// DecodeInbound parses a wire frame into its typed event. Unknown event
// names and malformed payloads are errors; callers drop such frames.
func DecodeInbound(data []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	decode := func(v InboundEvent) (InboundEvent, error) {
		if len(env.Payload) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(env.Payload, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFrame, env.Type, err)
		}
		return v, nil
	}

	switch env.Type {
	case EventJoinChat:
		return decode(&JoinChat{})
	case EventJoinRoom:
		return decode(&JoinRoom{})
	case EventSendMessage:
		return decode(&SendMessage{})
	case EventPrivateMessage:
		return decode(&PrivateMessage{})
	case EventSendFile:
		return decode(&SendFile{})
	case EventPrivateFile:
		return decode(&PrivateFile{})
	case EventReaction:
		return decode(&Reaction{})
	case EventTyping:
		return decode(&Typing{})
	case EventStopTyping:
		return decode(&StopTyping{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
}
