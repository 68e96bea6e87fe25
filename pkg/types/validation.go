package types

import (
	"regexp"
	"strings"
)

// PrivateRoomSeparator joins the sorted username pair in a derived
// private room identifier. It sits outside the username alphabet, so a
// derived id can never collide with a username or a named channel.
const PrivateRoomSeparator = "#"

// Compiled once at package initialization.
var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	channelRegex  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// IsValidUsername checks the username format: 1-32 characters,
// alphanumeric plus underscore/hyphen. The separator character is
// excluded by the alphabet.
func IsValidUsername(username string) bool {
	if len(username) < 1 || len(username) > 32 {
		return false
	}
	return usernameRegex.MatchString(username)
}

// IsValidChannelName checks a named-room identifier: 1-50 characters
// from the same alphabet as usernames.
func IsValidChannelName(name string) bool {
	if len(name) < 1 || len(name) > 50 {
		return false
	}
	return channelRegex.MatchString(name)
}

// IsValidRoom accepts either a named channel or a derived private room
// (two valid usernames around the separator).
func IsValidRoom(room string) bool {
	if IsValidChannelName(room) {
		return true
	}
	a, b, ok := strings.Cut(room, PrivateRoomSeparator)
	if !ok {
		return false
	}
	return IsValidUsername(a) && IsValidUsername(b)
}

// Validate reports whether the event carries its required fields.
// Malformed events are dropped by the router, never rejected back to
// the sender.

func (e *JoinChat) Validate() error {
	if !IsValidUsername(e.Username) {
		return ErrInvalidUsername
	}
	return nil
}

func (e *JoinRoom) Validate() error {
	if !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}

func (e *SendMessage) Validate() error {
	if e.Text == "" {
		return ErrEmptyText
	}
	if e.Room != "" && !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}

func (e *PrivateMessage) Validate() error {
	if e.Text == "" {
		return ErrEmptyText
	}
	if !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}

func (e *SendFile) Validate() error {
	if e.File.Name == "" || e.File.Data == "" {
		return ErrEmptyFile
	}
	if e.Room != "" && !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}

func (e *PrivateFile) Validate() error {
	if e.File.Name == "" || e.File.Data == "" {
		return ErrEmptyFile
	}
	if !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}

func (e *Reaction) Validate() error {
	if e.MessageID == "" || e.Reaction == "" {
		return ErrInvalidReaction
	}
	if !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}

func (e *Typing) Validate() error {
	if e.Room != "" && !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}

func (e *StopTyping) Validate() error {
	if e.Room != "" && !IsValidRoom(e.Room) {
		return ErrInvalidRoom
	}
	return nil
}
