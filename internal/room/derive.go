package room

import (
	"strings"

	"chatrelay/pkg/types"
)

// DerivePrivate turns a pair of usernames into the canonical private
// room identifier: the lexicographically smaller name first, joined by
// a separator outside the username alphabet. Commutative, so both
// participants resolve to the same room no matter who opened the
// conversation.
func DerivePrivate(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + types.PrivateRoomSeparator + userB
}

// IsPrivate reports whether a room identifier is a derived private
// room. The two kinds differ only by naming convention; no type tag is
// stored.
func IsPrivate(roomID string) bool {
	return strings.Contains(roomID, types.PrivateRoomSeparator)
}
