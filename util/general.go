package util

import (
	"strings"

	"github.com/google/uuid"
)

// RoomIDLength is the number of hex characters in a generated room id.
const RoomIDLength = 8

// NewRoomID returns a fresh opaque room id. It does not register a room; rooms
// come into existence when the first player joins them.
func NewRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:RoomIDLength]
}
