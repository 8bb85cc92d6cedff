package domain

import (
	"strings"
	"time"

	"service-dispatch/internal/apperr"
)

const roomPrefix = "room:"
const roomSep = ":"

// RoomID derives the deterministic two-party room id from the stable
// identities of both participants. Either side computes the same id without
// a server round trip. Identities must not contain the separator.
func RoomID(a, b string) string {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return roomPrefix + lo + roomSep + hi
}

// RoomMembers recovers the two identities from a room id.
func RoomMembers(roomID string) (string, string, error) {
	rest, ok := strings.CutPrefix(roomID, roomPrefix)
	if !ok {
		return "", "", apperr.ErrInvalid
	}
	lo, hi, ok := strings.Cut(rest, roomSep)
	if !ok || lo == "" || hi == "" {
		return "", "", apperr.ErrInvalid
	}
	return lo, hi, nil
}

// RoomPeer returns the other member of a two-party room.
func RoomPeer(roomID, identity string) (string, error) {
	lo, hi, err := RoomMembers(roomID)
	if err != nil {
		return "", err
	}
	switch identity {
	case lo:
		return hi, nil
	case hi:
		return lo, nil
	default:
		return "", apperr.ErrNotFound
	}
}

// Message is a relayed negotiation message. The core does not store it;
// durability belongs to the external history store.
type Message struct {
	RoomID string    `json:"room_id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}
