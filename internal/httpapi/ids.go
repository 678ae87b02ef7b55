package httpapi

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// roomIDAlphabet excludes visually ambiguous characters (0/O, 1/I),
// matching the teacher's room/invite-code conventions elsewhere in the
// pack (short, human-typeable, uppercase codes).
const roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newRoomID mints an opaque uppercase room id of at least 6 characters
// (spec §8 scenario 1).
func newRoomID() string {
	const length = 6
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(out)
}

// newID mints a general-purpose element/member/context id, passed as the
// idGen callback into room.State mutation methods.
func newID() string { return uuid.NewString() }
