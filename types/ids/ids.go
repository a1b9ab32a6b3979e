package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ID is a SHA-256 digest. Every hash on the ledger is one of these.
type ID [32]byte

// Empty is the zero-value ID (all zeros)
var Empty ID

// NewID hashes input bytes.
func NewID(data []byte) ID {
	return ID(sha256.Sum256(data))
}

// FromString parses a 64 character hex string into an ID.
func FromString(s string) (ID, error) {
	var id ID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("ids: want %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// String converts an ID back to a hex string
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsEmpty reports whether the ID is all zeros.
func (id ID) IsEmpty() bool {
	return id == Empty
}

// LeadingZeroHex counts the leading '0' digits of the hex form.
func (id ID) LeadingZeroHex() int {
	n := 0
	for _, b := range id {
		if b>>4 != 0 {
			return n
		}
		n++
		if b&0x0f != 0 {
			return n
		}
		n++
	}
	return n
}

// MeetsDifficulty reports whether the first difficulty hex digits are zero.
func (id ID) MeetsDifficulty(difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	return id.LeadingZeroHex() >= difficulty
}

// HashHex returns the hex SHA-256 of data.
func HashHex(data []byte) string {
	return NewID(data).String()
}
