package util

import (
	"math/big"

	"github.com/google/uuid"
)

// IDLength is the fixed length of node and session identifiers as
// stored in the registry (char(25) columns).
const IDLength = 25

// NewID generates a collision-resistant 25-character identifier.
//
// The identifier is a random UUID re-encoded in base 36 and
// zero-padded to a fixed width, so it sorts and compares as an opaque
// fixed-length string in the database.
func NewID() string {
	u := uuid.New()

	var n big.Int
	n.SetBytes(u[:])

	s := n.Text(36)
	for len(s) < IDLength {
		s = "0" + s
	}
	return s
}
