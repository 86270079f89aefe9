package idemstore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fingerprint derives a stable key from message parts, e.g. a message id and body.
// Parts are length-prefixed, so ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
