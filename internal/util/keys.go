package util

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// StorageKey namespaces an entity id: "<prefix>:<ns>:<id>".
func StorageKey(prefix, ns, id string) string {
	return prefix + ":" + ns + ":" + id
}

// Digest hashes parts with length prefixes, so ("a:b","") and ("a","b") differ.
// Returns the first 16 hex chars of the SHA-256 sum.
func Digest(parts ...string) string {
	h := sha256.New()
	var n [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(n[:], uint32(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Redact returns a short stable fingerprint of s, safe to put in logs.
func Redact(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
