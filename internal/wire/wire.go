// Package wire frames entity records for storage in a byte provider.
//
//	magic(4) | ver(1) | kind(1=record) | rev(u64 be) | vlen(u32 be) | payload(vlen)
//
// Decoding is strict: wrong magic/version/kind, short buffers and trailing
// bytes are all ErrCorrupt.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	version    byte = 1
	kindRecord byte = 1

	headerLen = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt  = errors.New("pagecache: corrupt entity entry")
	ErrTooLarge = errors.New("pagecache: entity payload exceeds frame limit")
	magic4      = [...]byte{'P', 'G', 'C', 'E'}

	// vlen is a u32
	maxPayload uint64 = math.MaxUint32
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// EncodeRecord frames payload with the store revision it was written at.
// Payloads whose length does not fit vlen are rejected with ErrTooLarge.
func EncodeRecord(rev uint64, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > maxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}
	out := make([]byte, headerLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	out[5] = kindRecord
	binary.BigEndian.PutUint64(out[6:14], rev)
	binary.BigEndian.PutUint32(out[14:18], uint32(len(payload)))
	copy(out[headerLen:], payload)
	return out, nil
}

// DecodeRecord returns the revision and a payload slice aliasing b.
func DecodeRecord(b []byte) (rev uint64, payload []byte, err error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindRecord {
		return 0, nil, ErrCorrupt
	}
	rev = binary.BigEndian.Uint64(b[6:14])
	vlen := uint64(binary.BigEndian.Uint32(b[14:18]))
	if vlen != uint64(len(b)-headerLen) {
		return 0, nil, ErrCorrupt
	}
	return rev, b[headerLen:], nil
}
