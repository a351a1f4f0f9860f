// Package codec turns entity records into bytes for the entity store and back.
// Any Codec must round-trip a record exactly; the store compares nothing but
// revisions, so lossy codecs surface as silently changed records.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
