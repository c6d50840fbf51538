// Package codec decodes data documents (maps, tables, settings) fetched as
// raw bytes. Pair a Codec with assetcache.CodecDecoder to cache decoded values.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
