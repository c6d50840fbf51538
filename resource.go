package assetcache

import (
	"fmt"

	c "github.com/unkn0wn-root/assetcache/codec"
)

// Resource is the opaque handle a Store caches. Any type is cache-compatible
// as long as it can say whether it is still in use and can be released.
type Resource interface {
	// Retained reports whether a consumer (renderer, mixer, ...) still
	// references the resource. Retained resources survive sweeps.
	Retained() bool
	// Release frees the underlying resource. immediate=false lets the
	// resource use its own deferred path (e.g. the next render frame).
	// Entry guarantees Release is called at most once.
	Release(immediate bool)
}

// refs is an embeddable retain counter.
type refs struct{ n int }

// Retain marks the resource as in use by one more consumer.
func (r *refs) Retain() { r.n++ }

// Drop undoes one Retain.
func (r *refs) Drop() {
	if r.n > 0 {
		r.n--
	}
}

func (r *refs) Retained() bool { return r.n > 0 }

// Blob is an undecoded asset (image, audio or font bytes).
// Format decoding belongs to the consumer.
type Blob struct {
	refs
	data     []byte
	released bool
}

func NewBlob(b []byte) *Blob { return &Blob{data: b} }

// Bytes returns the payload, or nil once released.
func (b *Blob) Bytes() []byte { return b.data }

func (b *Blob) Len() int { return len(b.data) }

func (b *Blob) Released() bool { return b.released }

// Release drops the bytes. Blob has no deferred path so both modes act now.
func (b *Blob) Release(bool) {
	b.data = nil
	b.released = true
}

// Doc is a decoded data document (maps, tables, system settings).
type Doc[V any] struct {
	refs
	Value    V
	released bool
}

func (d *Doc[V]) Released() bool { return d.released }

func (d *Doc[V]) Release(bool) {
	var zero V
	d.Value = zero
	d.released = true
}

// Decoder turns fetched bytes into a Resource.
type Decoder interface {
	Decode(key string, raw []byte) (Resource, error)
}

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc func(key string, raw []byte) (Resource, error)

func (f DecoderFunc) Decode(key string, raw []byte) (Resource, error) { return f(key, raw) }

// BlobDecoder wraps raw bytes in a *Blob. Default for image, audio and font.
type BlobDecoder struct{}

func (BlobDecoder) Decode(_ string, raw []byte) (Resource, error) {
	return NewBlob(raw), nil
}

// CodecDecoder decodes data documents into *Doc[V] through a codec.
type CodecDecoder[V any] struct {
	Codec c.Codec[V]
}

func (d CodecDecoder[V]) Decode(key string, raw []byte) (Resource, error) {
	v, err := d.Codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return &Doc[V]{Value: v}, nil
}
