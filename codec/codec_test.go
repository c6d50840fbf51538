package codec

import (
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type tileMap struct {
	Name   string  `json:"name" msgpack:"name" cbor:"name"`
	Width  int     `json:"width" msgpack:"width" cbor:"width"`
	Layers []int32 `json:"layers" msgpack:"layers" cbor:"layers"`
}

func sample() tileMap {
	return tileMap{Name: "level1", Width: 64, Layers: []int32{1, 2, 3}}
}

func checkRT(t *testing.T, name string, c Codec[tileMap]) {
	t.Helper()
	b, err := c.Encode(sample())
	if err != nil {
		t.Fatalf("%s encode: %v", name, err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("%s decode: %v", name, err)
	}
	if got.Name != "level1" || got.Width != 64 || len(got.Layers) != 3 || got.Layers[2] != 3 {
		t.Fatalf("%s round trip = %+v", name, got)
	}
}

func TestDocumentCodecs(t *testing.T) {
	checkRT(t, "json", JSON[tileMap]{})
	checkRT(t, "msgpack", Msgpack[tileMap]{})
	checkRT(t, "cbor", MustCBOR[tileMap](false))
	checkRT(t, "cbor-det", MustCBOR[tileMap](true))
}

func TestCBORDeterministicIsStable(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, _ := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	b, _ := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	if string(a) != string(b) {
		t.Fatalf("deterministic encoding differs: %x vs %x", a, b)
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	// {"a": 1, "a": 2}
	dup := []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	if _, err := MustCBOR[map[string]int](false).Decode(dup); err == nil {
		t.Fatalf("duplicate map key accepted")
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	v, err := c.Decode(b)
	if err != nil || v.GetValue() != "hello" {
		t.Fatalf("decode = %q, %v", v.GetValue(), err)
	}
	if _, err := c.Decode([]byte{0xff, 0xff}); err == nil {
		t.Fatalf("garbage decoded without error")
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if v, err := c.Decode([]byte("abcd")); err != nil || v != "abcd" {
		t.Fatalf("at limit: %q, %v", v, err)
	}
	_, err := c.Decode([]byte("abcde"))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("over limit err = %v", err)
	}
	if _, err := (Limit[string]{Inner: String{}}).Decode(make([]byte, 1<<20)); err != nil {
		t.Fatalf("MaxDecode 0 should disable the check: %v", err)
	}
}

func TestRaw(t *testing.T) {
	in := []byte{1, 2, 3}
	out, _ := Bytes{}.Decode(in)
	if &out[0] != &in[0] {
		t.Fatalf("Bytes.Decode copied the payload")
	}
	s, _ := String{}.Decode([]byte("héllo"))
	if s != "héllo" {
		t.Fatalf("String.Decode = %q", s)
	}
}
