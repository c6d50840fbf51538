package assetcache

import (
	"fmt"
	"strings"
)

// Kind is the closed set of resource categories. Each kind gets its own
// Store and Queue in a Runtime.
type Kind uint8

const (
	KindImage Kind = iota
	KindAudio
	KindFont
	KindData

	numKinds = int(KindData) + 1
)

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindImage, KindAudio, KindFont, KindData}
}

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindFont:
		return "font"
	case KindData:
		return "data"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindAudio, KindFont, KindData:
		return true
	default:
		return false
	}
}

// ParseKind maps a case-insensitive name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "img":
		return KindImage, nil
	case "audio", "sound":
		return KindAudio, nil
	case "font":
		return KindFont, nil
	case "data":
		return KindData, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// UnmarshalText lets Kind be decoded from config files.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}
