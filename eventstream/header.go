// Package eventstream implements the binary "vnd.amazon.eventstream" wire
// format: typed headers, the 12-byte prelude, and the trailing CRC that
// together frame one message on an AWS event-stream connection.
package eventstream

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Type is the one-byte wire tag identifying a header's value variant.
// The numeric value of each constant IS the wire format; it must never be
// renumbered.
type Type uint8

// Header value types, in wire-tag order.
const (
	TypeBoolTrue Type = iota
	TypeBoolFalse
	TypeByte
	TypeShort
	TypeInteger
	TypeLong
	TypeByteArray
	TypeString
	TypeTimestamp
	TypeUUID
)

// String returns the human-readable name of a header type tag.
func (t Type) String() string {
	switch t {
	case TypeBoolTrue:
		return "bool_true"
	case TypeBoolFalse:
		return "bool_false"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeInteger:
		return "integer"
	case TypeLong:
		return "long"
	case TypeByteArray:
		return "byte_array"
	case TypeString:
		return "string"
	case TypeTimestamp:
		return "timestamp"
	case TypeUUID:
		return "uuid"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Size limits from the wire format.
const (
	MaxNameLen  = 255
	MaxValueLen = 65535
)

// Header is a single named, typed value in an event-stream message.
// Construct one with the typed constructors below; inspect one with the
// typed As* accessors, which return mo.None when the header is not of the
// requested variant.
type Header struct {
	name  string
	typ   Type
	value any
}

// Name returns the header's name.
func (h Header) Name() string { return h.name }

// Type returns the header's wire-tag type.
func (h Header) Type() Type { return h.typ }

// BoolHeader constructs a BoolTrue/BoolFalse header.
func BoolHeader(name string, v bool) Header {
	t := TypeBoolFalse
	if v {
		t = TypeBoolTrue
	}
	return Header{name: name, typ: t, value: v}
}

// ByteHeader constructs a signed 8-bit header.
func ByteHeader(name string, v int8) Header {
	return Header{name: name, typ: TypeByte, value: v}
}

// ShortHeader constructs a signed 16-bit header.
func ShortHeader(name string, v int16) Header {
	return Header{name: name, typ: TypeShort, value: v}
}

// IntegerHeader constructs a signed 32-bit header.
func IntegerHeader(name string, v int32) Header {
	return Header{name: name, typ: TypeInteger, value: v}
}

// LongHeader constructs a signed 64-bit header.
func LongHeader(name string, v int64) Header {
	return Header{name: name, typ: TypeLong, value: v}
}

// ByteArrayHeader constructs a length-prefixed raw-bytes header.
// len(v) must be <= MaxValueLen.
func ByteArrayHeader(name string, v []byte) Header {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Header{name: name, typ: TypeByteArray, value: cp}
}

// StringHeader constructs a UTF-8 string header. len(v) must be <= MaxValueLen.
func StringHeader(name string, v string) Header {
	return Header{name: name, typ: TypeString, value: v}
}

// TimestampHeader constructs a millisecond-epoch header.
// The value is truncated to millisecond precision on encode.
func TimestampHeader(name string, v time.Time) Header {
	return Header{name: name, typ: TypeTimestamp, value: v}
}

// UUIDHeader constructs a 16-byte UUID header.
func UUIDHeader(name string, v uuid.UUID) Header {
	return Header{name: name, typ: TypeUUID, value: v}
}

// AsBool returns the header's bool value, if it is a BoolTrue/BoolFalse header.
func (h Header) AsBool() mo.Option[bool] {
	if h.typ != TypeBoolTrue && h.typ != TypeBoolFalse {
		return mo.None[bool]()
	}
	return mo.Some(h.value.(bool))
}

// AsByte returns the header's int8 value, if it is a Byte header.
func (h Header) AsByte() mo.Option[int8] {
	if h.typ != TypeByte {
		return mo.None[int8]()
	}
	return mo.Some(h.value.(int8))
}

// AsShort returns the header's int16 value, if it is a Short header.
func (h Header) AsShort() mo.Option[int16] {
	if h.typ != TypeShort {
		return mo.None[int16]()
	}
	return mo.Some(h.value.(int16))
}

// AsInteger returns the header's int32 value, if it is an Integer header.
func (h Header) AsInteger() mo.Option[int32] {
	if h.typ != TypeInteger {
		return mo.None[int32]()
	}
	return mo.Some(h.value.(int32))
}

// AsLong returns the header's int64 value, if it is a Long header.
func (h Header) AsLong() mo.Option[int64] {
	if h.typ != TypeLong {
		return mo.None[int64]()
	}
	return mo.Some(h.value.(int64))
}

// AsByteArray returns the header's raw bytes, if it is a ByteArray header.
func (h Header) AsByteArray() mo.Option[[]byte] {
	if h.typ != TypeByteArray {
		return mo.None[[]byte]()
	}
	return mo.Some(h.value.([]byte))
}

// AsString returns the header's string value, if it is a String header.
func (h Header) AsString() mo.Option[string] {
	if h.typ != TypeString {
		return mo.None[string]()
	}
	return mo.Some(h.value.(string))
}

// AsTimestamp returns the header's time value, if it is a Timestamp header.
func (h Header) AsTimestamp() mo.Option[time.Time] {
	if h.typ != TypeTimestamp {
		return mo.None[time.Time]()
	}
	return mo.Some(h.value.(time.Time))
}

// AsUUID returns the header's UUID value, if it is a Uuid header.
func (h Header) AsUUID() mo.Option[uuid.UUID] {
	if h.typ != TypeUUID {
		return mo.None[uuid.UUID]()
	}
	return mo.Some(h.value.(uuid.UUID))
}

// List is an ordered sequence of headers, preserving duplicates exactly as
// encoded/decoded.
type List []Header

// Lookup returns the first header with the given name.
func (l List) Lookup(name string) (Header, bool) {
	for _, h := range l {
		if h.name == name {
			return h, true
		}
	}
	return Header{}, false
}

// String returns the string value of the first header with the given name.
func (l List) String(name string) mo.Option[string] {
	h, ok := l.Lookup(name)
	if !ok {
		return mo.None[string]()
	}
	return h.AsString()
}
