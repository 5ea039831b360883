package eventstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Header-decode error taxonomy.
var (
	ErrHeaderTruncated  = errors.New("eventstream: header truncated")
	ErrHeaderBadUTF8    = errors.New("eventstream: header name is not valid UTF-8")
	ErrHeaderUnknownTag = errors.New("eventstream: unknown header type tag")
	ErrHeaderNameTooLong = errors.New("eventstream: header name exceeds 255 bytes")
	ErrHeaderValueTooLong = errors.New("eventstream: header value exceeds 65535 bytes")
)

// EncodeHeaders serializes a header list to its wire form: a concatenation
// of name_len(u8) | name | type(u8) | value_bytes for each header, in order.
func EncodeHeaders(headers List) ([]byte, error) {
	var buf []byte
	for _, h := range headers {
		encoded, err := encodeHeader(h)
		if err != nil {
			return nil, err
		}
		buf = append(buf, encoded...)
	}
	return buf, nil
}

func encodeHeader(h Header) ([]byte, error) {
	if len(h.name) > MaxNameLen {
		return nil, fmt.Errorf("%w: %q is %d bytes", ErrHeaderNameTooLong, h.name, len(h.name))
	}

	buf := make([]byte, 0, 2+len(h.name)+8)
	buf = append(buf, byte(len(h.name)))
	buf = append(buf, h.name...)
	buf = append(buf, byte(h.typ))

	switch h.typ {
	case TypeBoolTrue, TypeBoolFalse:
		// no value bytes
	case TypeByte:
		buf = append(buf, byte(h.value.(int8)))
	case TypeShort:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(h.value.(int16)))
		buf = append(buf, tmp[:]...)
	case TypeInteger:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(h.value.(int32)))
		buf = append(buf, tmp[:]...)
	case TypeLong:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(h.value.(int64)))
		buf = append(buf, tmp[:]...)
	case TypeByteArray:
		v := h.value.([]byte)
		if len(v) > MaxValueLen {
			return nil, fmt.Errorf("%w: header %q is %d bytes", ErrHeaderValueTooLong, h.name, len(v))
		}
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(len(v)))
		buf = append(buf, tmp[:]...)
		buf = append(buf, v...)
	case TypeString:
		v := h.value.(string)
		if len(v) > MaxValueLen {
			return nil, fmt.Errorf("%w: header %q is %d bytes", ErrHeaderValueTooLong, h.name, len(v))
		}
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(len(v)))
		buf = append(buf, tmp[:]...)
		buf = append(buf, v...)
	case TypeTimestamp:
		v := h.value.(time.Time)
		ms := v.UnixMilli()
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(ms))
		buf = append(buf, tmp[:]...)
	case TypeUUID:
		v := h.value.(uuid.UUID)
		buf = append(buf, v[:]...)
	default:
		return nil, fmt.Errorf("%w: %d", ErrHeaderUnknownTag, uint8(h.typ))
	}

	return buf, nil
}

// DecodeHeaders parses a contiguous headers byte block into a List,
// preserving order and duplicate names.
func DecodeHeaders(data []byte) (List, error) {
	var headers List
	offset := 0

	for offset < len(data) {
		if offset >= len(data) {
			return nil, ErrHeaderTruncated
		}
		nameLen := int(data[offset])
		offset++

		if offset+nameLen > len(data) {
			return nil, fmt.Errorf("%w: header name", ErrHeaderTruncated)
		}
		nameBytes := data[offset : offset+nameLen]
		if !utf8.Valid(nameBytes) {
			return nil, ErrHeaderBadUTF8
		}
		name := string(nameBytes)
		offset += nameLen

		if offset >= len(data) {
			return nil, fmt.Errorf("%w: header type for %q", ErrHeaderTruncated, name)
		}
		typ := Type(data[offset])
		offset++

		h, newOffset, err := decodeHeaderValue(data, offset, name, typ)
		if err != nil {
			return nil, err
		}
		offset = newOffset

		headers = append(headers, h)
	}

	return headers, nil
}

func decodeHeaderValue(data []byte, offset int, name string, typ Type) (Header, int, error) {
	switch typ {
	case TypeBoolTrue:
		return BoolHeader(name, true), offset, nil
	case TypeBoolFalse:
		return BoolHeader(name, false), offset, nil
	case TypeByte:
		if offset+1 > len(data) {
			return Header{}, 0, fmt.Errorf("%w: byte value for %q", ErrHeaderTruncated, name)
		}
		return ByteHeader(name, int8(data[offset])), offset + 1, nil
	case TypeShort:
		if offset+2 > len(data) {
			return Header{}, 0, fmt.Errorf("%w: short value for %q", ErrHeaderTruncated, name)
		}
		v := int16(binary.BigEndian.Uint16(data[offset : offset+2]))
		return ShortHeader(name, v), offset + 2, nil
	case TypeInteger:
		if offset+4 > len(data) {
			return Header{}, 0, fmt.Errorf("%w: integer value for %q", ErrHeaderTruncated, name)
		}
		v := int32(binary.BigEndian.Uint32(data[offset : offset+4]))
		return IntegerHeader(name, v), offset + 4, nil
	case TypeLong:
		if offset+8 > len(data) {
			return Header{}, 0, fmt.Errorf("%w: long value for %q", ErrHeaderTruncated, name)
		}
		v := int64(binary.BigEndian.Uint64(data[offset : offset+8]))
		return LongHeader(name, v), offset + 8, nil
	case TypeByteArray:
		return decodeLengthPrefixed(data, offset, name, func(v []byte) Header {
			return ByteArrayHeader(name, v)
		})
	case TypeString:
		h, next, err := decodeLengthPrefixed(data, offset, name, func(v []byte) Header {
			return StringHeader(name, string(v))
		})
		if err != nil {
			return Header{}, 0, err
		}
		if !utf8.Valid([]byte(h.value.(string))) {
			return Header{}, 0, fmt.Errorf("%w: string value for %q", ErrHeaderBadUTF8, name)
		}
		return h, next, nil
	case TypeTimestamp:
		if offset+8 > len(data) {
			return Header{}, 0, fmt.Errorf("%w: timestamp value for %q", ErrHeaderTruncated, name)
		}
		ms := int64(binary.BigEndian.Uint64(data[offset : offset+8]))
		return TimestampHeader(name, time.UnixMilli(ms).UTC()), offset + 8, nil
	case TypeUUID:
		if offset+16 > len(data) {
			return Header{}, 0, fmt.Errorf("%w: uuid value for %q", ErrHeaderTruncated, name)
		}
		id, err := uuid.FromBytes(data[offset : offset+16])
		if err != nil {
			return Header{}, 0, fmt.Errorf("eventstream: invalid uuid for %q: %w", name, err)
		}
		return UUIDHeader(name, id), offset + 16, nil
	default:
		return Header{}, 0, fmt.Errorf("%w: %d for %q", ErrHeaderUnknownTag, uint8(typ), name)
	}
}

func decodeLengthPrefixed(data []byte, offset int, name string, build func([]byte) Header) (Header, int, error) {
	if offset+2 > len(data) {
		return Header{}, 0, fmt.Errorf("%w: value length for %q", ErrHeaderTruncated, name)
	}
	valueLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2

	if offset+valueLen > len(data) {
		return Header{}, 0, fmt.Errorf("%w: value for %q", ErrHeaderTruncated, name)
	}
	return build(data[offset : offset+valueLen]), offset + valueLen, nil
}
