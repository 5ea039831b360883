package eventstream

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeaders_ShortHeaderLiteralBytes(t *testing.T) {
	headers := List{ShortHeader("x", 1)}

	encoded, err := EncodeHeaders(headers)
	require.NoError(t, err)

	// name_len(1) | 'x' | type(0x03) | value(0x0001)
	assert.Equal(t, []byte{0x01, 'x', 0x03, 0x00, 0x01}, encoded)
}

func TestEncodeHeaders_StringHeaderLiteralBytes(t *testing.T) {
	headers := List{StringHeader(":content-type", "application/json")}

	encoded, err := EncodeHeaders(headers)
	require.NoError(t, err)

	want := []byte{0x0D}
	want = append(want, ":content-type"...)
	want = append(want, 0x07, 0x00, 0x10)
	want = append(want, "application/json"...)

	assert.Equal(t, want, encoded)
}

func TestEncodeHeaders_BoolVariantsCarryNoValueBytes(t *testing.T) {
	encoded, err := EncodeHeaders(List{BoolHeader("a", true), BoolHeader("b", false)})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 'a', 0x00, 0x01, 'b', 0x01}, encoded)
}

func TestEncodeHeaders_NameTooLong(t *testing.T) {
	name := make([]byte, 256)
	for i := range name {
		name[i] = 'a'
	}
	_, err := EncodeHeaders(List{StringHeader(string(name), "v")})
	require.ErrorIs(t, err, ErrHeaderNameTooLong)
}

func TestDecodeHeaders_TruncatedValue(t *testing.T) {
	// name_len=1, name='x', type=string(7), length=0x0005 but no value bytes
	data := []byte{0x01, 'x', 0x07, 0x00, 0x05}
	_, err := DecodeHeaders(data)
	require.ErrorIs(t, err, ErrHeaderTruncated)
}

func TestDecodeHeaders_UnknownTag(t *testing.T) {
	data := []byte{0x01, 'x', 0xFF}
	_, err := DecodeHeaders(data)
	require.ErrorIs(t, err, ErrHeaderUnknownTag)
}

func TestDecodeHeaders_DuplicateNamesPreserved(t *testing.T) {
	headers := List{StringHeader("dup", "a"), StringHeader("dup", "b")}
	encoded, err := EncodeHeaders(headers)
	require.NoError(t, err)

	decoded, err := DecodeHeaders(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "a", decoded[0].AsString().MustGet())
	assert.Equal(t, "b", decoded[1].AsString().MustGet())

	first, ok := decoded.Lookup("dup")
	require.True(t, ok)
	assert.Equal(t, "a", first.AsString().MustGet())
}

func TestUUIDHeader_RoundTrip(t *testing.T) {
	id := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	encoded, err := EncodeHeaders(List{UUIDHeader("id", id)})
	require.NoError(t, err)

	decoded, err := DecodeHeaders(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, id, decoded[0].AsUUID().MustGet())
}

func TestTimestampHeader_MillisecondPrecisionRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 123_000_000, time.UTC)
	encoded, err := EncodeHeaders(List{TimestampHeader("t", ts)})
	require.NoError(t, err)

	decoded, err := DecodeHeaders(encoded)
	require.NoError(t, err)
	assert.True(t, ts.Equal(decoded[0].AsTimestamp().MustGet()))
}

// headerGen generates a single header of a random supported variant.
func headerGen() gopter.Gen {
	return gen.OneGenOf(
		gen.Bool().Map(func(v bool) Header { return BoolHeader("flag", v) }),
		gen.IntRange(-128, 127).Map(func(v int) Header { return ByteHeader("byte", int8(v)) }),
		gen.Int16().Map(func(v int16) Header { return ShortHeader("short", v) }),
		gen.Int32().Map(func(v int32) Header { return IntegerHeader("int", v) }),
		gen.Int64().Map(func(v int64) Header { return LongHeader("long", v) }),
		gen.AlphaString().Map(func(v string) Header { return StringHeader("str", v) }),
		gen.AlphaString().Map(func(v string) Header { return ByteArrayHeader("bytes", []byte(v)) }),
		gen.Int64Range(0, 4102444800000).Map(func(v int64) Header { return TimestampHeader("ts", time.UnixMilli(v)) }),
		gen.AlphaString().Map(func(v string) Header { return UUIDHeader("id", uuid.NewMD5(uuid.Nil, []byte(v))) }),
	)
}

// headerListGen generates arbitrary, wire-valid header lists for property
// testing the codec invariant decode(encode(H)) == H.
func headerListGen() gopter.Gen {
	return gen.SliceOf(headerGen()).Map(func(hs []Header) List { return List(hs) })
}

func TestHeaderCodec_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(H)) == H, order and duplicates preserved", prop.ForAll(
		func(headers List) bool {
			encoded, err := EncodeHeaders(headers)
			if err != nil {
				return false
			}
			decoded, err := DecodeHeaders(encoded)
			if err != nil {
				return false
			}
			if len(decoded) != len(headers) {
				return false
			}
			for i := range headers {
				if headers[i].Name() != decoded[i].Name() || headers[i].Type() != decoded[i].Type() {
					return false
				}
			}
			return true
		},
		headerListGen(),
	))

	properties.TestingRun(t)
}
