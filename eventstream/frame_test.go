package eventstream

import (
	"encoding/binary"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_EmptyFrameLiteralBytes(t *testing.T) {
	msg := Message{}

	encoded, err := msg.Encode()
	require.NoError(t, err)

	require.Len(t, encoded, 16)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x10}, encoded[0:4])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, encoded[4:8])
	assert.Equal(t, []byte{0x05, 0xC2, 0x48, 0xEB}, encoded[8:12])

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Empty(t, decoded.Headers)
	assert.Empty(t, decoded.Payload)
}

func TestEncode_ShortHeaderFrameLengths(t *testing.T) {
	msg := Message{Headers: List{ShortHeader("x", 1)}}

	encoded, err := msg.Encode()
	require.NoError(t, err)

	assert.Equal(t, uint32(21), binary.BigEndian.Uint32(encoded[0:4]))
	assert.Equal(t, uint32(5), binary.BigEndian.Uint32(encoded[4:8]))

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Headers, 1)
	assert.Equal(t, int16(1), decoded.Headers[0].AsShort().MustGet())
}

func TestDecode_TooShort(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	require.ErrorIs(t, err, ErrFrameTooShort)
}

func TestDecode_LengthMismatch(t *testing.T) {
	msg := Message{}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	_, err = Decode(append(encoded, 0x00))
	require.ErrorIs(t, err, ErrFrameLengthMismatch)
}

func TestDecode_PreludeCRCMismatch_SingleBitFlip(t *testing.T) {
	msg := Message{Payload: []byte("hello")}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	mutated := append([]byte(nil), encoded...)
	mutated[9] ^= 0x01 // flip one bit inside the prelude CRC field

	_, err = Decode(mutated)
	require.ErrorIs(t, err, ErrFramePreludeCRCMismatch)
}

func TestDecode_MessageCRCMismatch_PayloadMutated(t *testing.T) {
	msg := Message{Payload: []byte("hello")}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	mutated := append([]byte(nil), encoded...)
	mutated[preludeLen] ^= 0xFF // mutate a payload byte, leaving prelude intact

	_, err = Decode(mutated)
	require.ErrorIs(t, err, ErrFrameMessageCRCMismatch)
}

func TestFrameCodec_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(F)) == F and total_length matches buffer", prop.ForAll(
		func(headers List, payload []byte) bool {
			msg := Message{Headers: headers, Payload: payload}

			encoded, err := msg.Encode()
			if err != nil {
				return false
			}
			if int(binary.BigEndian.Uint32(encoded[0:4])) != len(encoded) {
				return false
			}
			decoded, err := Decode(encoded)
			if err != nil {
				return false
			}
			if len(decoded.Headers) != len(headers) || len(decoded.Payload) != len(payload) {
				return false
			}
			for i := range decoded.Payload {
				if decoded.Payload[i] != payload[i] {
					return false
				}
			}
			return true
		},
		headerListGen(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
