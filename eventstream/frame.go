package eventstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	preludeLen  = 12 // total_length(4) + headers_length(4) + prelude_crc(4)
	trailerLen  = 4  // message_crc(4)
	minFrameLen = preludeLen + trailerLen
)

// Frame-decode error taxonomy.
var (
	ErrFrameTooShort            = errors.New("eventstream: frame shorter than minimum size")
	ErrFrameLengthMismatch      = errors.New("eventstream: declared total_length does not match buffer length")
	ErrFramePreludeCRCMismatch  = errors.New("eventstream: prelude checksum mismatch")
	ErrFrameMessageCRCMismatch  = errors.New("eventstream: message checksum mismatch")
)

var crcTable = crc32.IEEETable

// Message is a decoded/to-be-encoded event-stream frame: an ordered header
// list plus an opaque payload.
type Message struct {
	Headers List
	Payload []byte
}

// Encode serializes the message to its wire form:
//
//	total_length(u32) | headers_length(u32) | prelude_crc(u32) | headers | payload | message_crc(u32)
//
// total_length counts every byte of the frame, including both checksums.
func (m Message) Encode() ([]byte, error) {
	headerBytes, err := EncodeHeaders(m.Headers)
	if err != nil {
		return nil, err
	}

	totalLen := preludeLen + len(headerBytes) + len(m.Payload) + trailerLen
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint32(buf[0:4], uint32(totalLen))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(headerBytes)))
	preludeCRC := crc32.Checksum(buf[0:8], crcTable)
	binary.BigEndian.PutUint32(buf[8:12], preludeCRC)

	copy(buf[preludeLen:], headerBytes)
	copy(buf[preludeLen+len(headerBytes):], m.Payload)

	msgCRC := crc32.Checksum(buf[0:totalLen-trailerLen], crcTable)
	binary.BigEndian.PutUint32(buf[totalLen-trailerLen:totalLen], msgCRC)

	return buf, nil
}

// Decode parses a single complete frame from data. The caller must have
// already delimited data to exactly one frame (total_length bytes) --
// this layer performs no multi-frame splitting.
func Decode(data []byte) (Message, error) {
	if len(data) < minFrameLen {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}

	totalLen := binary.BigEndian.Uint32(data[0:4])
	headersLen := binary.BigEndian.Uint32(data[4:8])
	preludeCRC := binary.BigEndian.Uint32(data[8:12])

	if int(totalLen) != len(data) {
		return Message{}, fmt.Errorf("%w: declared %d, got %d", ErrFrameLengthMismatch, totalLen, len(data))
	}

	computedPreludeCRC := crc32.Checksum(data[0:8], crcTable)
	if computedPreludeCRC != preludeCRC {
		return Message{}, fmt.Errorf("%w: got %08x, want %08x", ErrFramePreludeCRCMismatch, computedPreludeCRC, preludeCRC)
	}

	msgCRCOffset := totalLen - trailerLen
	expectedMsgCRC := binary.BigEndian.Uint32(data[msgCRCOffset:totalLen])
	computedMsgCRC := crc32.Checksum(data[0:msgCRCOffset], crcTable)
	if computedMsgCRC != expectedMsgCRC {
		return Message{}, fmt.Errorf("%w: got %08x, want %08x", ErrFrameMessageCRCMismatch, computedMsgCRC, expectedMsgCRC)
	}

	headerStart := preludeLen
	headerEnd := headerStart + int(headersLen)
	if headerEnd > int(msgCRCOffset) {
		return Message{}, fmt.Errorf("%w: headers_length overruns payload", ErrFrameLengthMismatch)
	}

	headers, err := DecodeHeaders(data[headerStart:headerEnd])
	if err != nil {
		return Message{}, fmt.Errorf("eventstream: %w", err)
	}

	payload := data[headerEnd:msgCRCOffset]
	payloadCopy := make([]byte, len(payload))
	copy(payloadCopy, payload)

	return Message{Headers: headers, Payload: payloadCopy}, nil
}
