package pipeline

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/javer/aws-transcribe-streaming/eventstream"
)

// ServiceException is a typed error decoded from an inbound `exception`
// event-stream frame or from an HTTP response with status >= 400.
// ExceptionType identifies the variant (e.g. "BadRequestException"); Body
// is the raw JSON payload/error document.
type ServiceException struct {
	ExceptionType string
	ContentType   string
	StatusCode    int
	Body          []byte
}

func (e *ServiceException) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcribestream: %s (status %d): %s", e.ExceptionType, e.StatusCode, e.Message())
	}
	return fmt.Sprintf("transcribestream: %s: %s", e.ExceptionType, e.Message())
}

// Message extracts the human-readable "message"/"Message" field out of the
// JSON error document or exception payload, without requiring a full DTO
// for the error-response vocabulary. Returns "" if Body is not JSON or has
// neither field.
func (e *ServiceException) Message() string {
	result := gjson.GetBytes(e.Body, "message")
	if !result.Exists() {
		result = gjson.GetBytes(e.Body, "Message")
	}
	return result.String()
}

// Known service exception variants (dispatch headers / error taxonomy).
const (
	ExceptionBadRequest         = "BadRequestException"
	ExceptionLimitExceeded      = "LimitExceededException"
	ExceptionInternalFailure    = "InternalFailureException"
	ExceptionConflict           = "ConflictException"
	ExceptionServiceUnavailable = "ServiceUnavailableException"
)

// ErrUnexpectedMessageType is pushed when an inbound frame's :message-type
// is neither "event" nor "exception" (including the literal "error" value
// and anything else).
var ErrUnexpectedMessageType = errors.New("pipeline: unexpected message type")

// ErrProtocolViolation covers ordering violations in the inbound HTTP/2
// message sequence: a second HEADERS frame, or DATA arriving before
// HEADERS. These are always terminal.
var ErrProtocolViolation = errors.New("pipeline: protocol violation")

// Event is a dispatched inbound `event` message, ready for the
// transcription-building layer to consume.
type Event struct {
	EventType   string
	ContentType string
	Payload     []byte
}

// Dispatch classifies one decoded inbound frame by :message-type, returning
// either an Event or an error (a *ServiceException or an error wrapping
// ErrUnexpectedMessageType). This is a non-terminal classification: the
// caller decides separately whether the error should tear down the stream.
func Dispatch(msg eventstream.Message) (Event, error) {
	messageType, ok := msg.Headers.String(eventstream.HeaderMessageType).Get()
	if !ok {
		return Event{}, fmt.Errorf("%w: missing :message-type", ErrUnexpectedMessageType)
	}

	switch messageType {
	case eventstream.MessageTypeEvent:
		eventType, _ := msg.Headers.String(eventstream.HeaderEventType).Get()
		contentType, _ := msg.Headers.String(eventstream.HeaderContentType).Get()
		return Event{
			EventType:   eventType,
			ContentType: contentType,
			Payload:     msg.Payload,
		}, nil

	case eventstream.MessageTypeException:
		exceptionType, _ := msg.Headers.String(eventstream.HeaderExceptionType).Get()
		contentType, _ := msg.Headers.String(eventstream.HeaderContentType).Get()
		return Event{}, &ServiceException{
			ExceptionType: exceptionType,
			ContentType:   contentType,
			Body:          msg.Payload,
		}

	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnexpectedMessageType, messageType)
	}
}
