package eventstream

// Well-known header names used by the AWS event-stream framing and by the
// Transcribe streaming dispatch envelope.
const (
	HeaderDate            = ":date"
	HeaderChunkSignature  = ":chunk-signature"
	HeaderMessageType     = ":message-type"
	HeaderEventType       = ":event-type"
	HeaderExceptionType   = ":exception-type"
	HeaderContentType     = ":content-type"
)

// Values of the :message-type header.
const (
	MessageTypeEvent     = "event"
	MessageTypeException = "exception"
	MessageTypeError     = "error"
)

// ContentTypeOctetStream is the :content-type value for outbound audio frames.
const ContentTypeOctetStream = "application/octet-stream"

// ContentTypeJSON is the :content-type value for JSON event/exception payloads.
const ContentTypeJSON = "application/json"

// EventTypeAudioEvent is the :event-type value for outbound audio chunks.
const EventTypeAudioEvent = "AudioEvent"
