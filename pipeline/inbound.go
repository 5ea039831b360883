package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/javer/aws-transcribe-streaming/eventstream"
)

// inboundState is the demultiplexer's position in the HTTP/2 message
// sequence, per the state machine.
type inboundState int

const (
	stateAwaitingHeaders inboundState = iota
	stateAwaitingBodyOrFrames
)

// Inbound demultiplexes one HTTP/2 response stream into dispatched events
// and errors, tracking response headers, the optional error-response body,
// and the event-stream frame sequence that follows a successful status.
type Inbound struct {
	state      inboundState
	statusCode int
	hasBody    bool
	bodyCapted bool
	errorBody  []byte
	headers    map[string]string

	onEvent    func(Event)
	onError    func(error)
	onTerminal func()

	logger zerolog.Logger
}

// NewInbound constructs a demultiplexer that calls onEvent for each
// dispatched `event` frame, onError for exceptions, protocol violations, and
// decode errors, and onTerminal once the stream is known to be over
// (either because the HTTP/2 stream ended or a terminal error occurred).
func NewInbound(onEvent func(Event), onError func(error), onTerminal func(), logger zerolog.Logger) *Inbound {
	return &Inbound{
		onEvent:    onEvent,
		onError:    onError,
		onTerminal: onTerminal,
		logger:     logger,
	}
}

// HandleHeaders processes the HTTP/2 HEADERS frame. headers keys must
// already be lowercased, matching HTTP/2's wire convention. A second call
// is a protocol error.
func (d *Inbound) HandleHeaders(headers map[string]string) {
	if d.state != stateAwaitingHeaders {
		d.fail(fmt.Errorf("%w: duplicate HEADERS frame", ErrProtocolViolation))
		return
	}

	d.headers = headers
	if status, ok := headers[":status"]; ok {
		if code, err := strconv.Atoi(status); err == nil {
			d.statusCode = code
		}
	}
	if cl, ok := headers["content-length"]; ok {
		if n, err := strconv.Atoi(cl); err == nil && n > 0 {
			d.hasBody = true
		}
	}

	d.state = stateAwaitingBodyOrFrames
}

// HandleData processes one HTTP/2 DATA frame: the error-response body if
// has_body was set by HEADERS and the body has not yet been captured,
// otherwise one event-stream frame.
func (d *Inbound) HandleData(data []byte) {
	if d.state != stateAwaitingBodyOrFrames {
		d.fail(fmt.Errorf("%w: DATA frame before HEADERS", ErrProtocolViolation))
		return
	}

	if d.hasBody {
		if !d.bodyCapted {
			d.errorBody = append(d.errorBody, data...)
		}
		return
	}

	msg, err := eventstream.Decode(data)
	if err != nil {
		// Frame- and header-decode errors do not tear down the stream: a
		// single malformed frame is surfaced and the demultiplexer keeps
		// listening for the next one.
		d.onError(fmt.Errorf("pipeline: decode inbound frame: %w", err))
		return
	}

	event, err := Dispatch(msg)
	if err != nil {
		var svcErr *ServiceException
		if asServiceException(err, &svcErr) {
			// Service exceptions are terminal.
			d.fail(svcErr)
			return
		}
		// Unexpected message type is treated like a decode error: surfaced,
		// non-terminal, per the same malformed-frame tolerance.
		d.onError(err)
		return
	}

	d.onEvent(event)
}

// HandleStreamEnd is called when the HTTP/2 stream closes. If has_body was
// set by HEADERS, it builds a ServiceException from the DATA accumulated
// as the error body and surfaces it via onError; it then signals
// completion downstream.
func (d *Inbound) HandleStreamEnd() {
	if d.hasBody && !d.bodyCapted {
		d.bodyCapted = true
		d.onError(d.buildServiceException())
	}
	d.onTerminal()
}

func (d *Inbound) fail(err error) {
	d.onError(err)
	d.onTerminal()
}

func (d *Inbound) buildServiceException() *ServiceException {
	errorType := d.headers["x-amzn-errortype"]
	if idx := strings.IndexByte(errorType, ':'); idx >= 0 {
		errorType = errorType[:idx]
	}
	if errorType == "" {
		errorType = fmt.Sprintf("HTTPError%d", d.statusCode)
	}

	d.logger.Debug().
		Int("status", d.statusCode).
		Str("exception_type", errorType).
		Msg("inbound stream resolved to a service exception")

	return &ServiceException{
		ExceptionType: errorType,
		StatusCode:    d.statusCode,
		Body:          d.errorBody,
	}
}

func asServiceException(err error, target **ServiceException) bool {
	se, ok := err.(*ServiceException)
	if !ok {
		return false
	}
	*target = se
	return true
}
