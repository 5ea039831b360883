package pipeline

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javer/aws-transcribe-streaming/eventstream"
)

func TestDispatch_TranscriptEvent(t *testing.T) {
	msg := eventstream.Message{
		Headers: eventstream.List{
			eventstream.StringHeader(eventstream.HeaderMessageType, eventstream.MessageTypeEvent),
			eventstream.StringHeader(eventstream.HeaderEventType, "TranscriptEvent"),
			eventstream.StringHeader(eventstream.HeaderContentType, eventstream.ContentTypeJSON),
		},
		Payload: []byte(`{"Transcript":{"Results":[]}}`),
	}

	event, err := Dispatch(msg)
	require.NoError(t, err)
	assert.Equal(t, "TranscriptEvent", event.EventType)
	assert.Equal(t, eventstream.ContentTypeJSON, event.ContentType)
	assert.JSONEq(t, `{"Transcript":{"Results":[]}}`, string(event.Payload))
}

func TestDispatch_BadRequestException(t *testing.T) {
	msg := eventstream.Message{
		Headers: eventstream.List{
			eventstream.StringHeader(eventstream.HeaderMessageType, eventstream.MessageTypeException),
			eventstream.StringHeader(eventstream.HeaderExceptionType, ExceptionBadRequest),
		},
		Payload: []byte(`{"Message":"invalid sample rate"}`),
	}

	_, err := Dispatch(msg)
	require.Error(t, err)

	var svcErr *ServiceException
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "invalid sample rate", svcErr.Message())
	assert.Equal(t, ExceptionBadRequest, svcErr.ExceptionType)
}

func TestDispatch_UnexpectedMessageType(t *testing.T) {
	msg := eventstream.Message{
		Headers: eventstream.List{
			eventstream.StringHeader(eventstream.HeaderMessageType, eventstream.MessageTypeError),
		},
	}

	_, err := Dispatch(msg)
	require.ErrorIs(t, err, ErrUnexpectedMessageType)
}

func TestDispatch_MissingMessageType(t *testing.T) {
	_, err := Dispatch(eventstream.Message{})
	require.ErrorIs(t, err, ErrUnexpectedMessageType)
}

func TestInbound_SecondHeadersIsProtocolViolation(t *testing.T) {
	var errs []error
	d := NewInbound(func(Event) {}, func(e error) { errs = append(errs, e) }, func() {}, zerolog.Nop())

	d.HandleHeaders(map[string]string{":status": "200"})
	d.HandleHeaders(map[string]string{":status": "200"})

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrProtocolViolation)
}

func TestInbound_DataBeforeHeadersIsProtocolViolation(t *testing.T) {
	var errs []error
	d := NewInbound(func(Event) {}, func(e error) { errs = append(errs, e) }, func() {}, zerolog.Nop())

	d.HandleData([]byte("x"))

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrProtocolViolation)
}

func TestInbound_SuccessfulFrameDispatched(t *testing.T) {
	var events []Event
	terminal := false
	d := NewInbound(
		func(e Event) { events = append(events, e) },
		func(error) { t.Fatal("unexpected error") },
		func() { terminal = true },
		zerolog.Nop(),
	)

	d.HandleHeaders(map[string]string{":status": "200"})

	msg := eventstream.Message{
		Headers: eventstream.List{
			eventstream.StringHeader(eventstream.HeaderMessageType, eventstream.MessageTypeEvent),
			eventstream.StringHeader(eventstream.HeaderEventType, "TranscriptEvent"),
		},
		Payload: []byte(`{}`),
	}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	d.HandleData(encoded)
	require.Len(t, events, 1)
	assert.Equal(t, "TranscriptEvent", events[0].EventType)

	d.HandleStreamEnd()
	assert.True(t, terminal)
}

func TestInbound_ErrorStatusBuildsServiceExceptionFromBody(t *testing.T) {
	var errs []error
	terminal := false
	d := NewInbound(
		func(Event) { t.Fatal("unexpected event") },
		func(e error) { errs = append(errs, e) },
		func() { terminal = true },
		zerolog.Nop(),
	)

	d.HandleHeaders(map[string]string{
		":status":          "400",
		"content-length":   "42",
		"x-amzn-errortype": "BadRequestException:http://internal.amazon.com/coral/...",
	})
	d.HandleData([]byte(`{"Message":"bad input"}`))
	d.HandleStreamEnd()

	require.Len(t, errs, 1)
	var svcErr *ServiceException
	require.ErrorAs(t, errs[0], &svcErr)
	assert.Equal(t, "BadRequestException", svcErr.ExceptionType)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.JSONEq(t, `{"Message":"bad input"}`, string(svcErr.Body))
	assert.True(t, terminal)
}

func TestInbound_MalformedFrameIsNonTerminal(t *testing.T) {
	var errs []error
	terminal := false
	events := 0
	d := NewInbound(
		func(Event) { events++ },
		func(e error) { errs = append(errs, e) },
		func() { terminal = true },
		zerolog.Nop(),
	)

	d.HandleHeaders(map[string]string{":status": "200"})
	d.HandleData(make([]byte, 10)) // too short to be a valid frame

	require.Len(t, errs, 1)
	assert.False(t, terminal, "a single malformed frame must not tear down the stream")

	msg := eventstream.Message{
		Headers: eventstream.List{
			eventstream.StringHeader(eventstream.HeaderMessageType, eventstream.MessageTypeEvent),
		},
	}
	encoded, err := msg.Encode()
	require.NoError(t, err)
	d.HandleData(encoded)
	assert.Equal(t, 1, events)
}
