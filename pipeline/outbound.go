// Package pipeline composes the event-stream codec and chunk signer into
// the outbound audio-sending pipeline and the inbound dispatch
// demultiplexer described for the transcription transport.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/javer/aws-transcribe-streaming/audiochunk"
	"github.com/javer/aws-transcribe-streaming/eventstream"
	"github.com/javer/aws-transcribe-streaming/internal/rostream"
	"github.com/javer/aws-transcribe-streaming/sigv4chunk"
)

// FrameWriter is the sink for fully-encoded, signed outer wire frames. The
// transport driver implements this over its HTTP/2 DATA writer.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame []byte) error
}

// Outbound is the audio sink exposed to applications: Write accepts raw
// audio bytes, Close flushes the terminal sentinel. It does not close the
// FrameWriter; ending the upstream write side is up to the writer's owner
// (see transcribestream.AudioSink). It runs the fixed stage chain
// Chunker -> Audio-Event Framer -> Frame Encoder -> Chunk Signer -> Frame
// Encoder -> FrameWriter, entirely in strict FIFO order, because the
// signer's prior-signature chain forbids reordering.
type Outbound struct {
	ctx     context.Context
	writer  FrameWriter
	signer  *sigv4chunk.Signer
	chunker *audiochunk.Chunker
	logger  zerolog.Logger

	writeErr error
}

// NewOutbound builds the outbound pipeline for one stream. chunkSize is the
// audio chunker's fixed chunk size in bytes (see audiochunk.ChunkSize); pass
// 0 to disable chunking.
func NewOutbound(ctx context.Context, writer FrameWriter, signer *sigv4chunk.Signer, chunkSize int, logger zerolog.Logger) *Outbound {
	o := &Outbound{
		ctx:    ctx,
		writer: writer,
		signer: signer,
		logger: logger,
	}
	o.chunker = audiochunk.New(chunkSize, o.handleChunk)
	return o
}

// Write feeds raw application audio bytes into the pipeline.
func (o *Outbound) Write(p []byte) error {
	if o.writeErr != nil {
		return o.writeErr
	}
	if err := o.chunker.Write(p); err != nil {
		return fmt.Errorf("pipeline: chunker write: %w", err)
	}
	return o.writeErr
}

// Close flushes any buffered partial chunk and emits the terminal sentinel
// (via the chunker, iff any audio was ever written), returning the first
// pipeline error, if any. It does not close the FrameWriter.
func (o *Outbound) Close() error {
	if err := o.chunker.Close(); err != nil {
		return fmt.Errorf("pipeline: chunker close: %w", err)
	}
	return o.writeErr
}

// handleChunk implements Audio-Event Framer -> Frame Encoder -> Chunk
// Signer -> Frame Encoder for a single chunk (including the empty terminal
// chunk), then writes the result through FrameWriter.
func (o *Outbound) handleChunk(chunk []byte) {
	if o.writeErr != nil {
		return
	}

	inner := eventstream.Message{
		Headers: eventstream.List{
			eventstream.StringHeader(eventstream.HeaderContentType, eventstream.ContentTypeOctetStream),
			eventstream.StringHeader(eventstream.HeaderEventType, eventstream.EventTypeAudioEvent),
			eventstream.StringHeader(eventstream.HeaderMessageType, eventstream.MessageTypeEvent),
		},
		Payload: chunk,
	}

	innerBytes, err := inner.Encode()
	if err != nil {
		o.writeErr = fmt.Errorf("pipeline: encode audio event: %w", err)
		return
	}

	signed, err := o.signer.Sign(innerBytes)
	if err != nil {
		o.writeErr = fmt.Errorf("pipeline: sign chunk: %w", err)
		return
	}

	outerBytes, err := signed.Encode()
	if err != nil {
		o.writeErr = fmt.Errorf("pipeline: encode signed frame: %w", err)
		return
	}

	o.logger.Debug().
		Int("chunk_len", len(chunk)).
		Int("frame_len", len(outerBytes)).
		Bool("terminal", len(chunk) == 0).
		Msg("writing outbound event-stream frame")

	if err := o.writer.WriteFrame(o.ctx, outerBytes); err != nil {
		o.writeErr = fmt.Errorf("pipeline: write frame: %w", err)
	}
}

// RunChannelPipeline models the outbound stages as a rostream Observable
// pipeline over a channel of raw audio writes, for callers that prefer a
// push-based producer over direct Write calls. It blocks until audio is
// closed (the channel closes) or an error occurs.
func RunChannelPipeline(ctx context.Context, audio <-chan []byte, writer FrameWriter, signer *sigv4chunk.Signer, chunkSize int, logger zerolog.Logger) error {
	out := NewOutbound(ctx, writer, signer, chunkSize, logger)

	source := rostream.FromChannel(audio)
	var subscribeErr error
	done := make(chan struct{})

	rostream.SubscribeWithContext(ctx, source,
		func(_ context.Context, chunk []byte) {
			if err := out.Write(chunk); err != nil {
				subscribeErr = err
			}
		},
		func(_ context.Context, err error) {
			subscribeErr = err
			close(done)
		},
		func(_ context.Context) {
			if err := out.Close(); err != nil && subscribeErr == nil {
				subscribeErr = err
			}
			close(done)
		},
	)

	<-done
	return subscribeErr
}
