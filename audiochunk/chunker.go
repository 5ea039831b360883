// Package audiochunk repacketizes an arbitrary inbound byte stream into
// fixed-size chunks suitable for framing as AudioEvent messages.
package audiochunk

// ChunkSize computes the byte size of one audio chunk for 16-bit PCM at the
// given sample rate, using a fixed 200ms emission cadence.
func ChunkSize(sampleRateHz int) int {
	const (
		bytesPerSample = 2
		cadenceMillis  = 200
	)
	return sampleRateHz * bytesPerSample * cadenceMillis / 1000
}

// Chunker buffers written bytes and emits fixed-size copies downstream via
// Emit as soon as the buffer fills. A chunk_size of 0 disables buffering:
// every Write is passed straight through as its own chunk.
//
// Chunker is not safe for concurrent use; the outbound pipeline serializes
// writes behind its own stage boundary.
type Chunker struct {
	chunkSize int
	buf       []byte
	fill      int
	sawBytes  bool
	closed    bool

	emit func([]byte)
}

// New returns a Chunker that calls emit with a fresh copy of each completed
// chunk. chunkSize == 0 means pass-through: every Write produces exactly one
// chunk equal to the written bytes (only non-empty writes count as "seen").
func New(chunkSize int, emit func([]byte)) *Chunker {
	c := &Chunker{
		chunkSize: chunkSize,
		emit:      emit,
	}
	if chunkSize > 0 {
		c.buf = make([]byte, chunkSize)
	}
	return c
}

// Write copies p into the internal buffer, emitting completed chunks as the
// buffer fills. In pass-through mode (chunk_size == 0) it emits p directly.
func (c *Chunker) Write(p []byte) error {
	if c.closed {
		return ErrChunkerClosed
	}
	if len(p) == 0 {
		return nil
	}

	c.sawBytes = true

	if c.chunkSize == 0 {
		cp := make([]byte, len(p))
		copy(cp, p)
		c.emit(cp)
		return nil
	}

	for len(p) > 0 {
		n := copy(c.buf[c.fill:], p)
		c.fill += n
		p = p[n:]

		if c.fill == c.chunkSize {
			cp := make([]byte, c.chunkSize)
			copy(cp, c.buf)
			c.emit(cp)
			c.fill = 0
		}
	}
	return nil
}

// Close flushes any partial buffer as a final, smaller chunk, then, if any
// bytes were ever written, emits exactly one zero-length chunk as the
// terminal end-of-stream sentinel. Close is idempotent; subsequent calls are
// no-ops.
func (c *Chunker) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.fill > 0 {
		cp := make([]byte, c.fill)
		copy(cp, c.buf[:c.fill])
		c.emit(cp)
		c.fill = 0
	}

	if c.sawBytes {
		c.emit([]byte{})
	}
	return nil
}
