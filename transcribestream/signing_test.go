package transcribestream

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingWriter struct {
	err error
}

func (f *failingWriter) Write(p []byte) (int, error) {
	return 0, f.err
}

func TestPipeFrameWriter_WriteFrameInvokesOnErrorOnFailure(t *testing.T) {
	writeErr := errors.New("boom")
	var gotErr error
	p := &pipeFrameWriter{
		w:       &failingWriter{err: writeErr},
		onError: func(err error) { gotErr = err },
	}

	err := p.WriteFrame(context.Background(), []byte("frame"))

	assert.ErrorIs(t, err, writeErr)
	assert.ErrorIs(t, gotErr, writeErr)
}

func TestPipeFrameWriter_WriteFrameDoesNotInvokeOnErrorOnSuccess(t *testing.T) {
	called := false
	p := &pipeFrameWriter{
		w:       io.Discard,
		onError: func(error) { called = true },
	}

	err := p.WriteFrame(context.Background(), []byte("frame"))

	assert.NoError(t, err)
	assert.False(t, called)
}

func TestPipeFrameWriter_NilOnErrorIsSafeOnFailure(t *testing.T) {
	p := &pipeFrameWriter{w: &failingWriter{err: errors.New("boom")}}

	assert.Error(t, p.WriteFrame(context.Background(), []byte("frame")))
}
