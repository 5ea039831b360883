package transcribestream

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/javer/aws-transcribe-streaming/sigv4chunk"
)

// sigv4ChunkSigner constructs the rolling chunk signer seeded with the
// initial HTTP request's signature, per the signed-request handoff (the
// Transport Driver signs the request, then hands that signature to the
// Chunk Signer as prior_signature for frame 1).
func sigv4ChunkSigner(ctx context.Context, region string, creds aws.Credentials, initialSignature string, logger zerolog.Logger) (*sigv4chunk.Signer, error) {
	return sigv4chunk.New(ctx, region, streamingService, creds, initialSignature, sigv4chunk.WithLogger(logger))
}

// pipeFrameWriter adapts an io.WriteCloser (the HTTP/2 request body pipe)
// to pipeline.FrameWriter. onError, if set, is invoked with any write
// failure so the caller can tear down the other half of the duplex stream:
// per the concurrency model, an error from either direction cancels the
// other.
type pipeFrameWriter struct {
	w       io.Writer
	onError func(error)
}

func (p *pipeFrameWriter) WriteFrame(_ context.Context, frame []byte) error {
	_, err := p.w.Write(frame)
	if err != nil && p.onError != nil {
		p.onError(err)
	}
	return err
}
