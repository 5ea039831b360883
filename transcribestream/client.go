package transcribestream

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/javer/aws-transcribe-streaming/pipeline"
)

const (
	targetOperation     = "com.amazonaws.transcribe.Transcribe.StartStreamTranscription"
	streamingService    = "transcribe"
	streamingPath       = "/stream-transcription"
	dialTimeout         = 10 * time.Second
	eventStreamBodyHash = "STREAMING-AWS4-HMAC-SHA256-EVENTS"
)

// Client opens transcription streaming sessions against one AWS region.
type Client struct {
	region  string
	creds   aws.CredentialsProvider
	signer  *v4.Signer
	dial    func(ctx context.Context, addr string) (net.Conn, error)
	logger  zerolog.Logger
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger attaches a structured logger used for connection and
// pipeline diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDialer overrides how the Client opens the underlying TCP connection.
// Intended for tests.
func WithDialer(dial func(ctx context.Context, addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.dial = dial }
}

// NewClient builds a Client against an explicit credentials provider.
func NewClient(region string, creds aws.CredentialsProvider, opts ...Option) *Client {
	c := &Client{
		region: region,
		creds:  creds,
		signer: v4.NewSigner(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dial == nil {
		c.dial = defaultDialer
	}
	return c
}

// NewDefaultClient builds a Client using the AWS SDK's default credential
// chain (environment, shared config, IMDS), cached so credentials are read
// once at setup per the concurrency model.
func NewDefaultClient(ctx context.Context, region string, opts ...Option) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("transcribestream: load default AWS config: %w", err)
	}
	cached := credentials.NewCredentialsCache(cfg.Credentials)
	return NewClient(region, cached, opts...), nil
}

func defaultDialer(ctx context.Context, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	return tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		NextProtos: []string{"h2"},
		MinVersion: tls.VersionTLS12,
	})
}

// InboundMessage is one item delivered on a Session's event channel: either
// a dispatched Event or a non-nil Err. Decode/dispatch errors are
// non-terminal (the channel keeps delivering); protocol errors and service
// exceptions are terminal (the channel closes after delivering them).
type InboundMessage struct {
	Event pipeline.Event
	Err   error
}

// Session is the live (response_metadata, audio_sink, event_source) triple
// returned once the initial HTTP/2 response headers arrive.
type Session struct {
	StatusCode int
	Headers    http.Header

	Audio  *AudioSink
	Events <-chan InboundMessage

	teardown func() error
}

// AudioSink wraps the outbound pipeline with the HTTP/2 request body pipe:
// closing it flushes the terminal sentinel through the pipeline and then
// finishes the upstream write side, ending the HTTP/2 request stream.
type AudioSink struct {
	*pipeline.Outbound
	body *io.PipeWriter
}

// Close flushes the terminal sentinel (pipeline.Outbound.Close) and then
// closes the underlying HTTP/2 request body, signaling end of stream.
func (a *AudioSink) Close() error {
	if err := a.Outbound.Close(); err != nil {
		a.body.CloseWithError(err)
		return err
	}
	return a.body.Close()
}

// Close tears down the session: flushes and closes the audio sink, then
// closes the underlying HTTP/2 connection. Safe to call after the stream
// has already torn itself down (a terminal inbound event or an outbound
// write failure); idempotent.
func (s *Session) Close() error {
	return s.teardown()
}

// Start opens the HTTP/2 connection, signs the initial request with SigV4,
// launches the outbound and inbound pipelines, and returns once the initial
// response headers arrive. Startup failures (TLS, ALPN, status >= 400,
// SigV4 signing) are returned synchronously; failures after this point
// arrive on Session.Events.
func (c *Client) Start(ctx context.Context, cfg StreamConfig) (*Session, error) {
	creds, err := c.creds.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcribestream: retrieve credentials: %w", err)
	}

	addr := fmt.Sprintf("transcribestreaming.%s.amazonaws.com:443", c.region)
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("transcribestream: dial %s: %w", addr, err)
	}

	transport := &http2.Transport{}
	clientConn, err := transport.NewClientConn(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transcribestream: negotiate http2: %w", err)
	}

	bodyReader, bodyWriter := io.Pipe()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://"+addr+streamingPath, bodyReader)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transcribestream: build request: %w", err)
	}
	req.Header.Set("x-amz-target", targetOperation)
	req.Header.Set("content-type", "application/vnd.amazon.eventstream")
	for name, values := range cfg.Headers() {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if err := c.signer.SignHTTP(ctx, creds, req, eventStreamBodyHash, streamingService, c.region, time.Now()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transcribestream: sign initial request: %w", err)
	}
	initialSignature := extractSignature(req.Header.Get("Authorization"))

	signer, err := sigv4ChunkSigner(ctx, c.region, creds, initialSignature, c.logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	// closeConnOnce ends the HTTP/2 connection exactly once, regardless of
	// which side (outbound write failure or inbound terminal event)
	// observes the stream ending first. teardown additionally closes the
	// audio sink; it is deliberately NOT the thing closeConnOnce calls, so
	// a write failure inside audio.Close's own flush can safely call
	// closeConnOnce again without re-entering the same sync.Once frame.
	var (
		audio        *AudioSink
		closeConn    sync.Once
		closeConnErr error
	)
	closeConnOnce := func() error {
		closeConn.Do(func() { closeConnErr = conn.Close() })
		return closeConnErr
	}
	teardown := func() error {
		if audio != nil {
			audio.Close()
		}
		return closeConnOnce()
	}

	pipeWriter := &pipeFrameWriter{
		w:       bodyWriter,
		onError: func(error) { closeConnOnce() },
	}
	audio = &AudioSink{
		Outbound: pipeline.NewOutbound(ctx, pipeWriter, signer, cfg.ChunkSize(), c.logger),
		body:     bodyWriter,
	}

	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := clientConn.RoundTrip(req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	var resp *http.Response
	select {
	case resp = <-respCh:
	case err := <-errCh:
		conn.Close()
		return nil, fmt.Errorf("transcribestream: initial request failed: %w", err)
	case <-ctx.Done():
		conn.Close()
		return nil, ctx.Err()
	}

	if resp.StatusCode >= 400 {
		defer conn.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		return nil, buildStartupException(resp, body)
	}

	events := make(chan InboundMessage, 16)
	demux := pipeline.NewInbound(
		func(e pipeline.Event) { events <- InboundMessage{Event: e} },
		func(err error) { events <- InboundMessage{Err: err} },
		func() { close(events); teardown() },
		c.logger,
	)

	headerMap := map[string]string{":status": strconv.Itoa(resp.StatusCode)}
	for name, values := range resp.Header {
		if len(values) > 0 {
			headerMap[strings.ToLower(name)] = values[0]
		}
	}
	demux.HandleHeaders(headerMap)

	go pumpInboundFrames(resp.Body, demux)

	return &Session{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Audio:      audio,
		Events:     events,
		teardown:   teardown,
	}, nil
}

func pumpInboundFrames(body io.ReadCloser, demux *pipeline.Inbound) {
	defer body.Close()
	for {
		frame, err := readFrame(body)
		if err == io.EOF {
			demux.HandleStreamEnd()
			return
		}
		if err != nil {
			demux.HandleStreamEnd()
			return
		}
		demux.HandleData(frame)
	}
}

// readFrame reads one length-prefixed event-stream frame from r: the first
// 4 bytes are total_length (big-endian), included in the returned slice.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	totalLen := int(lenBuf[0])<<24 | int(lenBuf[1])<<16 | int(lenBuf[2])<<8 | int(lenBuf[3])
	if totalLen < 4 {
		return nil, fmt.Errorf("transcribestream: implausible frame length %d", totalLen)
	}
	frame := make([]byte, totalLen)
	copy(frame, lenBuf[:])
	if _, err := io.ReadFull(r, frame[4:]); err != nil {
		return nil, err
	}
	return frame, nil
}

func buildStartupException(resp *http.Response, body []byte) *pipeline.ServiceException {
	errorType := resp.Header.Get("x-amzn-errortype")
	if idx := strings.IndexByte(errorType, ':'); idx >= 0 {
		errorType = errorType[:idx]
	}
	if errorType == "" {
		errorType = fmt.Sprintf("HTTPError%d", resp.StatusCode)
	}
	return &pipeline.ServiceException{
		ExceptionType: errorType,
		StatusCode:    resp.StatusCode,
		Body:          body,
	}
}

// extractSignature pulls the hex signature out of a SigV4 Authorization
// header value ("AWS4-HMAC-SHA256 Credential=...,SignedHeaders=...,Signature=<hex>"),
// which seeds the Chunk Signer's prior_signature per the signed-request
// handoff.
func extractSignature(authorization string) string {
	const marker = "Signature="
	idx := strings.LastIndex(authorization, marker)
	if idx < 0 {
		return ""
	}
	return authorization[idx+len(marker):]
}
