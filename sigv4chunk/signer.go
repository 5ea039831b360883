// Package sigv4chunk implements the rolling SigV4 "event stream payload"
// chunk-signing discipline: each outgoing event-stream frame is signed
// using the signature of the prior frame as an input, forming an ordered,
// tamper-evident chain anchored at the signature of the initial HTTP
// request.
package sigv4chunk

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/javer/aws-transcribe-streaming/eventstream"
	"github.com/javer/aws-transcribe-streaming/internal/keycache"
)

const algorithm = "AWS4-HMAC-SHA256-PAYLOAD"

// iso8601Basic is the compact date-time format used in the SigV4 string to
// sign, e.g. "20060102T150405Z".
const iso8601Basic = "20060102T150405Z"

// Clock abstracts wall-clock time so tests can freeze it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Signer produces signed event-stream frames by chaining each frame's
// signature into the next. A Signer is single-producer: the chain requires
// a total order on produced signatures, so Sign serializes concurrent
// callers behind an internal mutex rather than leaving the race undefined.
type Signer struct {
	region          string
	service         string
	credentialScope string
	signingKey      []byte

	mu             sync.Mutex
	priorSignature string
	clock          Clock
	logger         zerolog.Logger
}

// Option configures a Signer at construction time.
type Option func(*Signer)

// WithClock overrides the Signer's time source. Intended for tests.
func WithClock(c Clock) Option {
	return func(s *Signer) { s.clock = c }
}

// WithLogger attaches a logger used for debug-level chain transitions.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Signer) { s.logger = logger }
}

// New derives the SigV4 signing key from creds for the given region and
// service, seeds the signature chain with initialSignature (the signature
// of the initial HTTP request, per spec), and returns a ready-to-use
// Signer. The derived key is cached process-wide (internal/keycache) so
// that many sessions opened against the same region/service/day reuse the
// same HMAC derivation.
func New(ctx context.Context, region, service string, creds aws.Credentials, initialSignature string, opts ...Option) (*Signer, error) {
	s := &Signer{
		region:         region,
		service:        service,
		priorSignature: initialSignature,
		clock:          systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	now := s.clock.Now().UTC()
	date := now.Format("20060102")
	s.credentialScope = fmt.Sprintf("%s/%s/%s/aws4_request", date, region, service)

	key, err := keycache.DeriveOrGet(ctx, creds.SecretAccessKey, date, region, service)
	if err != nil {
		return nil, fmt.Errorf("sigv4chunk: failed to derive signing key: %w", err)
	}
	s.signingKey = key

	return s, nil
}

// Sign produces a signed frame wrapping payload (the already-encoded inner
// wire frame, or an empty slice for the terminal frame). It updates the
// signer's prior-signature chain as a side effect.
func (s *Signer) Sign(payload []byte) (eventstream.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC().Truncate(time.Second)
	dateHeader := eventstream.TimestampHeader(eventstream.HeaderDate, now)

	dateBlock, err := eventstream.EncodeHeaders(eventstream.List{dateHeader})
	if err != nil {
		return eventstream.Message{}, fmt.Errorf("sigv4chunk: failed to encode date header block: %w", err)
	}

	stringToSign := s.buildStringToSign(now, dateBlock, payload)

	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(stringToSign))
	signature := hex.EncodeToString(mac.Sum(nil))

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return eventstream.Message{}, fmt.Errorf("sigv4chunk: invalid computed signature: %w", err)
	}

	s.logger.Debug().
		Str("prior_signature", s.priorSignature).
		Str("signature", signature).
		Int("payload_len", len(payload)).
		Msg("signed event-stream chunk")

	s.priorSignature = signature

	return eventstream.Message{
		Headers: eventstream.List{
			dateHeader,
			eventstream.ByteArrayHeader(eventstream.HeaderChunkSignature, sigBytes),
		},
		Payload: payload,
	}, nil
}

func (s *Signer) buildStringToSign(now time.Time, dateBlock, payload []byte) string {
	dateHash := sha256.Sum256(dateBlock)
	payloadHash := sha256.Sum256(payload)

	return algorithm + "\n" +
		now.Format(iso8601Basic) + "\n" +
		s.credentialScope + "\n" +
		s.priorSignature + "\n" +
		hex.EncodeToString(dateHash[:]) + "\n" +
		hex.EncodeToString(payloadHash[:])
}

// PriorSignature returns the most recently produced signature (hex,
// lowercase, 64 characters), or the seed signature if Sign has not been
// called yet.
func (s *Signer) PriorSignature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priorSignature
}

// CredentialScope returns the SigV4 credential scope this signer was
// derived against: "YYYYMMDD/region/service/aws4_request".
func (s *Signer) CredentialScope() string {
	return s.credentialScope
}
