package transcribestream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamConfig_HeadersOmitsUnsetFields(t *testing.T) {
	cfg := StreamConfig{
		LanguageCode:  "en-US",
		SampleRate:    16000,
		MediaEncoding: "pcm",
	}

	h := cfg.Headers()
	assert.Equal(t, "en-US", h.Get("x-amzn-transcribe-language-code"))
	assert.Equal(t, "16000", h.Get("x-amzn-transcribe-sample-rate"))
	assert.Equal(t, "pcm", h.Get("x-amzn-transcribe-media-encoding"))
	assert.Empty(t, h.Get("x-amzn-transcribe-vocabulary-name"))
	assert.Empty(t, h.Get("x-amzn-transcribe-session-id"))
}

func TestStreamConfig_HeadersSerializesBooleansAndNumbers(t *testing.T) {
	enabled := true
	disabled := false
	cfg := StreamConfig{
		ShowSpeakerLabel:             &enabled,
		EnableChannelIdentification: &disabled,
		NumberOfChannels:             2,
	}

	h := cfg.Headers()
	assert.Equal(t, "true", h.Get("x-amzn-transcribe-show-speaker-label"))
	assert.Equal(t, "false", h.Get("x-amzn-transcribe-enable-channel-identification"))
	assert.Equal(t, "2", h.Get("x-amzn-transcribe-number-of-channels"))
}

func TestStreamConfig_ChunkSize(t *testing.T) {
	assert.Equal(t, 6400, StreamConfig{SampleRate: 16000}.ChunkSize())
	assert.Equal(t, 0, StreamConfig{}.ChunkSize())
}
