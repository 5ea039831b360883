// Package transcribestream implements the Transport Driver: it opens the
// HTTP/2 connection to the streaming transcription service, signs the
// initial request, and wires the outbound/inbound pipelines together into
// the (response, audio sink, event source) triple applications consume.
package transcribestream

import (
	"net/http"
	"strconv"
)

// StreamConfig holds the request-specific x-amzn-transcribe-* fields mapped
// onto the initial HTTP/2 request. Every field is optional; unset fields
// (empty string, zero int, nil bool) are omitted from Headers.
type StreamConfig struct {
	LanguageCode    string
	SampleRate      int
	MediaEncoding   string
	VocabularyName  string
	SessionID       string

	VocabularyFilterName   string
	VocabularyFilterMethod string

	ShowSpeakerLabel             *bool
	EnableChannelIdentification *bool
	NumberOfChannels             int

	EnablePartialResultsStabilization *bool
	PartialResultsStability            string

	ContentIdentificationType string
	ContentRedactionType      string
	PIIEntityTypes            string

	LanguageModelName string

	IdentifyLanguage          *bool
	LanguageOptions           string
	PreferredLanguage         string
	IdentifyMultipleLanguages *bool
	VocabularyNames           string
	VocabularyFilterNames     string
}

// Headers produces the x-amzn-transcribe-* header set for the initial
// HTTP/2 request. Booleans serialize as "true"/"false"; numbers as decimal
// strings; enums pass through as already-lowercase/kebab-cased values.
func (c StreamConfig) Headers() http.Header {
	h := http.Header{}

	setString := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}
	setInt := func(name string, value int) {
		if value != 0 {
			h.Set(name, strconv.Itoa(value))
		}
	}
	setBool := func(name string, value *bool) {
		if value != nil {
			h.Set(name, strconv.FormatBool(*value))
		}
	}

	setString("x-amzn-transcribe-language-code", c.LanguageCode)
	setInt("x-amzn-transcribe-sample-rate", c.SampleRate)
	setString("x-amzn-transcribe-media-encoding", c.MediaEncoding)
	setString("x-amzn-transcribe-vocabulary-name", c.VocabularyName)
	setString("x-amzn-transcribe-session-id", c.SessionID)
	setString("x-amzn-transcribe-vocabulary-filter-name", c.VocabularyFilterName)
	setString("x-amzn-transcribe-vocabulary-filter-method", c.VocabularyFilterMethod)
	setBool("x-amzn-transcribe-show-speaker-label", c.ShowSpeakerLabel)
	setBool("x-amzn-transcribe-enable-channel-identification", c.EnableChannelIdentification)
	setInt("x-amzn-transcribe-number-of-channels", c.NumberOfChannels)
	setBool("x-amzn-transcribe-enable-partial-results-stabilization", c.EnablePartialResultsStabilization)
	setString("x-amzn-transcribe-partial-results-stability", c.PartialResultsStability)
	setString("x-amzn-transcribe-content-identification-type", c.ContentIdentificationType)
	setString("x-amzn-transcribe-content-redaction-type", c.ContentRedactionType)
	setString("x-amzn-transcribe-pii-entity-types", c.PIIEntityTypes)
	setString("x-amzn-transcribe-language-model-name", c.LanguageModelName)
	setBool("x-amzn-transcribe-identify-language", c.IdentifyLanguage)
	setString("x-amzn-transcribe-language-options", c.LanguageOptions)
	setString("x-amzn-transcribe-preferred-language", c.PreferredLanguage)
	setBool("x-amzn-transcribe-identify-multiple-languages", c.IdentifyMultipleLanguages)
	setString("x-amzn-transcribe-vocabulary-names", c.VocabularyNames)
	setString("x-amzn-transcribe-vocabulary-filter-names", c.VocabularyFilterNames)

	return h
}

// ChunkSize returns the computed audio chunk size for this config's sample
// rate, or 0 (pass-through) if SampleRate is unset.
func (c StreamConfig) ChunkSize() int {
	if c.SampleRate == 0 {
		return 0
	}
	const (
		bytesPerSample = 2
		cadenceMillis  = 200
	)
	return c.SampleRate * bytesPerSample * cadenceMillis / 1000
}
