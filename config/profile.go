// Package config loads named session profiles -- reusable defaults for a
// transcription stream's StreamConfig -- from a TOML file, with an optional
// hot-reload watcher for long-running processes that open many sessions.
package config

import (
	"fmt"
	"io"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"

	"github.com/javer/aws-transcribe-streaming/transcribestream"
)

// Profile is one named set of StreamConfig defaults.
type Profile struct {
	Region                  string `toml:"region"`
	LanguageCode            string `toml:"language_code"`
	SampleRate              int    `toml:"sample_rate"`
	MediaEncoding           string `toml:"media_encoding"`
	VocabularyName          string `toml:"vocabulary_name"`
	ShowSpeakerLabel        *bool  `toml:"show_speaker_label"`
	IdentifyLanguage        *bool  `toml:"identify_language"`
	LanguageOptions         string `toml:"language_options"`
	PartialResultsStable    *bool  `toml:"enable_partial_results_stabilization"`
	PartialResultsStability string `toml:"partial_results_stability"`
}

// File is the top-level shape of a session-profile TOML document: a table
// of named profiles plus which one is the default.
type File struct {
	Default  string             `toml:"default"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Load reads and parses a session-profile file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader parses a session-profile document from r.
func LoadFromReader(r io.Reader) (*File, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	expanded := os.ExpandEnv(string(content))

	var f File
	if err := toml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("config: parse TOML: %w", err)
	}
	return &f, nil
}

// Profile looks up a named profile, or the file's default profile if name
// is empty.
func (f *File) Profile(name string) (Profile, bool) {
	if name == "" {
		name = f.Default
	}
	p, ok := f.Profiles[name]
	return p, ok
}

// Names returns the file's profile names, sorted, for listing in a CLI or
// validating a --profile flag before Load's caller commits to one.
func (f *File) Names() []string {
	names := lo.Keys(f.Profiles)
	sort.Strings(names)
	return names
}

// Merge layers explicit overrides on top of the profile's defaults:
// any non-zero field in overrides wins, otherwise the profile's value is
// used.
func (p Profile) Merge(overrides transcribestream.StreamConfig) transcribestream.StreamConfig {
	merged := overrides

	if merged.LanguageCode == "" {
		merged.LanguageCode = p.LanguageCode
	}
	if merged.SampleRate == 0 {
		merged.SampleRate = p.SampleRate
	}
	if merged.MediaEncoding == "" {
		merged.MediaEncoding = p.MediaEncoding
	}
	if merged.VocabularyName == "" {
		merged.VocabularyName = p.VocabularyName
	}
	if merged.ShowSpeakerLabel == nil {
		merged.ShowSpeakerLabel = p.ShowSpeakerLabel
	}
	if merged.IdentifyLanguage == nil {
		merged.IdentifyLanguage = p.IdentifyLanguage
	}
	if merged.LanguageOptions == "" {
		merged.LanguageOptions = p.LanguageOptions
	}
	if merged.EnablePartialResultsStabilization == nil {
		merged.EnablePartialResultsStabilization = p.PartialResultsStable
	}
	if merged.PartialResultsStability == "" {
		merged.PartialResultsStability = p.PartialResultsStability
	}

	return merged
}
