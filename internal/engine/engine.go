// Package engine provides the speech synthesis backends for the announcer
// service: an offline espeak-ng adapter and a cloud translation-voice adapter,
// both implementing core.SpeechEngine.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/session-audio/announcer/internal/core"
)

// Engine variant names, usable in configuration and per-request overrides.
const (
	VariantEspeak    = "espeak"
	VariantTranslate = "translate"
)

// File and directory permissions for engine output.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Static errors.
var (
	ErrUnknownVariant  = errors.New("unknown engine variant")
	ErrTextEmpty       = errors.New("text cannot be empty")
	ErrInvalidWaveform = errors.New("synthesized file is not a valid wav")
	ErrEmptyAudio      = errors.New("received empty audio data")
)

// Options selects and configures an engine variant.
type Options struct {
	// Variant is VariantEspeak or VariantTranslate.
	Variant string

	// VoiceSubstring and VoiceIndex steer offline voice selection; an index
	// beats a substring, which beats the engine default.
	VoiceSubstring string
	VoiceIndex     *int

	// RateDelta adjusts the offline engine's default speech rate.
	RateDelta int

	// Language and TLD configure the cloud variant's voice and accent domain.
	Language string
	TLD      string

	// Timeout bounds every cloud synthesis request.
	Timeout time.Duration
}

// New constructs the engine variant named in opts. Selection happens by
// configuration value only; callers never inspect the concrete type.
func New(opts Options, log zerolog.Logger) (core.SpeechEngine, error) {
	switch opts.Variant {
	case VariantEspeak, "":
		return NewEspeak(EspeakOptions{
			VoiceSubstring: opts.VoiceSubstring,
			VoiceIndex:     opts.VoiceIndex,
			RateDelta:      opts.RateDelta,
		}, log)
	case VariantTranslate:
		return NewTranslate(opts.Language, opts.TLD, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, opts.Variant)
	}
}
