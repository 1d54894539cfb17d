package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/session-audio/announcer/internal/core"
)

// Espeak defaults.
const (
	defaultEspeakBinary = "espeak-ng"
	// espeak-ng speaks at 175 words per minute unless told otherwise.
	defaultWordsPerMinute = 175
	// espeak-ng refuses rates below this floor.
	minWordsPerMinute = 80
)

// Voice gender labels derived from the enumeration table.
const (
	genderMale   = "Male"
	genderFemale = "Female"
)

// EspeakOptions configures the offline engine.
type EspeakOptions struct {
	// Binary overrides the espeak-ng executable name, mainly for tests.
	Binary string

	// VoiceSubstring selects the first voice whose id or name contains the
	// value, case-insensitive. Ignored when VoiceIndex is set and in range.
	VoiceSubstring string

	// VoiceIndex selects a voice by its position in the enumeration order.
	VoiceIndex *int

	// RateDelta is added to the engine's default speech rate.
	RateDelta int
}

// Espeak synthesizes speech offline through the espeak-ng binary. The
// underlying process is not safe for interleaved use, so all synthesis calls
// on one instance are serialized under a mutex. Voice enumeration happens once
// at construction and may be read concurrently without the lock.
type Espeak struct {
	mu      sync.Mutex
	binary  string
	voices  []core.Voice
	voiceID string
	wpm     int
	log     zerolog.Logger
}

// NewEspeak creates an offline engine, enumerating the locally installed
// voices and applying the configured voice preference and rate delta. An
// enumeration failure means the engine is unavailable and is returned as an
// error.
func NewEspeak(opts EspeakOptions, log zerolog.Logger) (*Espeak, error) {
	binary := opts.Binary
	if binary == "" {
		binary = defaultEspeakBinary
	}

	output, err := exec.Command(binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s voices: %w", binary, err)
	}

	return NewEspeakWithVoices(opts, ParseVoiceTable(output), log), nil
}

// NewEspeakWithVoices creates an offline engine from a pre-enumerated voice
// list. This constructor is primarily for testing voice selection without a
// local espeak-ng installation.
func NewEspeakWithVoices(opts EspeakOptions, voices []core.Voice, log zerolog.Logger) *Espeak {
	binary := opts.Binary
	if binary == "" {
		binary = defaultEspeakBinary
	}

	wpm := defaultWordsPerMinute + opts.RateDelta
	if wpm < minWordsPerMinute {
		wpm = minWordsPerMinute
	}

	espeak := &Espeak{
		binary: binary,
		voices: voices,
		wpm:    wpm,
		log:    log,
	}
	espeak.voiceID = espeak.selectVoice(opts.VoiceIndex, opts.VoiceSubstring)

	return espeak
}

// Name returns the engine variant name.
func (e *Espeak) Name() string {
	return VariantEspeak
}

// NativeExt returns the extension of the engine's native output format.
func (e *Espeak) NativeExt() string {
	return ".wav"
}

// SelectedVoice returns the chosen voice id, or empty when the engine default
// is in use.
func (e *Espeak) SelectedVoice() string {
	return e.voiceID
}

// Voices returns the voices enumerated at construction.
func (e *Espeak) Voices() ([]core.Voice, error) {
	out := make([]core.Voice, len(e.voices))
	copy(out, e.voices)

	return out, nil
}

// Synthesize renders text to a WAV file at outputPath.
func (e *Espeak) Synthesize(ctx context.Context, textToSpeak, outputPath string) error {
	if textToSpeak == "" {
		return ErrTextEmpty
	}

	// Recreate the parent directory in case it was removed mid-run.
	dirErr := os.MkdirAll(filepath.Dir(outputPath), dirPermissions)
	if dirErr != nil {
		return fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	args := []string{}
	if e.voiceID != "" {
		args = append(args, "-v", e.voiceID)
	}

	args = append(args, "-s", strconv.Itoa(e.wpm), "-w", outputPath, textToSpeak)

	e.mu.Lock()
	defer e.mu.Unlock()

	// #nosec G204 -- the binary name is configuration, the text is passed as
	// a single argument and never interpreted by a shell
	cmd := exec.CommandContext(ctx, e.binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s execution failed: %w - output: %s", e.binary, err, string(output))
	}

	e.probeWaveform(outputPath)

	return nil
}

// probeWaveform decodes the WAV header of a synthesized file and logs its
// shape. Probe failures are diagnostic only and never fail the request.
func (e *Espeak) probeWaveform(path string) {
	file, err := os.Open(path)
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).Msg("cannot open synthesized waveform")

		return
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			e.log.Warn().Err(closeErr).Str("path", path).Msg("failed to close waveform")
		}
	}()

	format, duration, err := waveformSummary(wav.NewDecoder(file))
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).Msg("synthesized waveform is not readable")

		return
	}

	e.log.Debug().
		Str("path", path).
		Dur("duration", duration).
		Int("sample_rate", format.SampleRate).
		Int("channels", format.NumChannels).
		Msg("synthesized waveform")
}

// waveformSummary extracts the audio format and duration from a WAV decoder.
func waveformSummary(decoder *wav.Decoder) (*audio.Format, time.Duration, error) {
	if !decoder.IsValidFile() {
		return nil, 0, ErrInvalidWaveform
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read wav duration: %w", err)
	}

	return decoder.Format(), duration, nil
}

// selectVoice applies the voice preference with the fixed precedence: explicit
// numeric index, then case-insensitive substring over id and name, then the
// engine default. Misses are logged and never fail construction.
func (e *Espeak) selectVoice(index *int, substring string) string {
	if index != nil {
		if *index >= 0 && *index < len(e.voices) {
			chosen := e.voices[*index]
			e.log.Info().Int("index", *index).Str("voice", chosen.ID).Msg("using voice by index")

			return chosen.ID
		}

		e.log.Warn().
			Int("index", *index).
			Int("voices", len(e.voices)).
			Msg("voice index out of range; ignoring")
	}

	if substring != "" {
		needle := strings.ToLower(substring)
		for _, voice := range e.voices {
			if strings.Contains(strings.ToLower(voice.ID), needle) ||
				strings.Contains(strings.ToLower(voice.Name), needle) {
				e.log.Info().Str("substring", substring).Str("voice", voice.ID).Msg("using voice by substring")

				return voice.ID
			}
		}

		e.log.Warn().Str("substring", substring).Msg("preferred voice not found; using default voice")
	}

	return ""
}

// ParseVoiceTable parses the tabular output of `espeak-ng --voices` into voice
// descriptors. Malformed lines are skipped.
func ParseVoiceTable(output []byte) []core.Voice {
	var voices []core.Voice

	lines := strings.Split(string(output), "\n")
	for lineIndex, line := range lines {
		// The first line is the column header.
		if lineIndex == 0 {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		language := fields[1]
		voices = append(voices, core.Voice{
			Index:     len(voices),
			ID:        fields[4],
			Name:      fields[3],
			Languages: []string{language},
			Gender:    parseGender(fields[2]),
		})
	}

	return voices
}

// parseGender maps the Age/Gender column ("--/M", "23/F") to a label.
func parseGender(ageGender string) string {
	_, gender, found := strings.Cut(ageGender, "/")
	if !found {
		return ""
	}

	switch strings.ToUpper(gender) {
	case "M":
		return genderMale
	case "F":
		return genderFemale
	default:
		return ""
	}
}
