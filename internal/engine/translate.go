package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/session-audio/announcer/internal/core"
)

// Cloud endpoint parameters. The accent domain is the TLD of the translation
// host, so "co.uk" yields a British-accented voice for the same language code.
const (
	translateHostFormat = "https://translate.google.%s"
	translatePath       = "/translate_tts"
	translateClient     = "tw-ob"

	defaultLanguage = "en"
	defaultTLD      = "com"
	defaultTimeout  = 30 * time.Second
)

// Translate synthesizes speech through the Google Translate voice endpoint.
// It is stateless per call aside from the configured language and accent
// domain, produces MP3 directly, and needs no serialization.
type Translate struct {
	httpClient *http.Client
	baseURL    string
	language   string
	tld        string
}

// NewTranslate creates a cloud engine for the given language code and accent
// domain. Zero values fall back to English on the .com domain.
func NewTranslate(language, tld string, timeout time.Duration) *Translate {
	if language == "" {
		language = defaultLanguage
	}

	if tld == "" {
		tld = defaultTLD
	}

	return &Translate{
		httpClient: &http.Client{Timeout: timeoutOrDefault(timeout)},
		baseURL:    fmt.Sprintf(translateHostFormat, tld),
		language:   language,
		tld:        tld,
	}
}

// NewTranslateWithBaseURL creates a cloud engine pointed at a custom endpoint.
// This constructor is primarily for testing against a local HTTP server.
func NewTranslateWithBaseURL(language, tld, baseURL string, timeout time.Duration) *Translate {
	translate := NewTranslate(language, tld, timeout)
	translate.baseURL = baseURL

	return translate
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}

	return timeout
}

// Name returns the engine variant name.
func (t *Translate) Name() string {
	return VariantTranslate
}

// NativeExt returns the extension of the engine's native output format.
func (t *Translate) NativeExt() string {
	return ".mp3"
}

// Describe summarizes the engine's language and accent domain.
func (t *Translate) Describe() core.EngineDescription {
	return core.EngineDescription{
		Engine:   VariantTranslate,
		Language: t.language,
		TLD:      t.tld,
	}
}

// Voices returns the single translation voice as a descriptor, since the
// cloud endpoint exposes one voice per language/domain pair.
func (t *Translate) Voices() ([]core.Voice, error) {
	return []core.Voice{
		{
			Index:     0,
			ID:        t.language + "." + t.tld,
			Name:      fmt.Sprintf("Google Translate (%s)", t.language),
			Languages: []string{t.language},
		},
	}, nil
}

// Synthesize fetches compressed audio for the text and writes it to
// outputPath. Network or endpoint failures surface as generation failures.
func (t *Translate) Synthesize(ctx context.Context, textToSpeak, outputPath string) error {
	if textToSpeak == "" {
		return ErrTextEmpty
	}

	audioData, err := t.fetch(ctx, textToSpeak)
	if err != nil {
		return err
	}

	dirErr := os.MkdirAll(filepath.Dir(outputPath), dirPermissions)
	if dirErr != nil {
		return fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	writeErr := os.WriteFile(outputPath, audioData, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	return nil
}

func (t *Translate) fetch(ctx context.Context, textToSpeak string) ([]byte, error) {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", translateClient)
	query.Set("tl", t.language)
	query.Set("q", textToSpeak)

	requestURL := t.baseURL + translatePath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach translation voice service at %s: %w", t.baseURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf(
			"translation voice service returned non-OK status: %s, body: %s",
			resp.Status,
			string(body),
		)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}
