package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/session-audio/announcer/internal/engine"
)

const testMP3Data = "mock-mp3-audio-data"

func newTranslateTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	return httptest.NewServer(handler)
}

func TestTranslate_Synthesize(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string

	server := newTranslateTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/translate_tts", r.URL.Path)

		gotQuery = map[string]string{
			"tl":     r.URL.Query().Get("tl"),
			"client": r.URL.Query().Get("client"),
			"q":      r.URL.Query().Get("q"),
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte(testMP3Data))
	})
	defer server.Close()

	translate := engine.NewTranslateWithBaseURL("en", "co.uk", server.URL, time.Second)

	outputPath := filepath.Join(t.TempDir(), "out.mp3")
	err := translate.Synthesize(context.Background(), "Alice has joined the session.", outputPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, testMP3Data, string(data))

	assert.Equal(t, "en", gotQuery["tl"])
	assert.Equal(t, "tw-ob", gotQuery["client"])
	assert.Equal(t, "Alice has joined the session.", gotQuery["q"])
}

func TestTranslate_SynthesizeCreatesMissingDirectory(t *testing.T) {
	t.Parallel()

	server := newTranslateTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testMP3Data))
	})
	defer server.Close()

	translate := engine.NewTranslateWithBaseURL("en", "com", server.URL, time.Second)

	outputPath := filepath.Join(t.TempDir(), "audio", "deep", "out.mp3")
	err := translate.Synthesize(context.Background(), "hello", outputPath)
	require.NoError(t, err)

	_, err = os.Stat(outputPath)
	require.NoError(t, err)
}

func TestTranslate_SynthesizeErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()

		translate := engine.NewTranslate("en", "com", time.Second)
		err := translate.Synthesize(context.Background(), "", "/tmp/out.mp3")
		assert.ErrorIs(t, err, engine.ErrTextEmpty)
	})

	t.Run("non-OK status", func(t *testing.T) {
		t.Parallel()

		server := newTranslateTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})
		defer server.Close()

		translate := engine.NewTranslateWithBaseURL("en", "com", server.URL, time.Second)
		err := translate.Synthesize(context.Background(), "hello", filepath.Join(t.TempDir(), "out.mp3"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-OK status")
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		server := newTranslateTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		defer server.Close()

		translate := engine.NewTranslateWithBaseURL("en", "com", server.URL, time.Second)
		err := translate.Synthesize(context.Background(), "hello", filepath.Join(t.TempDir(), "out.mp3"))
		assert.ErrorIs(t, err, engine.ErrEmptyAudio)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		t.Parallel()

		translate := engine.NewTranslateWithBaseURL("en", "com", "http://127.0.0.1:1", time.Second)
		err := translate.Synthesize(context.Background(), "hello", filepath.Join(t.TempDir(), "out.mp3"))
		require.Error(t, err)
	})
}

func TestTranslate_DescribeAndVoices(t *testing.T) {
	t.Parallel()

	translate := engine.NewTranslate("de", "co.uk", 0)

	description := translate.Describe()
	assert.Equal(t, "translate", description.Engine)
	assert.Equal(t, "de", description.Language)
	assert.Equal(t, "co.uk", description.TLD)

	voices, err := translate.Voices()
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "de.co.uk", voices[0].ID)
	assert.Equal(t, []string{"de"}, voices[0].Languages)

	assert.Equal(t, "translate", translate.Name())
	assert.Equal(t, ".mp3", translate.NativeExt())

	// Zero values fall back to defaults.
	fallback := engine.NewTranslate("", "", 0)
	assert.Equal(t, "en", fallback.Describe().Language)
	assert.Equal(t, "com", fallback.Describe().TLD)
}
