// Package artifact_test tests artifact naming and the filesystem store.
package artifact_test

import (
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/session-audio/announcer/internal/artifact"
	"github.com/session-audio/announcer/internal/core"
)

var uniqueNamePattern = regexp.MustCompile(`^[0-9a-f-]{36}_alice_join\.ogg$`)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	policy, err := artifact.ParsePolicy("unique")
	require.NoError(t, err)
	assert.Equal(t, artifact.PolicyUnique, policy)

	policy, err = artifact.ParsePolicy("reuse")
	require.NoError(t, err)
	assert.Equal(t, artifact.PolicyReuse, policy)

	_, err = artifact.ParsePolicy("lru")
	require.Error(t, err)
}

func TestNewSpec_UniquePolicy(t *testing.T) {
	t.Parallel()

	spec := artifact.NewSpec("Alice", core.ActionJoin, "/tmp/audio", artifact.PolicyUnique)

	assert.Regexp(t, uniqueNamePattern, spec.Filename)
	assert.Equal(t, "alice", spec.SafeIdentifier)
	assert.Equal(t, "Alice has joined the session.", spec.Phrase)
	assert.Equal(t, "/tmp/audio/"+spec.Filename, spec.Path())

	// A second spec for the same inputs owns a distinct name.
	other := artifact.NewSpec("Alice", core.ActionJoin, "/tmp/audio", artifact.PolicyUnique)
	assert.NotEqual(t, spec.Filename, other.Filename)
}

func TestNewSpec_ReusePolicy(t *testing.T) {
	t.Parallel()

	first := artifact.NewSpec("Alice Smith", core.ActionLeave, "/tmp/audio", artifact.PolicyReuse)
	second := artifact.NewSpec("Alice Smith", core.ActionLeave, "/tmp/audio", artifact.PolicyReuse)

	assert.Equal(t, "leave_alice-smith.ogg", first.Filename)
	assert.Equal(t, first.Filename, second.Filename)

	// Temp paths stay distinct even when filenames collide by design.
	assert.NotEqual(t, first.TempPath(".wav"), second.TempPath(".wav"))
}

func TestSpec_TempPath(t *testing.T) {
	t.Parallel()

	spec := artifact.NewSpec("bob", core.ActionJoin, "/data/audio", artifact.PolicyReuse)

	assert.Equal(t, "/data/audio/.tmp_"+spec.Token+".wav", spec.TempPath(".wav"))
	assert.Equal(t, "/data/audio/.tmp_"+spec.Token+".mp3", spec.TempPath(".mp3"))
}

func newTestStore(t *testing.T) (*artifact.Store, afero.Fs) {
	t.Helper()

	fileSystem := afero.NewMemMapFs()

	store, err := artifact.NewStore(fileSystem, "/srv/static/audio", zerolog.Nop())
	require.NoError(t, err)

	return store, fileSystem
}

func TestStore_ExistsAndRemove(t *testing.T) {
	t.Parallel()

	store, fileSystem := newTestStore(t)

	exists, err := store.Exists("join_alice.ogg")
	require.NoError(t, err)
	assert.False(t, exists)

	err = afero.WriteFile(fileSystem, store.Path("join_alice.ogg"), []byte("ogg"), 0o600)
	require.NoError(t, err)

	exists, err = store.Exists("join_alice.ogg")
	require.NoError(t, err)
	assert.True(t, exists)

	err = store.Remove("join_alice.ogg")
	require.NoError(t, err)

	exists, err = store.Exists("join_alice.ogg")
	require.NoError(t, err)
	assert.False(t, exists)

	// Removing an absent artifact is not an error.
	err = store.Remove("join_alice.ogg")
	require.NoError(t, err)
}

func TestStore_SelfHealsRemovedDirectory(t *testing.T) {
	t.Parallel()

	store, fileSystem := newTestStore(t)

	err := fileSystem.RemoveAll("/srv/static/audio")
	require.NoError(t, err)

	exists, err := store.Exists("join_alice.ogg")
	require.NoError(t, err)
	assert.False(t, exists)

	info, err := fileSystem.Stat("/srv/static/audio")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_RemoveQuietIgnoresMissing(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	// Must not panic or surface anything.
	store.RemoveQuiet("/srv/static/audio/.tmp_gone.wav")
}
