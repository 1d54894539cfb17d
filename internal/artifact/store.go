package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Directory permissions for the artifact tree.
const dirPermissions = 0o750

// Store owns the directory of produced audio files. It is safe for concurrent
// use without locking: the only shared state is the filesystem, and every
// operation re-ensures the directory exists so external deletion self-heals
// instead of failing requests.
type Store struct {
	fs  afero.Fs
	dir string
	log zerolog.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(fileSystem afero.Fs, dir string, log zerolog.Logger) (*Store, error) {
	store := &Store{
		fs:  fileSystem,
		dir: dir,
		log: log,
	}

	err := store.EnsureDir()
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Dir returns the artifact directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path for a filename inside the store.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// EnsureDir creates the artifact directory if it does not exist.
func (s *Store) EnsureDir() error {
	err := s.fs.MkdirAll(s.dir, dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create artifact directory %s: %w", s.dir, err)
	}

	return nil
}

// Exists reports whether an artifact with the given filename is present.
// The directory is re-created first so an externally removed tree reads as a
// clean cache miss rather than an error.
func (s *Store) Exists(filename string) (bool, error) {
	err := s.EnsureDir()
	if err != nil {
		return false, err
	}

	_, statErr := s.fs.Stat(s.Path(filename))
	if statErr == nil {
		return true, nil
	}

	if os.IsNotExist(statErr) {
		return false, nil
	}

	return false, fmt.Errorf("failed to stat artifact %s: %w", filename, statErr)
}

// Remove deletes an artifact. A missing file is not an error.
func (s *Store) Remove(filename string) error {
	err := s.fs.Remove(s.Path(filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artifact %s: %w", filename, err)
	}

	return nil
}

// RemoveQuiet deletes a file best effort. Failures are logged and swallowed;
// this is the cleanup path for intermediate waveforms.
func (s *Store) RemoveQuiet(path string) {
	err := s.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove intermediate file")
	}
}
