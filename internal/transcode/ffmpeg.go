// Package transcode converts engine-native audio files into the Ogg delivery
// format by shelling out to ffmpeg.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

const defaultFFmpegBinary = "ffmpeg"

// ErrSamePath is returned when source and target refer to the same file.
var ErrSamePath = errors.New("source and target paths must differ")

// FFmpeg converts audio files between formats. ffmpeg processes are
// independent, so one instance may be used from any number of goroutines.
type FFmpeg struct {
	binary string
	log    zerolog.Logger
}

// NewFFmpeg creates a transcoder using the ffmpeg binary from PATH.
func NewFFmpeg(log zerolog.Logger) *FFmpeg {
	return &FFmpeg{
		binary: defaultFFmpegBinary,
		log:    log,
	}
}

// NewFFmpegWithBinary creates a transcoder with a custom binary name. This
// constructor is primarily for testing failure paths.
func NewFFmpegWithBinary(binary string, log zerolog.Logger) *FFmpeg {
	return &FFmpeg{
		binary: binary,
		log:    log,
	}
}

// Transcode converts sourcePath into the format implied by targetPath's
// extension. The source file is removed afterwards whether or not the
// conversion succeeded; a cleanup failure is logged, never returned.
func (f *FFmpeg) Transcode(ctx context.Context, sourcePath, targetPath string) error {
	if sourcePath == targetPath {
		return ErrSamePath
	}

	defer f.removeSource(sourcePath)

	// -y overwrites a stale target left behind by a crashed run.
	args := []string{"-y", "-loglevel", "error", "-i", sourcePath, targetPath}

	// #nosec G204 -- paths are produced by the artifact namer, not user input
	cmd := exec.CommandContext(ctx, f.binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s conversion failed: %w - output: %s", f.binary, err, string(output))
	}

	f.log.Debug().Str("source", sourcePath).Str("target", targetPath).Msg("transcoded artifact")

	return nil
}

func (f *FFmpeg) removeSource(sourcePath string) {
	err := os.Remove(sourcePath)
	if err != nil && !os.IsNotExist(err) {
		f.log.Warn().Err(err).Str("path", sourcePath).Msg("failed to remove intermediate file")
	}
}
