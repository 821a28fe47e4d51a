package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNormalization marks transcoding failures so callers can distinguish them
// from transcription failures.
var ErrNormalization = errors.New("audio normalization failed")

//go:generate mockery --name=Normalizer --dir=. --output=./mocks --filename=normalizer_mock.go --case=underscore

// Normalizer converts browser-recorded audio into the mono 16kHz PCM WAV the
// speech service requires.
type Normalizer interface {
	Normalize(ctx context.Context, input []byte) ([]byte, error)
}

type FFmpegNormalizer struct {
	binary  string
	tempDir string
	logger  *logrus.Logger
}

func NewFFmpegNormalizer(binary, tempDir string, logger *logrus.Logger) *FFmpegNormalizer {
	if binary == "" {
		binary = "ffmpeg"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpegNormalizer{binary: binary, tempDir: tempDir, logger: logger}
}

// Normalize writes the input to a request-scoped temp file, transcodes it to
// pcm_s16le mono 16kHz and returns the WAV bytes. Both temp files are removed
// on every exit path.
func (n *FFmpegNormalizer) Normalize(ctx context.Context, input []byte) ([]byte, error) {
	id := uuid.NewString()
	inPath := filepath.Join(n.tempDir, "callguard_in_"+id+".webm")
	outPath := filepath.Join(n.tempDir, "callguard_out_"+id+".wav")

	defer n.remove(inPath)
	defer n.remove(outPath)

	if err := os.WriteFile(inPath, input, 0600); err != nil {
		return nil, fmt.Errorf("%w: writing temp input: %v", ErrNormalization, err)
	}

	args := []string{
		"-y",
		"-i", inPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		outPath,
	}

	cmd := exec.CommandContext(ctx, n.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found, install ffmpeg or set audio.ffmpeg_binary", ErrNormalization, n.binary)
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrNormalization, err, stderr.String())
	}

	wav, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading transcoded output: %v", ErrNormalization, err)
	}

	return wav, nil
}

func (n *FFmpegNormalizer) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		n.logger.WithError(err).WithField("path", path).Warn("failed to remove temp audio file")
	}
}
