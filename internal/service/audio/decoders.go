package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"

	"speech-digest-service/internal/apperrors"
)

// errNeedsTranscode signals a container the native decoders recognise but cannot read,
// such as float or extensible WAV.
var errNeedsTranscode = errors.New("container needs transcoding")

// Decoder turns container bytes into float PCM.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, data []byte, det Detection) (*PCM, error)
}

type wavDecoder struct{}

func (wavDecoder) Name() string { return "wav" }

func (wavDecoder) Decode(_ context.Context, data []byte, _ Detection) (*PCM, error) {
	return DecodeWAV(data)
}

type rawPCMDecoder struct{}

func (rawPCMDecoder) Name() string { return "pcm" }

func (rawPCMDecoder) Decode(_ context.Context, data []byte, det Detection) (*PCM, error) {
	return DecodeInt16LE(data, det.Rate, det.Channels)
}

// mp3Decoder uses go-mp3, which always yields 16-bit little-endian stereo.
type mp3Decoder struct{}

func (mp3Decoder) Name() string { return "mp3" }

func (mp3Decoder) Decode(_ context.Context, data []byte, _ Detection) (*PCM, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Decode("invalid MP3 stream").WithCause(err)
	}
	if d.SampleRate() <= 0 {
		return nil, apperrors.UnsupportedFormat("MP3 stream has no sample rate")
	}
	out, err := io.ReadAll(d)
	if err != nil {
		return nil, apperrors.Decode("read MP3 frames").WithCause(err)
	}
	return DecodeInt16LE(out, d.SampleRate(), 2)
}

// ffmpegDecoder shells out to ffmpeg for containers without a native Go decoder.
// Output is mono 16 kHz signed 16-bit, the rate speech providers expect.
type ffmpegDecoder struct {
	path string
}

const (
	ffmpegSampleRate = 16000
	ffmpegChannels   = 1
)

func (f ffmpegDecoder) Name() string { return "ffmpeg" }

func (f ffmpegDecoder) Decode(ctx context.Context, data []byte, det Detection) (*PCM, error) {
	if _, err := exec.LookPath(f.path); err != nil {
		return nil, apperrors.Decode("no decoder available for this audio container").WithCause(err)
	}

	dir, err := os.MkdirTemp("", "digest-audio")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ext := string(det.Format)
	if ext == "" {
		ext = "bin"
	}
	src := filepath.Join(dir, "input."+ext)
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", src,
		"-f", "s16le", "-acodec", "pcm_s16le",
		"-ac", fmt.Sprint(ffmpegChannels), "-ar", fmt.Sprint(ffmpegSampleRate),
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.Env = os.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "ffmpeg could not decode input"
		}
		return nil, apperrors.Decode(msg).WithCause(err)
	}
	if len(out) == 0 {
		return nil, apperrors.Decode("ffmpeg produced no samples")
	}
	return DecodeInt16LE(out, ffmpegSampleRate, ffmpegChannels)
}
