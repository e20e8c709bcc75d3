// Package audio normalizes arbitrary input audio into the canonical 16-bit PCM WAV
// container handed to transcription providers.
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/observability/metrics"
)

// CanonicalMimeType is the MIME type of every normalized asset.
const CanonicalMimeType = "audio/wav"

// Normalizer decodes input audio and re-encodes it as canonical WAV.
// It holds no per-call state and is safe for concurrent use.
type Normalizer struct {
	decoders map[Format]Decoder
	fallback Decoder
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithFFmpeg enables the ffmpeg fallback decoder at path. An empty path disables it.
func WithFFmpeg(path string) Option {
	return func(n *Normalizer) {
		if path == "" {
			n.fallback = nil
			return
		}
		n.fallback = ffmpegDecoder{path: path}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// NewNormalizer creates a Normalizer with native WAV, MP3, and raw PCM decoders.
// The ffmpeg fallback is off unless WithFFmpeg is given.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		decoders: map[Format]Decoder{
			FormatWAV:    wavDecoder{},
			FormatMP3:    mp3Decoder{},
			FormatRawPCM: rawPCMDecoder{},
		},
		metrics: metrics.DefaultMetrics,
		logger:  logging.WithComponent("normalizer"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes raw into PCM and re-encodes it as canonical WAV. raw is never modified.
// Unparseable input yields a Decode error; unknown channel count or sample rate yields
// an UnsupportedFormat error.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte, declaredMime string) (models.AudioAsset, error) {
	if len(raw) == 0 {
		return models.AudioAsset{}, apperrors.Decode("audio input is empty")
	}

	start := time.Now()
	det := Identify(raw, declaredMime)

	pcm, decoder, err := n.decode(ctx, raw, det)
	if err != nil {
		n.metrics.RecordAudioNormalized(decoder, 0, err)
		n.logger.Warn().
			Err(err).
			Str("format", string(det.Format)).
			Str("declaredMime", declaredMime).
			Int("bytes", len(raw)).
			Msg("Audio decode failed")
		return models.AudioAsset{}, err
	}

	if len(pcm.Channels) == 0 || pcm.SampleRate <= 0 {
		err := apperrors.UnsupportedFormat("channel count or sample rate could not be determined")
		n.metrics.RecordAudioNormalized(decoder, 0, err)
		return models.AudioAsset{}, err
	}

	data, err := EncodeWAV(pcm)
	if err != nil {
		n.metrics.RecordAudioNormalized(decoder, 0, err)
		return models.AudioAsset{}, err
	}
	n.metrics.RecordAudioNormalized(decoder, len(data), nil)

	asset := models.AudioAsset{
		Data:       data,
		MimeType:   CanonicalMimeType,
		Extension:  "wav",
		SampleRate: pcm.SampleRate,
		Channels:   len(pcm.Channels),
		Duration:   pcm.Duration(),
	}

	n.logger.Debug().
		Str("format", string(det.Format)).
		Str("decoder", decoder).
		Int("sampleRate", asset.SampleRate).
		Int("channels", asset.Channels).
		Float64("durationSec", asset.Duration).
		Int("inBytes", len(raw)).
		Int("outBytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Audio normalized")

	return asset, nil
}

// decode runs the native decoder for det, falling back to ffmpeg for unknown containers
// and for decode failures of recognised ones. UnsupportedFormat is never retried.
func (n *Normalizer) decode(ctx context.Context, raw []byte, det Detection) (*PCM, string, error) {
	primary, ok := n.decoders[det.Format]
	if !ok {
		if n.fallback == nil {
			return nil, "none", apperrors.Decode("input is not a supported audio container")
		}
		pcm, err := n.fallback.Decode(ctx, raw, det)
		return pcm, n.fallback.Name(), err
	}

	pcm, err := primary.Decode(ctx, raw, det)
	if err == nil {
		return pcm, primary.Name(), nil
	}
	if apperrors.Is(err, apperrors.CodeUnsupportedFormat) || n.fallback == nil || det.Format == FormatRawPCM {
		if errors.Is(err, errNeedsTranscode) {
			err = apperrors.Decode("audio encoding is not linear PCM")
		}
		return nil, primary.Name(), err
	}

	n.logger.Debug().Err(err).Str("decoder", primary.Name()).Msg("Native decode failed, trying ffmpeg")
	pcm, ffErr := n.fallback.Decode(ctx, raw, det)
	if ffErr != nil {
		if errors.Is(err, errNeedsTranscode) {
			return nil, n.fallback.Name(), ffErr
		}
		return nil, primary.Name(), err
	}
	return pcm, n.fallback.Name(), nil
}
