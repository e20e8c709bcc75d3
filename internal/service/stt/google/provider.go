// Package google provides a Google Cloud Speech-to-Text provider.
package google

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/service/stt"
)

const providerName = "google"

// Config holds Google Speech-to-Text settings.
type Config struct {
	LanguageCode  string
	Model         string // e.g. "latest_long", "phone_call"; empty uses the API default
	AudioEncoding string
	Punctuation   bool
}

// DefaultConfig returns sensible defaults for recorded meetings.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "en-US",
		AudioEncoding: "LINEAR16",
		Punctuation:   true,
	}
}

// Provider implements stt.Provider using long-running recognition.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
type Provider struct {
	client *speech.Client
	cfg    Config
	logger zerolog.Logger
}

// New creates a new Google STT provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, apperrors.Configuration("google speech client could not be created").
			WithDetail("provider", providerName).
			WithCause(err)
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = DefaultConfig().LanguageCode
	}
	return &Provider{client: c, cfg: cfg, logger: logging.WithProvider("stt", providerName)}, nil
}

// Name implements stt.Provider.
func (p *Provider) Name() string { return providerName }

// Close releases the underlying gRPC connection.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Transcribe implements stt.Provider. Canonical WAV is sent inline as LINEAR16; the API
// reads the container header.
func (p *Provider) Transcribe(ctx context.Context, req *stt.Request) (*stt.Response, error) {
	op, err := p.client.LongRunningRecognize(ctx, p.buildRequest(req))
	if err != nil {
		p.logger.Error().Err(err).Msg("LongRunningRecognize failed")
		return nil, apperrors.Provider(providerName, "recognition request failed").WithCause(err)
	}

	resp, err := op.Wait(ctx)
	if err != nil {
		p.logger.Error().Err(err).Str("operation", op.Name()).Msg("Recognition operation failed")
		return nil, apperrors.Provider(providerName, "recognition operation failed").WithCause(err)
	}

	out := responseFromResults(resp.GetResults())
	if out.Language == "" {
		out.Language = languageOrDefault(req.Language, p.cfg.LanguageCode)
	}
	return out, nil
}

func (p *Provider) buildRequest(req *stt.Request) *speechpb.LongRunningRecognizeRequest {
	cfg := &speechpb.RecognitionConfig{
		Encoding:                   parseAudioEncoding(p.cfg.AudioEncoding),
		SampleRateHertz:            int32(req.SampleRate),
		AudioChannelCount:          int32(req.Channels),
		LanguageCode:               languageOrDefault(req.Language, p.cfg.LanguageCode),
		EnableAutomaticPunctuation: p.cfg.Punctuation,
		Model:                      p.cfg.Model,
	}
	return &speechpb.LongRunningRecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: req.Audio},
		},
	}
}

// responseFromResults turns recognition results into segments. Each result spans from the
// previous result's end offset to its own.
func responseFromResults(results []*speechpb.SpeechRecognitionResult) *stt.Response {
	out := &stt.Response{Segments: make([]stt.Segment, 0, len(results))}
	var texts []string
	prevEnd := 0.0
	for _, r := range results {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		text := strings.TrimSpace(r.GetAlternatives()[0].GetTranscript())
		end := prevEnd
		if r.GetResultEndTime() != nil {
			end = r.GetResultEndTime().AsDuration().Seconds()
		}
		if end < prevEnd {
			end = prevEnd
		}
		if text != "" {
			out.Segments = append(out.Segments, stt.Segment{Start: prevEnd, End: end, Text: text})
			texts = append(texts, text)
		}
		if out.Language == "" {
			out.Language = r.GetLanguageCode()
		}
		prevEnd = end
	}
	out.Text = strings.Join(texts, " ")
	return out
}

func languageOrDefault(lang, def string) string {
	if lang != "" {
		return lang
	}
	return def
}

// parseAudioEncoding converts a string encoding name to the protobuf enum.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
