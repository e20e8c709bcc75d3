package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration holds all service settings. Provider credentials live here and are
// handed to constructors explicitly.
type Configuration struct {
	Service       ServiceConfig
	Audio         AudioConfig
	STT           STTConfig
	Summary       SummaryConfig
	Forwarder     ForwarderConfig
	Source        SourceConfig
	Kafka         KafkaConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Principal      string
	HTTPPort       string
	GRPCPort       string
	MaxUploadBytes int64
}

// AudioConfig controls the normalizer. An empty FFmpegPath disables the ffmpeg fallback decoder.
type AudioConfig struct {
	FFmpegPath string
}

type STTConfig struct {
	Provider string // openai, google, mock
	Model    string
	Language string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

type SummaryConfig struct {
	Provider  string // openai, anthropic, mock
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

// ForwarderConfig selects the outbound request strategy. An empty URL means direct calls.
type ForwarderConfig struct {
	URL     string
	Timeout time.Duration
}

type SourceConfig struct {
	MaxBytes int64
	Timeout  time.Duration
}

type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	TopicStage  string
	TopicResult string
	Principal   string
}

type StorageConfig struct {
	Backend        string // local, s3
	Dir            string
	Bucket         string
	Region         string
	Endpoint       string
	Prefix         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads .env files (without overriding the real environment) and builds the configuration.
func Load() *Configuration {
	loadEnvFiles()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-speech-digest")

	return &Configuration{
		Service: ServiceConfig{
			Principal:      principal,
			HTTPPort:       envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:       envOrDefault("GRPC_PORT", "50051"),
			MaxUploadBytes: envOrDefaultInt64("MAX_UPLOAD_BYTES", 100*1024*1024),
		},
		Audio: AudioConfig{
			FFmpegPath: ffmpegPath(),
		},
		STT: STTConfig{
			Provider: envOrDefault("STT_PROVIDER", "openai"),
			Model:    envOrDefault("STT_MODEL", "whisper-1"),
			Language: envOrDefault("STT_LANGUAGE", ""),
			BaseURL:  envOrDefault("STT_BASE_URL", ""),
			APIKey:   envOrDefault("STT_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Timeout:  envOrDefaultDuration("STT_TIMEOUT", 10*time.Minute),
		},
		Summary: SummaryConfig{
			Provider:  envOrDefault("SUMMARY_PROVIDER", "openai"),
			Model:     envOrDefault("SUMMARY_MODEL", ""),
			BaseURL:   envOrDefault("SUMMARY_BASE_URL", ""),
			APIKey:    summaryAPIKey(envOrDefault("SUMMARY_PROVIDER", "openai")),
			MaxTokens: envOrDefaultInt("SUMMARY_MAX_TOKENS", 2048),
			Timeout:   envOrDefaultDuration("SUMMARY_TIMEOUT", 2*time.Minute),
		},
		Forwarder: ForwarderConfig{
			URL:     envOrDefault("FORWARDER_URL", ""),
			Timeout: envOrDefaultDuration("FORWARDER_TIMEOUT", 10*time.Minute),
		},
		Source: SourceConfig{
			MaxBytes: envOrDefaultInt64("SOURCE_MAX_BYTES", 200*1024*1024),
			Timeout:  envOrDefaultDuration("SOURCE_TIMEOUT", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:     envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:     envOrDefaultList("KAFKA_BROKERS", nil),
			TopicStage:  envOrDefault("KAFKA_TOPIC_STAGE", "digest.submission.stage"),
			TopicResult: envOrDefault("KAFKA_TOPIC_RESULT", "digest.submission.completed"),
			Principal:   envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Storage: StorageConfig{
			Backend:        envOrDefault("STORAGE_BACKEND", "local"),
			Dir:            envOrDefault("STORAGE_DIR", "./data/results"),
			Bucket:         envOrDefault("S3_BUCKET", ""),
			Region:         envOrDefault("S3_REGION", "us-east-1"),
			Endpoint:       envOrDefault("S3_ENDPOINT", ""),
			Prefix:         envOrDefault("S3_PREFIX", "results/"),
			AccessKey:      envOrDefault("S3_ACCESS_KEY", ""),
			SecretKey:      envOrDefault("S3_SECRET_KEY", ""),
			ForcePathStyle: envOrDefaultBool("S3_FORCE_PATH_STYLE", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

// loadEnvFiles loads DIGEST_ENV_FILE and ./.env when present. godotenv.Load never
// overrides variables that are already set.
func loadEnvFiles() {
	for _, p := range []string{os.Getenv("DIGEST_ENV_FILE"), ".env"} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ffmpegPath returns AUDIO_FFMPEG_PATH, "ffmpeg" when unset, and "" when set to "off".
func ffmpegPath() string {
	v := envOrDefault("AUDIO_FFMPEG_PATH", "ffmpeg")
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

func summaryAPIKey(provider string) string {
	if v := os.Getenv("SUMMARY_API_KEY"); v != "" {
		return v
	}
	if strings.EqualFold(provider, "anthropic") {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
