package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"SERVICE_PRINCIPAL", "HTTP_PORT", "GRPC_PORT", "MAX_UPLOAD_BYTES", "LOG_LEVEL", "LOG_FORMAT",
	"STT_PROVIDER", "STT_MODEL", "STT_LANGUAGE", "STT_API_KEY", "STT_TIMEOUT",
	"SUMMARY_PROVIDER", "SUMMARY_MODEL", "SUMMARY_API_KEY", "SUMMARY_MAX_TOKENS",
	"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "FORWARDER_URL", "SOURCE_MAX_BYTES",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL", "STORAGE_BACKEND", "S3_BUCKET",
	"DIGEST_ENV_FILE",
}

func clearEnv() {
	for _, v := range configEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "svc-speech-digest" {
		t.Errorf("expected default principal 'svc-speech-digest', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default http port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.GRPCPort != "50051" {
		t.Errorf("expected default grpc port '50051', got %s", cfg.Service.GRPCPort)
	}
	if cfg.STT.Provider != "openai" {
		t.Errorf("expected default STT provider 'openai', got %s", cfg.STT.Provider)
	}
	if cfg.STT.Model != "whisper-1" {
		t.Errorf("expected default STT model 'whisper-1', got %s", cfg.STT.Model)
	}
	if cfg.STT.APIKey != "" {
		t.Errorf("expected empty STT api key, got %s", cfg.STT.APIKey)
	}
	if cfg.Summary.MaxTokens != 2048 {
		t.Errorf("expected default max tokens 2048, got %d", cfg.Summary.MaxTokens)
	}
	if cfg.Forwarder.URL != "" {
		t.Errorf("expected no forwarder by default, got %s", cfg.Forwarder.URL)
	}
	if cfg.Source.MaxBytes != 200*1024*1024 {
		t.Errorf("expected default source max bytes 200MB, got %d", cfg.Source.MaxBytes)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected kafka disabled by default")
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("expected default storage backend 'local', got %s", cfg.Storage.Backend)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv()
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("STT_PROVIDER", "google")
	os.Setenv("STT_TIMEOUT", "30s")
	os.Setenv("SUMMARY_PROVIDER", "anthropic")
	os.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	os.Setenv("OPENAI_API_KEY", "sk-openai")
	os.Setenv("FORWARDER_URL", "https://forwarder.internal/forward")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	os.Setenv("STORAGE_BACKEND", "s3")
	os.Setenv("S3_BUCKET", "digests")
	defer clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.STT.Provider != "google" {
		t.Errorf("expected STT provider 'google', got %s", cfg.STT.Provider)
	}
	if cfg.STT.Timeout != 30*time.Second {
		t.Errorf("expected STT timeout 30s, got %v", cfg.STT.Timeout)
	}
	if cfg.STT.APIKey != "sk-openai" {
		t.Errorf("expected STT api key to fall back to OPENAI_API_KEY, got %s", cfg.STT.APIKey)
	}
	if cfg.Summary.APIKey != "sk-ant" {
		t.Errorf("expected anthropic summary key, got %s", cfg.Summary.APIKey)
	}
	if cfg.Forwarder.URL != "https://forwarder.internal/forward" {
		t.Errorf("unexpected forwarder url %s", cfg.Forwarder.URL)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Storage.Bucket != "digests" {
		t.Errorf("expected bucket 'digests', got %s", cfg.Storage.Bucket)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv()
	os.Setenv("MAX_UPLOAD_BYTES", "invalid")
	os.Setenv("SUMMARY_MAX_TOKENS", "not-a-number")
	os.Setenv("STT_TIMEOUT", "invalid")
	os.Setenv("KAFKA_ENABLED", "invalid")
	defer clearEnv()

	cfg := Load()

	if cfg.Service.MaxUploadBytes != 100*1024*1024 {
		t.Errorf("expected default max upload bytes on invalid input, got %d", cfg.Service.MaxUploadBytes)
	}
	if cfg.Summary.MaxTokens != 2048 {
		t.Errorf("expected default max tokens on invalid input, got %d", cfg.Summary.MaxTokens)
	}
	if cfg.STT.Timeout != 10*time.Minute {
		t.Errorf("expected default STT timeout on invalid input, got %v", cfg.STT.Timeout)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected default kafka enabled=false on invalid input")
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv()
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	defer clearEnv()

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	clearEnv()
	path := t.TempDir() + "/digest.env"
	if err := os.WriteFile(path, []byte("STT_MODEL=from-file\nGRPC_PORT=7000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Setenv("DIGEST_ENV_FILE", path)
	os.Setenv("GRPC_PORT", "6000")
	defer func() {
		clearEnv()
		os.Unsetenv("STT_MODEL")
	}()

	cfg := Load()

	if cfg.STT.Model != "from-file" {
		t.Errorf("expected STT model from env file, got %s", cfg.STT.Model)
	}
	if cfg.Service.GRPCPort != "6000" {
		t.Errorf("expected real environment to win, got %s", cfg.Service.GRPCPort)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultList(t *testing.T) {
	os.Setenv("TEST_LIST_VAR", " a, ,b ,c")
	defer os.Unsetenv("TEST_LIST_VAR")

	got := envOrDefaultList("TEST_LIST_VAR", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("expected [a b c], got %v", got)
	}
	if def := envOrDefaultList("TEST_LIST_UNSET", []string{"x"}); len(def) != 1 || def[0] != "x" {
		t.Errorf("expected default list, got %v", def)
	}
}
