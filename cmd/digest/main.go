// Digest runs the pipeline locally on an audio file or URL and writes the text and JSON
// exports next to each other.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"speech-digest-service/internal/app"
	"speech-digest-service/internal/config"
	"speech-digest-service/internal/export"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/service/digest"
	"speech-digest-service/internal/service/pipeline"
)

func main() {
	audioFile := flag.String("file", "", "Path to an audio file")
	remoteURL := flag.String("url", "", "URL of a remote recording")
	outDir := flag.String("out", ".", "Directory for the exports")
	sttProvider := flag.String("stt", "", "Override STT_PROVIDER (openai, google, mock)")
	summaryProvider := flag.String("summary", "", "Override SUMMARY_PROVIDER (openai, anthropic, mock)")
	flag.Parse()

	if (*audioFile == "") == (*remoteURL == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -url is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if *sttProvider != "" {
		cfg.STT.Provider = *sttProvider
	}
	if *summaryProvider != "" {
		cfg.Summary.Provider = *summaryProvider
	}
	logging.Init(logging.Config{Level: cfg.Observability.LogLevel, Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator, closers, err := app.BuildOrchestrator(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build pipeline")
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	var sub pipeline.Submission
	if *audioFile != "" {
		data, err := os.ReadFile(*audioFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", *audioFile).Msg("Failed to read audio file")
		}
		sub = pipeline.FileSubmission{FileName: filepath.Base(*audioFile), Data: data}
	} else {
		sub = pipeline.RemoteSubmission{URL: *remoteURL}
	}

	result, err := digest.New(orchestrator, nil, nil).Submit(ctx, sub)
	if err != nil {
		log.Fatal().Err(err).Msg("Submission failed")
	}

	if err := writeExports(*outDir, result); err != nil {
		log.Fatal().Err(err).Msg("Failed to write exports")
	}

	fmt.Println(result.Summary)
	for _, kp := range result.KeyPoints {
		fmt.Printf("  • %s\n", kp)
	}
}

func writeExports(dir string, result *models.ProcessingResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	stem := filepath.Join(dir, export.FileStem(result))

	data, err := export.JSON(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(stem+".json", data, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(stem+".txt", []byte(export.Text(result, result.CreatedAt)), 0o644); err != nil {
		return err
	}
	log.Info().Str("json", stem+".json").Str("text", stem+".txt").Msg("Exports written")
	return nil
}
