package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"speech-digest-service/internal/models"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "Service base URL")
	audioFile := flag.String("audio", "testdata/sample.wav", "Audio file to upload")
	remoteURL := flag.String("url", "", "Submit this URL instead of uploading a file")
	timeout := flag.Duration("timeout", 10*time.Minute, "Request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var req *http.Request
	var err error
	if *remoteURL != "" {
		body, _ := json.Marshal(map[string]string{"url": *remoteURL})
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, *server+"/v1/submissions/remote", bytes.NewReader(body))
		if err != nil {
			log.Fatalf("failed to build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		log.Printf("Submitting %s", *remoteURL)
	} else {
		req, err = uploadRequest(ctx, *server, *audioFile)
		if err != nil {
			log.Fatalf("failed to build upload: %v", err)
		}
		log.Printf("Uploading %s", *audioFile)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("submission failed (%d): %s", resp.StatusCode, body)
	}

	var result models.ProcessingResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("failed to decode result: %v", err)
	}

	log.Printf("Completed in %v: id=%s duration=%s participants=%d sentiment=%s",
		time.Since(start).Round(time.Millisecond), result.ID, result.Duration, result.Participants, result.Sentiment)
	log.Printf("Summary: %s", result.Summary)
	for _, kp := range result.KeyPoints {
		log.Printf("  • %s", kp)
	}
	log.Printf("Text export: %s/v1/results/%s/text", *server, result.ID)
}

func uploadRequest(ctx context.Context, server, path string) (*http.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/v1/submissions/file", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}
