package summary

import (
	"context"
	"fmt"
	"strings"
)

// Generator defines the interface for generative summary providers (OpenAI, Anthropic, mock).
type Generator interface {
	// Name identifies the provider in logs, metrics, and errors.
	Name() string

	// Generate sends one prompt and returns the provider's free-form answer.
	// A missing credential is a configuration error raised before any request.
	Generate(ctx context.Context, prompt string) (string, error)
}

// SystemPrompt is the instruction sent ahead of the user prompt by chat-style generators.
const SystemPrompt = "You analyze conversation transcripts and answer with a single JSON object and nothing else."

// BuildPrompt asks for the JSON object shape the interpreter understands,
// with the known speaker labels as context.
func BuildPrompt(transcriptText string, speakers []string) string {
	speakerList := "unknown"
	if len(speakers) > 0 {
		speakerList = strings.Join(speakers, ", ")
	}

	var b strings.Builder
	b.WriteString("Analyze the following transcript. Respond with one JSON object using exactly these keys:\n")
	b.WriteString("{\n")
	b.WriteString(`  "summary": "a concise paragraph describing the conversation",` + "\n")
	b.WriteString(`  "keyPoints": ["the most important points, one per entry"],` + "\n")
	b.WriteString(`  "topics": ["short topic labels"],` + "\n")
	b.WriteString(`  "sentiment": "one of positive, negative, neutral, mixed",` + "\n")
	b.WriteString(`  "actionItems": ["follow-up tasks mentioned, empty if none"],` + "\n")
	b.WriteString(`  "participants": ["names or labels of the people speaking"]` + "\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "Speakers: %s\n\n", speakerList)
	b.WriteString("Transcript:\n")
	b.WriteString(transcriptText)
	return b.String()
}
