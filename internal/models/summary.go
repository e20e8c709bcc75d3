package models

// Sentiment is the overall tone reported for a recording.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Sentiments lists the accepted sentiment values in match order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed}

// ParseSentiment returns the sentiment named by s, or neutral when s is not one of Sentiments.
func ParseSentiment(s string) Sentiment {
	for _, v := range Sentiments {
		if string(v) == s {
			return v
		}
	}
	return SentimentNeutral
}

// SummaryResult is the structured analysis of a transcript.
type SummaryResult struct {
	Summary      string    `json:"summary"`
	KeyPoints    []string  `json:"keyPoints"`
	Topics       []string  `json:"topics"`
	Sentiment    Sentiment `json:"sentiment"`
	ActionItems  []string  `json:"actionItems"`
	Participants []string  `json:"participants"`
}
