package summary

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"speech-digest-service/internal/models"
)

// Placeholders used when a response yields nothing usable.
const (
	FallbackSummary  = "Summary could not be generated."
	FallbackKeyPoint = "Key points could not be extracted."
	FallbackTopic    = "General discussion"
)

// Path names the interpretation strategy that produced a result.
type Path string

const (
	PathJSON     Path = "json"
	PathSections Path = "sections"
	PathFallback Path = "fallback"
)

// Kind tags an Interpretation.
type Kind int

const (
	// Unparsed means the strategy found nothing; Raw is handed to the next one.
	Unparsed Kind = iota
	// Parsed means Result is populated.
	Parsed
)

// Interpretation is the outcome of one parsing strategy.
type Interpretation struct {
	Kind   Kind
	Path   Path
	Result models.SummaryResult
	Raw    string
}

func unparsed(raw string) Interpretation {
	return Interpretation{Kind: Unparsed, Raw: raw}
}

// Interpret runs the JSON strategy, then the section heuristic, then the fallback record.
// It never fails.
func Interpret(raw string, speakers []string) (models.SummaryResult, Path) {
	in := ParseJSON(raw, speakers)
	if in.Kind == Unparsed {
		in = ParseSections(in.Raw, speakers)
	}
	if in.Kind == Unparsed {
		return Fallback(speakers), PathFallback
	}
	return in.Result, in.Path
}

// Fallback is the record returned when no strategy recognises the response.
func Fallback(speakers []string) models.SummaryResult {
	return models.SummaryResult{
		Summary:      FallbackSummary,
		KeyPoints:    []string{FallbackKeyPoint},
		Topics:       []string{FallbackTopic},
		Sentiment:    models.SentimentNeutral,
		ActionItems:  []string{},
		Participants: copyStrings(speakers),
	}
}

// Greedy on purpose: first '{' to last '}'.
var braceBlock = regexp.MustCompile(`(?s)\{.*\}`)

// ParseJSON decodes the outermost brace block of raw. Array fields that are missing or not
// arrays become empty, an unknown sentiment becomes neutral, and missing participants
// default to speakers.
func ParseJSON(raw string, speakers []string) Interpretation {
	block := braceBlock.FindString(raw)
	if block == "" {
		return unparsed(raw)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(block), &obj); err != nil {
		return unparsed(raw)
	}

	result := models.SummaryResult{
		Summary:     strings.TrimSpace(stringify(obj["summary"])),
		KeyPoints:   stringList(obj["keyPoints"]),
		Topics:      stringList(obj["topics"]),
		Sentiment:   models.ParseSentiment(strings.ToLower(strings.TrimSpace(stringify(obj["sentiment"])))),
		ActionItems: stringList(obj["actionItems"]),
	}
	if _, ok := obj["participants"].([]any); ok {
		result.Participants = stringList(obj["participants"])
	} else {
		result.Participants = copyStrings(speakers)
	}
	return Interpretation{Kind: Parsed, Path: PathJSON, Result: result}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(stringify(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionKeyPoints
	sectionTopics
	sectionSentiment
	sectionActions
)

// Checked in order; the first marker contained in a line wins.
var sectionMarkers = []struct {
	marker  string
	section section
}{
	{"summary", sectionSummary},
	{"key points", sectionKeyPoints},
	{"takeaways", sectionKeyPoints},
	{"topics", sectionTopics},
	{"sentiment", sectionSentiment},
	{"action", sectionActions},
}

var bulletPrefixes = []string{"-", "•"}

type sectionParser struct {
	current       section
	summary       []string
	keyPoints     []string
	topics        []string
	actions       []string
	sentiment     models.Sentiment
	haveSentiment bool
}

// ParseSections reads raw line by line as headed sections. A non-bullet line containing a
// marker switches the current section, and any text after its first ':' counts as content
// of that section. Plain lines feed the summary section, bullets feed the list sections,
// and the first sentiment word found in the sentiment section is adopted. Missing summary,
// key points, or topics get their placeholder.
func ParseSections(raw string, speakers []string) Interpretation {
	p := &sectionParser{}
	for _, line := range strings.Split(raw, "\n") {
		p.line(strings.TrimSpace(line))
	}
	if p.empty() {
		return unparsed(raw)
	}

	result := models.SummaryResult{
		Summary:      strings.Join(p.summary, " "),
		KeyPoints:    p.keyPoints,
		Topics:       p.topics,
		Sentiment:    models.SentimentNeutral,
		ActionItems:  p.actions,
		Participants: copyStrings(speakers),
	}
	if p.haveSentiment {
		result.Sentiment = p.sentiment
	}
	if result.Summary == "" {
		result.Summary = FallbackSummary
	}
	if len(result.KeyPoints) == 0 {
		result.KeyPoints = []string{FallbackKeyPoint}
	}
	if len(result.Topics) == 0 {
		result.Topics = []string{FallbackTopic}
	}
	if result.ActionItems == nil {
		result.ActionItems = []string{}
	}
	return Interpretation{Kind: Parsed, Path: PathSections, Result: result}
}

func (p *sectionParser) line(line string) {
	if line == "" {
		return
	}
	if item, ok := bulletItem(line); ok {
		p.bullet(item)
		return
	}
	if s, ok := markerSection(line); ok {
		p.current = s
		if i := strings.Index(line, ":"); i >= 0 {
			if rest := strings.Trim(line[i+1:], " \t*_#"); rest != "" {
				p.headed(rest)
			}
		} else if s == sectionSentiment {
			p.findSentiment(line)
		}
		return
	}
	p.plain(line)
}

// plain handles a line that is neither a bullet nor a marker. List sections ignore it.
func (p *sectionParser) plain(text string) {
	switch p.current {
	case sectionSummary:
		p.summary = append(p.summary, text)
	case sectionSentiment:
		p.findSentiment(text)
	}
}

// headed handles the text following a marker, which list sections keep as an item.
func (p *sectionParser) headed(text string) {
	switch p.current {
	case sectionKeyPoints, sectionTopics, sectionActions:
		p.bullet(text)
	default:
		p.plain(text)
	}
}

func (p *sectionParser) bullet(item string) {
	if item == "" {
		return
	}
	switch p.current {
	case sectionKeyPoints:
		p.keyPoints = append(p.keyPoints, item)
	case sectionTopics:
		p.topics = append(p.topics, item)
	case sectionActions:
		p.actions = append(p.actions, item)
	case sectionSentiment:
		p.findSentiment(item)
	}
}

func (p *sectionParser) findSentiment(text string) {
	if p.haveSentiment {
		return
	}
	if s, ok := firstSentiment(text); ok {
		p.sentiment = s
		p.haveSentiment = true
	}
}

func (p *sectionParser) empty() bool {
	return len(p.summary) == 0 && len(p.keyPoints) == 0 && len(p.topics) == 0 &&
		len(p.actions) == 0 && !p.haveSentiment
}

func bulletItem(line string) (string, bool) {
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

func markerSection(line string) (section, bool) {
	lower := strings.ToLower(line)
	for _, m := range sectionMarkers {
		if strings.Contains(lower, m.marker) {
			return m.section, true
		}
	}
	return sectionNone, false
}

// firstSentiment returns the sentiment word occurring earliest in text.
func firstSentiment(text string) (models.Sentiment, bool) {
	lower := strings.ToLower(text)
	best, bestAt := models.Sentiment(""), -1
	for _, s := range models.Sentiments {
		if at := strings.Index(lower, string(s)); at >= 0 && (bestAt < 0 || at < bestAt) {
			best, bestAt = s, at
		}
	}
	return best, bestAt >= 0
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
