package models

// StageEvent is published each time a submission enters a new pipeline stage.
type StageEvent struct {
	EventType    string `json:"eventType"`
	SubmissionID string `json:"submissionId"`
	Principal    string `json:"principal"`
	Stage        string `json:"stage"`
	Timestamp    int64  `json:"timestamp"`
}

// ResultEvent carries a completed ProcessingResult.
type ResultEvent struct {
	EventType    string            `json:"eventType"`
	SubmissionID string            `json:"submissionId"`
	Principal    string            `json:"principal"`
	Timestamp    int64             `json:"timestamp"`
	Result       *ProcessingResult `json:"result"`
}
