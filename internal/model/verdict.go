package model

import "time"

// Label is the overall credibility verdict
type Label string

const (
	LabelReliable          Label = "Reliable"
	LabelUnreliable        Label = "Unreliable"
	LabelMixed             Label = "Mixed"
	LabelNotEnoughEvidence Label = "NotEnoughEvidence"
)

// Verdict is the terminal output of the pipeline
type Verdict struct {
	Label       Label       `json:"label"`
	Score       float64     `json:"score"` // [0,100]
	Explanation string      `json:"explanation"`
	TopSources  []SourceRef `json:"top_sources"`
	Coverage    Coverage    `json:"coverage"`
}

// SourceRef is one entry of the verdict's top sources
type SourceRef struct {
	URL        string  `json:"url"`
	Title      string  `json:"title,omitempty"`
	Weight     float64 `json:"weight"`
	Stance     Stance  `json:"stance"`
	Confidence float64 `json:"confidence"`
}

// Coverage counts how much of the retrieved evidence made it into the verdict
type Coverage struct {
	Candidates    int `json:"candidates"`
	Extracted     int `json:"extracted"`
	Judged        int `json:"judged"`
	Usable        int `json:"usable"`
	Unreadable    int `json:"unreadable"`     // fetch_failed + parse_failed
	Excluded      int `json:"excluded"`       // too thin or disallowed
	JudgeFailures int `json:"judge_failures"` // model_error + malformed_output
}

// Ratio is the fraction of candidates that produced usable evidence
func (c Coverage) Ratio() float64 {
	if c.Candidates == 0 {
		return 0
	}
	return float64(c.Usable) / float64(c.Candidates)
}

// Analysis is the full record of one pipeline run, as exported to reports
type Analysis struct {
	RequestID      string           `json:"request_id"`
	Claim          Claim            `json:"claim"`
	CheckedAt      time.Time        `json:"checked_at"`
	Elapsed        Duration         `json:"elapsed"`
	RetrievalError string           `json:"retrieval_error,omitempty"`
	Candidates     []Candidate      `json:"candidates"`
	Documents      []Document       `json:"documents"`
	Trust          []TrustScore     `json:"trust_scores"`
	Judgments      []StanceJudgment `json:"stance_judgments"`
	Verdict        Verdict          `json:"verdict"`
	TrustTable     string           `json:"trust_table_version,omitempty"`
	Provider       string           `json:"llm_provider,omitempty"`
	Model          string           `json:"llm_model,omitempty"`
}

// Duration marshals as a human-readable string
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).Round(time.Millisecond).String()
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
