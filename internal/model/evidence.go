package model

// Candidate is a single search hit
type Candidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"` // 1-based retrieval order, used only as a tie-break
}

// ExtractionStatus records how content extraction went for one candidate
type ExtractionStatus string

const (
	ExtractionOK          ExtractionStatus = "ok"
	ExtractionFetchFailed ExtractionStatus = "fetch_failed"
	ExtractionParseFailed ExtractionStatus = "parse_failed"
	ExtractionExcluded    ExtractionStatus = "excluded" // Too thin to judge, or disallowed
)

// Document is the extraction outcome for one candidate
type Document struct {
	Candidate       Candidate        `json:"candidate"`
	Domain          string           `json:"domain"`
	Text            string           `json:"-"` // Kept out of exported records
	MetaDescription string           `json:"meta_description,omitempty"`
	Status          ExtractionStatus `json:"extraction_status"`
	Error           string           `json:"error,omitempty"`
}

// OK reports whether the document has usable extracted text
func (d Document) OK() bool {
	return d.Status == ExtractionOK
}

// Ref returns the identity of the document used by trust scores and judgments
func (d Document) Ref() DocumentRef {
	return DocumentRef{
		URL:    d.Candidate.URL,
		Title:  d.Candidate.Title,
		Domain: d.Domain,
		Rank:   d.Candidate.Rank,
		Status: d.Status,
	}
}

// DocumentRef identifies a Document from derived records
type DocumentRef struct {
	URL    string           `json:"url"`
	Title  string           `json:"title,omitempty"`
	Domain string           `json:"domain"`
	Rank   int              `json:"rank"`
	Status ExtractionStatus `json:"extraction_status"`
}

// TrustScore is the heuristic reliability weight of a document's source
type TrustScore struct {
	Ref    DocumentRef `json:"document"`
	Weight float64     `json:"weight"` // [0,1]
	Tags   []string    `json:"rationale_tags"`
}

// Stance is a document's relationship to the claim
type Stance string

const (
	StanceSupports  Stance = "supports"
	StanceRefutes   Stance = "refutes"
	StanceUnrelated Stance = "unrelated"
	StanceUnknown   Stance = "unknown"
)

// Sign maps a stance onto the aggregation axis
func (s Stance) Sign() float64 {
	switch s {
	case StanceSupports:
		return 1
	case StanceRefutes:
		return -1
	default:
		return 0
	}
}

// ParseStance returns the stance for an exact enum spelling
func ParseStance(s string) (Stance, bool) {
	switch Stance(s) {
	case StanceSupports, StanceRefutes, StanceUnrelated, StanceUnknown:
		return Stance(s), true
	default:
		return StanceUnknown, false
	}
}

// JudgeStatus is the tagged outcome of a stance judgment
type JudgeStatus string

const (
	JudgeOK              JudgeStatus = "ok"
	JudgeModelError      JudgeStatus = "model_error"
	JudgeMalformedOutput JudgeStatus = "malformed_output"
)

// StanceJudgment is the language-model stance classification of one document
type StanceJudgment struct {
	Ref        DocumentRef `json:"document"`
	Stance     Stance      `json:"stance"`
	Confidence float64     `json:"confidence"` // [0,1]
	Rationale  string      `json:"rationale,omitempty"`
	Status     JudgeStatus `json:"judge_status"`
	Error      string      `json:"error,omitempty"`
}

// FailedJudgment builds a judgment for a document whose judge call did not complete
func FailedJudgment(ref DocumentRef, status JudgeStatus, reason string) StanceJudgment {
	return StanceJudgment{
		Ref:        ref,
		Stance:     StanceUnknown,
		Confidence: 0,
		Status:     status,
		Error:      reason,
	}
}
