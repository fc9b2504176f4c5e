// Package stance asks a language model how one document relates to a claim
// and turns the answer into a validated, tagged judgment.
package stance

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/newsguard/internal/llm"
	"github.com/ppiankov/newsguard/internal/model"
)

const (
	defaultMaxInputChars = 6000
	defaultMaxTokens     = 400
	maxRationaleRunes    = 600
)

const systemPrompt = `You are a careful fact-checking assistant. You judge how a single document relates to a news claim. You only use the document, never outside knowledge. Respond with one JSON object and nothing else.`

var promptTemplate = template.Must(template.New("stance").Parse(`Claim:
"{{.Claim}}"

Document from {{.Domain}}{{with .Title}} titled "{{.}}"{{end}}:
"""
{{.Text}}
"""

Classify the document's stance toward the claim:
- "supports": the document states or shows that the claim is true.
- "refutes": the document states or shows that the claim is false.
- "unrelated": the document does not address the claim.
- "unknown": the document addresses the claim but takes no clear position.

Output requirements:
- Respond ONLY with a single valid JSON object.
- Do NOT use Markdown formatting, code blocks, or backticks.
- Keys: "stance" (one of supports, refutes, unrelated, unknown), "confidence" (number from 0 to 1), "rationale" (one or two sentences).
`))

type promptData struct {
	Claim  string
	Domain string
	Title  string
	Text   string
}

// judgeResponse is the JSON shape the model must return. Confidence is a
// pointer so a missing value is distinguishable from 0.
type judgeResponse struct {
	Stance     string   `json:"stance" validate:"required,oneof=supports refutes unrelated unknown"`
	Confidence *float64 `json:"confidence" validate:"required,min=0,max=1"`
	Rationale  string   `json:"rationale" validate:"required"`
}

// Judge classifies document stance with one model call per document.
// It is safe for concurrent use.
type Judge struct {
	provider      llm.Provider
	validate      *validator.Validate
	maxInputChars int
	maxTokens     int
	temperature   float64
}

// New creates a Judge over provider using the LLM settings in cfg.
func New(provider llm.Provider, cfg model.LLMConfig) *Judge {
	j := &Judge{
		provider:      provider,
		validate:      validator.New(),
		maxInputChars: cfg.MaxInputChars,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
	}
	if j.maxInputChars <= 0 {
		j.maxInputChars = defaultMaxInputChars
	}
	if j.maxTokens <= 0 {
		j.maxTokens = defaultMaxTokens
	}
	return j
}

// Judge returns exactly one judgment for doc. Model failures and
// unparseable answers are reported through the judgment's status with
// stance unknown and confidence 0; Judge never returns an error.
func (j *Judge) Judge(ctx context.Context, claim model.Claim, doc model.Document) model.StanceJudgment {
	ref := doc.Ref()
	if !doc.OK() || strings.TrimSpace(doc.Text) == "" {
		return model.FailedJudgment(ref, model.JudgeModelError, "document has no extracted text")
	}

	prompt, err := BuildPrompt(claim, doc, j.maxInputChars)
	if err != nil {
		return model.FailedJudgment(ref, model.JudgeModelError, err.Error())
	}

	resp, err := j.provider.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   j.maxTokens,
		Temperature: j.temperature,
		JSON:        true,
	})
	if err != nil {
		zap.L().Debug("stance model call failed", zap.String("url", ref.URL), zap.Error(err))
		return model.FailedJudgment(ref, model.JudgeModelError, err.Error())
	}

	parsed, err := j.Parse(resp.Text)
	if err != nil {
		zap.L().Debug("stance output rejected",
			zap.String("url", ref.URL),
			zap.Int("response_length", len(resp.Text)),
			zap.Error(err),
		)
		return model.FailedJudgment(ref, model.JudgeMalformedOutput, err.Error())
	}

	parsed.Ref = ref
	return parsed
}

// Parse validates a raw model answer. The returned judgment has no Ref.
func (j *Judge) Parse(raw string) (model.StanceJudgment, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return model.StanceJudgment{}, eris.Errorf("no JSON object in model output (%d chars)", len(raw))
	}

	var out judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return model.StanceJudgment{}, eris.Wrap(err, "decode model output")
	}

	out.Stance = strings.ToLower(strings.TrimSpace(out.Stance))
	out.Rationale = strings.TrimSpace(out.Rationale)
	if err := j.validate.Struct(out); err != nil {
		return model.StanceJudgment{}, eris.Wrap(err, "invalid model output")
	}

	stance, _ := model.ParseStance(out.Stance)
	return model.StanceJudgment{
		Stance:     stance,
		Confidence: *out.Confidence,
		Rationale:  truncate(out.Rationale, maxRationaleRunes),
		Status:     model.JudgeOK,
	}, nil
}

// BuildPrompt renders the user prompt for one document, truncating its text
// to maxChars runes.
func BuildPrompt(claim model.Claim, doc model.Document, maxChars int) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, promptData{
		Claim:  claim.Text,
		Domain: doc.Domain,
		Title:  doc.Candidate.Title,
		Text:   truncate(doc.Text, maxChars),
	})
	if err != nil {
		return "", eris.Wrap(err, "render prompt")
	}
	return buf.String(), nil
}

// extractJSON pulls the first JSON object out of a response that may wrap
// it in code fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if start := strings.Index(response, "```"); start != -1 {
		body := response[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl != -1 {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end != -1 {
			if candidate := strings.TrimSpace(body[:end]); strings.HasPrefix(candidate, "{") {
				response = candidate
			}
		}
	}

	start := strings.IndexByte(response, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
