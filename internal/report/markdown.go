package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/ppiankov/newsguard/internal/model"
)

// MarkdownWriter outputs a shareable Markdown report.
type MarkdownWriter struct {
	baseWriter
	verbose bool
	footer  bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithDetails adds every judge rationale as a collapsible section.
func WithDetails(verbose bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) { w.verbose = verbose }
}

// WithFooter toggles the generated-by footer.
func WithFooter(footer bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) { w.footer = footer }
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{baseWriter: newBaseWriter(output), footer: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(a *model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, a)
	w.writeVerdict(md, a)
	w.writeTopSources(md, a)
	w.writeEvidence(md, a)
	if w.footer {
		w.writeFooter(md)
	}

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, a *model.Analysis) {
	md.H1("Credibility Report")
	md.PlainText("")

	rows := [][]string{
		{"Claim", escapeCell(a.Claim.Text)},
		{"Checked", a.CheckedAt.Format("2006-01-02 15:04:05 MST")},
		{"Request ID", "`" + a.RequestID + "`"},
	}
	if a.Provider != "" {
		rows = append(rows, []string{"Judge model", a.Provider + " / " + a.Model})
	}
	if a.TrustTable != "" {
		rows = append(rows, []string{"Trust table", a.TrustTable})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, a *model.Analysis) {
	v := a.Verdict
	md.H2("Verdict")
	md.PlainText("")

	headline := fmt.Sprintf("%s, score %.2f/100", v.Label, v.Score)
	switch v.Label {
	case model.LabelReliable:
		md.Tip(headline)
	case model.LabelUnreliable:
		md.Caution(headline)
	case model.LabelMixed:
		md.Warning(headline)
	default:
		md.Note(headline)
	}
	md.PlainText("")

	for _, line := range strings.Split(v.Explanation, "\n") {
		md.PlainText(line)
	}
	md.PlainText("")

	if a.RetrievalError != "" {
		md.PlainTextf("Search error: `%s`", a.RetrievalError)
		md.PlainText("")
	}

	cov := v.Coverage
	md.Table(markdown.TableSet{
		Header: []string{"Candidates", "Extracted", "Judged", "Usable", "Unreadable", "Excluded", "Judge failures"},
		Rows: [][]string{{
			strconv.Itoa(cov.Candidates),
			strconv.Itoa(cov.Extracted),
			strconv.Itoa(cov.Judged),
			strconv.Itoa(cov.Usable),
			strconv.Itoa(cov.Unreadable),
			strconv.Itoa(cov.Excluded),
			strconv.Itoa(cov.JudgeFailures),
		}},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTopSources(md *markdown.Markdown, a *model.Analysis) {
	md.H2("Top Sources")
	md.PlainText("")

	if len(a.Verdict.TopSources) == 0 {
		md.PlainText("No usable sources.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(a.Verdict.TopSources))
	for i, s := range a.Verdict.TopSources {
		title := s.Title
		if title == "" {
			title = s.URL
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			markdown.Link(escapeCell(truncateString(title, 70)), s.URL),
			string(s.Stance),
			fmt.Sprintf("%.2f", s.Confidence),
			fmt.Sprintf("%.2f", s.Weight),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Source", "Stance", "Confidence", "Trust"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeEvidence(md *markdown.Markdown, a *model.Analysis) {
	if len(a.Documents) == 0 {
		return
	}

	md.H2("All Evidence")
	md.PlainText("")

	judgments := make(map[string]model.StanceJudgment, len(a.Judgments))
	for _, j := range a.Judgments {
		judgments[j.Ref.URL] = j
	}
	weights := make(map[string]model.TrustScore, len(a.Trust))
	for _, t := range a.Trust {
		weights[t.Ref.URL] = t
	}

	rows := make([][]string, len(a.Documents))
	for i, d := range a.Documents {
		url := d.Candidate.URL
		stance, judge := "-", "-"
		if j, ok := judgments[url]; ok {
			stance = fmt.Sprintf("%s (%.2f)", j.Stance, j.Confidence)
			judge = string(j.Status)
		}
		status := string(d.Status)
		if d.Error != "" {
			status += ": " + escapeCell(truncateString(d.Error, 40))
		}
		rows[i] = []string{
			strconv.Itoa(d.Candidate.Rank),
			d.Domain,
			status,
			fmt.Sprintf("%.2f", weights[url].Weight),
			stance,
			judge,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Domain", "Extraction", "Trust", "Stance", "Judge"},
		Rows:   rows,
	})
	md.PlainText("")

	if !w.verbose {
		return
	}
	for _, d := range a.Documents {
		j, ok := judgments[d.Candidate.URL]
		if !ok {
			continue
		}
		body := j.Rationale
		if body == "" {
			body = j.Error
		}
		if tags := weights[d.Candidate.URL].Tags; len(tags) > 0 {
			body += "\n\nTrust signals: " + strings.Join(tags, ", ")
		}
		md.Details(d.Domain+": "+string(j.Stance), body)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by [newsguard](https://github.com/ppiankov/newsguard). Verdicts are heuristic; read the sources.*")
}

// escapeCell keeps pipes and newlines from breaking table rows.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
