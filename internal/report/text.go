package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/newsguard/internal/model"
)

// TextWriter outputs a compact terminal summary.
type TextWriter struct {
	baseWriter
	verbose bool
}

// NewTextWriter creates a TextWriter. verbose adds one line per judged source.
func NewTextWriter(output io.Writer, verbose bool) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output), verbose: verbose}
}

// Write outputs the summary.
func (w *TextWriter) Write(a *model.Analysis) (int, error) {
	var sb strings.Builder
	v := a.Verdict

	fmt.Fprintf(&sb, "Claim:   %s\n", truncateString(a.Claim.Text, 120))
	fmt.Fprintf(&sb, "Verdict: %s %s (%.2f/100)\n", labelMark(v.Label), v.Label, v.Score)
	fmt.Fprintf(&sb, "Sources: %d usable of %d retrieved\n", v.Coverage.Usable, v.Coverage.Candidates)
	if a.RetrievalError != "" {
		fmt.Fprintf(&sb, "Search:  %s\n", a.RetrievalError)
	}
	sb.WriteString("\n")
	sb.WriteString(v.Explanation)
	sb.WriteString("\n")

	if w.verbose && len(a.Judgments) > 0 {
		sb.WriteString("\nJudgments:\n")
		for _, j := range a.Judgments {
			line := fmt.Sprintf("  %-24s %-9s %.2f  %s", truncateString(j.Ref.Domain, 24), j.Stance, j.Confidence, j.Status)
			if j.Error != "" {
				line += ": " + truncateString(j.Error, 60)
			}
			sb.WriteString(line + "\n")
		}
	}

	if w.verbose {
		fmt.Fprintf(&sb, "\nRequest %s, %s\n", a.RequestID, a.Elapsed)
	}

	return io.WriteString(w.output, sb.String())
}

func labelMark(l model.Label) string {
	switch l {
	case model.LabelReliable:
		return "✓"
	case model.LabelUnreliable:
		return "✗"
	case model.LabelMixed:
		return "~"
	default:
		return "?"
	}
}
