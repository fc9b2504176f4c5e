package report

import (
	"encoding/json"
	"io"

	"github.com/ppiankov/newsguard/internal/model"
)

// JSONWriter outputs the full analysis record: verdict, every candidate,
// document, trust score and judgment.
type JSONWriter struct {
	baseWriter
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) { w.indent = "  " }
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes the analysis followed by a newline.
func (w *JSONWriter) Write(a *model.Analysis) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent != "" {
		data, err = json.MarshalIndent(a, "", w.indent)
	} else {
		data, err = json.Marshal(a)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
