// Package report renders analyses for terminals, files and API clients.
package report

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/newsguard/internal/model"
)

// Writer renders one analysis to its output.
type Writer interface {
	Write(a *model.Analysis) (int, error)
}

// MultiWriter writes the same analysis to several Writers, stopping at the
// first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the analysis to every configured Writer.
func (m *MultiWriter) Write(a *model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(a)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// WriteFile renders a to path with the writer built by newWriter, creating
// parent directories as needed.
func WriteFile(path string, a *model.Analysis, newWriter func(io.Writer) Writer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "create directory %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}

	if _, err := newWriter(f).Write(a); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "write %s", path)
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}
