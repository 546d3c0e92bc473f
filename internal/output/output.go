// Package output writes scored n-best hypotheses to the run's output file.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Suffix appended to the source path to form the default output path.
const Suffix = ".output"

// PathFor returns the output path for a source file.
func PathFor(sourcePath string) string {
	return sourcePath + Suffix
}

// Writer emits one line per hypothesis: the space-joined tokens, a tab, and
// the score with six decimal places. It owns its destination for the whole
// run; Close flushes and releases it.
type Writer struct {
	w     *bufio.Writer
	c     io.Closer
	lines int
}

// Create opens the output file for writing, truncating any previous run.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &Writer{w: bufio.NewWriter(f), c: f}, nil
}

// NewWriter wraps an arbitrary destination. Intended for tests.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits one scored hypothesis line.
func (w *Writer) Write(tokens []string, score float64) error {
	if _, err := fmt.Fprintf(w.w, "%s\t%.6f\n", strings.Join(tokens, " "), score); err != nil {
		return fmt.Errorf("write hypothesis: %w", err)
	}
	w.lines++
	return nil
}

// Lines returns the number of hypothesis lines written so far.
func (w *Writer) Lines() int {
	return w.lines
}

// Close flushes buffered output and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if w.c != nil {
		if err := w.c.Close(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
	}
	return nil
}
