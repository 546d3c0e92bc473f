// Package batch groups source lines into fixed-size batches for the decoder.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Batch is one group of tokenized source lines ready for generation.
type Batch struct {
	// Lines holds the tokenized sentences, in input order.
	Lines [][]string

	// MaxTokens is the largest token count among Lines.
	MaxTokens int

	// FirstLine is the 1-based input line number of Lines[0], counting
	// skipped lines.
	FirstLine int
}

// Batcher reads source lines, drops over-length ones and accumulates the
// rest into batches of a fixed size.
//
// Over-length lines are skipped outright, without an output placeholder, so
// the output line count can fall short of the input line count. Inherited
// behavior; downstream consumers that need 1:1 alignment must pre-filter.
type Batcher struct {
	scanner *bufio.Scanner
	size    int
	maxLen  int
	log     zerolog.Logger

	lineno  int
	skipped int
	pending Batch
}

// New creates a Batcher reading from r. size is the flush threshold in
// lines, maxLen the token-count limit above which a line is skipped.
func New(r io.Reader, size, maxLen int, log zerolog.Logger) (*Batcher, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", size)
	}
	if maxLen < 1 {
		return nil, fmt.Errorf("max source length must be >= 1, got %d", maxLen)
	}
	return &Batcher{
		scanner: bufio.NewScanner(r),
		size:    size,
		maxLen:  maxLen,
		log:     log,
	}, nil
}

// Skipped returns how many over-length lines have been dropped so far.
func (b *Batcher) Skipped() int {
	return b.skipped
}

// Next returns the next full batch, or the final partial batch at end of
// input. It returns io.EOF once the input is exhausted and no lines remain.
func (b *Batcher) Next() (Batch, error) {
	for b.scanner.Scan() {
		b.lineno++
		tokens := strings.Fields(b.scanner.Text())
		if len(tokens) > b.maxLen {
			b.skipped++
			b.log.Warn().
				Int("line", b.lineno).
				Int("tokens", len(tokens)).
				Int("max", b.maxLen).
				Msg("skipping over-length source line")
			continue
		}

		if len(b.pending.Lines) == 0 {
			b.pending.FirstLine = b.lineno
		}
		b.pending.Lines = append(b.pending.Lines, tokens)
		if len(tokens) > b.pending.MaxTokens {
			b.pending.MaxTokens = len(tokens)
		}

		if len(b.pending.Lines) == b.size {
			return b.flush(), nil
		}
	}
	if err := b.scanner.Err(); err != nil {
		return Batch{}, fmt.Errorf("read source: %w", err)
	}

	if len(b.pending.Lines) > 0 {
		return b.flush(), nil
	}
	return Batch{}, io.EOF
}

func (b *Batcher) flush() Batch {
	out := b.pending
	b.pending = Batch{}
	return out
}
