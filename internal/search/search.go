// Package search defines the beam-search collaborators the drivers talk to:
// the generator interface, its configuration, and the attention-alignment
// reduction over returned attention matrices.
//
// Model inference itself lives behind the Generator interface; this package
// only loads and validates ensembles and interprets their outputs.
package search

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Config configures beam search.
type Config struct {
	// Beam is the beam width.
	Beam int

	// NBest is the number of scored candidates returned per sentence.
	NBest int

	// LengthPenalty rescales scores by hypothesis length.
	LengthPenalty float64

	// UnknownPenalty is subtracted per generated unknown-word token.
	UnknownPenalty float64

	// SubwordPenalty is subtracted per subword continuation token.
	SubwordPenalty float64

	// CoveragePenalty penalizes source positions left unattended.
	CoveragePenalty float64

	// MinLength and MaxLength bound the hypothesis length in tokens.
	MinLength int
	MaxLength int

	// RestrictVocabPath optionally limits the output vocabulary to the
	// symbols listed in this file.
	RestrictVocabPath string

	// FastDecode requests the fused decoding fast path; loading fails when
	// no model backend supports it.
	FastDecode bool
}

// DefaultConfig returns the decoding defaults.
func DefaultConfig() Config {
	return Config{
		Beam:      5,
		NBest:     1,
		MinLength: 1,
		MaxLength: 250,
	}
}

// Validate checks the configuration invariants that must hold before any
// model is loaded.
func (c Config) Validate() error {
	if c.Beam < 1 {
		return fmt.Errorf("beam width must be >= 1, got %d", c.Beam)
	}
	if c.NBest < 1 || c.NBest > c.Beam {
		return fmt.Errorf("n-best must be in [1, beam], got %d with beam %d", c.NBest, c.Beam)
	}
	if c.MinLength < 0 || c.MaxLength < c.MinLength {
		return fmt.Errorf("invalid length bounds [%d, %d]", c.MinLength, c.MaxLength)
	}
	return nil
}

// Hypothesis is one scored candidate translation.
type Hypothesis struct {
	// IDs are the output token indices, including the terminating
	// end-of-sequence token when the search emitted one.
	IDs []int32

	// Score is the model score after penalty rescaling.
	Score float64

	// Attention has one row per output position (end-of-sequence included)
	// and one column per source position.
	Attention *mat.Dense
}

// Generator produces scored hypotheses for a batch of tokenized source
// sentences. Results are indexed [sentence][candidate], candidates sorted
// best-first, at most Config.NBest per sentence.
type Generator interface {
	Generate(ctx context.Context, batch [][]string, cfg Config) ([][]Hypothesis, error)
}

// Alignment reduces an attention matrix to one source position per output
// position: the 1-based argmax over the source axis of each row. A nil or
// empty matrix yields an empty alignment.
func Alignment(att *mat.Dense) []int {
	if att == nil {
		return nil
	}
	rows, cols := att.Dims()
	out := make([]int, rows)
	if cols == 0 {
		return out
	}
	for i := 0; i < rows; i++ {
		out[i] = floats.MaxIdx(att.RawRowView(i)) + 1
	}
	return out
}
