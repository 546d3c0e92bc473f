// Package tokenize splits source lines into the token sequences the decoder
// consumes.
package tokenize

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer converts an input line into an ordered token sequence.
type Tokenizer interface {
	Tokenize(line string) []string
}

// Whitespace splits on Unicode whitespace. This is the default mode and the
// one the alignment dictionary is keyed on.
type Whitespace struct{}

// Tokenize implements Tokenizer.
func (Whitespace) Tokenize(line string) []string {
	return strings.Fields(line)
}

// BPE tokenizes with a tiktoken byte-pair encoding. Each encoded id is
// rendered back to its piece so downstream stages keep operating on strings.
type BPE struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewBPE creates a BPE tokenizer for the named tiktoken encoding,
// e.g. "cl100k_base".
func NewBPE(encodingName string) (*BPE, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	return &BPE{encoding: encoding, name: encodingName}, nil
}

// Name returns the encoding name.
func (b *BPE) Name() string {
	return b.name
}

// Tokenize implements Tokenizer. Pieces are trimmed of the leading space
// tiktoken folds into word-initial tokens; pieces that decode to pure
// whitespace are dropped.
func (b *BPE) Tokenize(line string) []string {
	ids := b.encoding.Encode(line, nil, nil)
	pieces := make([]string, 0, len(ids))
	for _, id := range ids {
		piece := strings.TrimSpace(b.encoding.Decode([]int{id}))
		if piece == "" {
			continue
		}
		pieces = append(pieces, piece)
	}
	return pieces
}

// New returns the tokenizer for a mode string: "space" (or "") for
// whitespace, "bpe" for tiktoken with the given encoding.
func New(mode, encodingName string) (Tokenizer, error) {
	switch mode {
	case "", "space":
		return Whitespace{}, nil
	case "bpe":
		return NewBPE(encodingName)
	default:
		return nil, fmt.Errorf("unknown tokenizer mode %q", mode)
	}
}
