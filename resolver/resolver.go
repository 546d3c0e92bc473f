// Package resolver exposes the unknown-token resolution pipeline: given a
// decoded hypothesis, its attention alignment into the source sentence and
// an optional alignment dictionary, it substitutes unknown-word placeholders
// with copied or back-translated source tokens.
//
// Example usage:
//
//	dict := resolver.NewDict(map[string]string{"Hund": "dog"})
//	r := resolver.New("<unk>", 0, dict, log)
//	resolved := r.Resolve(hypTokens, srcTokens, alignment, 1)
package resolver

import (
	"github.com/rs/zerolog"

	"github.com/quill-mt/quill/internal/align"
)

// Dict maps source tokens to their single best replacement.
type Dict = align.Dict

// Resolver substitutes unknown-word placeholders using attention alignments.
type Resolver = align.Resolver

// NewDict builds a dictionary from an explicit mapping.
func NewDict(entries map[string]string) *Dict {
	return align.NewDict(entries)
}

// LoadDict reads an alignment dictionary from a text or CBOR file, dropping
// entries below the probability threshold.
func LoadDict(path string, threshold float64) (*Dict, error) {
	return align.LoadDict(path, threshold)
}

// New returns a resolver for the given unknown-word marker, attention-index
// offset and optional dictionary, reporting diagnostics through log.
func New(marker string, offset int, dict *Dict, log zerolog.Logger) *Resolver {
	return align.NewResolver(marker, offset, dict, log)
}
