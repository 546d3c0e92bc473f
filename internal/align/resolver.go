package align

import (
	"github.com/rs/zerolog"
)

// Resolver substitutes unknown-word placeholders in a hypothesis using the
// attention alignment back into the source sentence.
//
// Attention indices are 1-based source positions; len(source)+1 is the
// end-of-sentence attention position. Offset is added to every index before
// interpretation.
type Resolver struct {
	// Marker is the exact placeholder string the model emits for unknown words.
	Marker string

	// Offset is added to every attention index before interpretation.
	Offset int

	// Dict optionally back-translates copied source tokens. May be nil.
	Dict *Dict

	// Log receives one diagnostic per out-of-range attention index.
	Log zerolog.Logger
}

// NewResolver returns a resolver with the given marker, offset and optional
// dictionary, reporting diagnostics through log.
func NewResolver(marker string, offset int, dict *Dict, log zerolog.Logger) *Resolver {
	return &Resolver{Marker: marker, Offset: offset, Dict: dict, Log: log}
}

// Resolve replaces every marker token in hyp according to its attention
// alignment. ordinal identifies the hypothesis in diagnostics (its position
// in the batch, 1-based).
//
// The result always has len(hyp) entries: a deleted token becomes the empty
// string, never a removed position. Only the first len(hyp) attention entries
// are consulted; the trailing entry for the end-of-sequence token is ignored.
//
// Per marker position, with attn = attention[j] + Offset and S = len(src):
//   - attn == S+1 is the end-of-sentence position: the first hypothesis token
//     copies the source head, any later one is deleted. Inherited policy;
//     keep as is.
//   - attn outside [1, S+1] is reported and the marker is left in place.
//   - otherwise the aligned source token is copied, back-translated through
//     the dictionary when it has an entry.
func (r *Resolver) Resolve(hyp, src []string, attention []int, ordinal int) []string {
	out := make([]string, len(hyp))
	srcLen := len(src)

	for j, tok := range hyp {
		if tok != r.Marker {
			out[j] = tok
			continue
		}

		attn := attention[j] + r.Offset
		switch {
		case attn == srcLen+1:
			if j == 0 && srcLen > 0 {
				out[j] = src[0]
			} else {
				out[j] = ""
			}
		case attn < 1 || attn > srcLen+1:
			r.Log.Warn().
				Int("attention_index", attn).
				Int("position", j+1).
				Int("hypothesis", ordinal).
				Msg("attention index out of range, leaving token unresolved")
			out[j] = tok
		default:
			stok := src[attn-1]
			if repl, ok := r.Dict.Lookup(stok); ok {
				out[j] = repl
			} else {
				out[j] = stok
			}
		}
	}

	return out
}
