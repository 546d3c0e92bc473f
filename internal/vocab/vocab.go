// Package vocab provides the source and target dictionaries used by the
// decoding drivers.
//
// A dictionary file holds one symbol per line; the line number (0-based) is
// the symbol's index. The first four entries must be the special symbols
// <pad>, <bos>, <eos>, <unk>, in that order.
package vocab

import (
	"bufio"
	"fmt"
	"os"
)

// Fixed indices of the special symbols.
const (
	PadID int32 = 0
	BosID int32 = 1
	EosID int32 = 2
	UnkID int32 = 3
)

// Default renderings of the special symbols.
const (
	PadSymbol = "<pad>"
	BosSymbol = "<bos>"
	EosSymbol = "<eos>"
	UnkSymbol = "<unk>"
)

// Dict maps between symbols and indices.
type Dict struct {
	symbols []string
	indices map[string]int32
}

// Load reads a dictionary from a word-per-line file.
//
// It verifies that the special symbols occupy their fixed positions; a
// dictionary missing them is unusable for decoding and is rejected.
func Load(path string) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d := &Dict{indices: make(map[string]int32)}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		sym := scanner.Text()
		if _, dup := d.indices[sym]; dup {
			return nil, fmt.Errorf("duplicate symbol %q at index %d", sym, len(d.symbols))
		}
		d.indices[sym] = int32(len(d.symbols))
		d.symbols = append(d.symbols, sym)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	for i, want := range []string{PadSymbol, BosSymbol, EosSymbol, UnkSymbol} {
		if i >= len(d.symbols) || d.symbols[i] != want {
			return nil, fmt.Errorf("dictionary %s: expected %s at index %d", path, want, i)
		}
	}

	return d, nil
}

// New builds a dictionary from an explicit symbol list. Intended for tests;
// the special symbols are prepended automatically.
func New(symbols ...string) *Dict {
	d := &Dict{indices: make(map[string]int32)}
	for _, sym := range append([]string{PadSymbol, BosSymbol, EosSymbol, UnkSymbol}, symbols...) {
		d.indices[sym] = int32(len(d.symbols))
		d.symbols = append(d.symbols, sym)
	}
	return d
}

// Size returns the number of symbols, specials included.
func (d *Dict) Size() int {
	return len(d.symbols)
}

// Lookup returns the index of sym, or UnkID if it is out of vocabulary.
func (d *Dict) Lookup(sym string) int32 {
	if id, ok := d.indices[sym]; ok {
		return id
	}
	return UnkID
}

// Contains reports whether sym is in the vocabulary.
func (d *Dict) Contains(sym string) bool {
	_, ok := d.indices[sym]
	return ok
}

// Symbol returns the symbol at id, or the unknown symbol for an out-of-range id.
func (d *Dict) Symbol(id int32) string {
	if id < 0 || int(id) >= len(d.symbols) {
		return UnkSymbol
	}
	return d.symbols[id]
}

// Encode converts a token sequence to indices, mapping out-of-vocabulary
// tokens to UnkID.
func (d *Dict) Encode(tokens []string) []int32 {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = d.Lookup(tok)
	}
	return ids
}

// Render converts an index sequence to symbols, truncating at the first EOS.
// The EOS itself is not rendered.
func (d *Dict) Render(ids []int32) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == EosID {
			break
		}
		out = append(out, d.Symbol(id))
	}
	return out
}
