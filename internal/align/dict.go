// Package align resolves unknown-token placeholders in decoded hypotheses
// using attention alignments and a precomputed alignment dictionary.
package align

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Dict maps source tokens to their single best target-language replacement.
type Dict struct {
	entries map[string]string
}

// NewDict builds a dictionary from an explicit mapping. Intended for tests.
func NewDict(entries map[string]string) *Dict {
	m := make(map[string]string, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return &Dict{entries: m}
}

// Lookup returns the replacement for a source token.
func (d *Dict) Lookup(src string) (string, bool) {
	if d == nil {
		return "", false
	}
	repl, ok := d.entries[src]
	return repl, ok
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// LoadDict reads an alignment dictionary. Files ending in ".cbor" use the
// binary indexed format; anything else is parsed as text, one
// "<source> <target> <probability>" entry per line (the probability may be
// omitted and defaults to 1). Entries with probability below threshold are
// dropped; when a source token has several surviving entries the highest
// probability wins.
func LoadDict(path string, threshold float64) (*Dict, error) {
	if filepath.Ext(path) == ".cbor" {
		return loadCBOR(path, threshold)
	}
	return loadText(path, threshold)
}

type candidate struct {
	target string
	prob   float64
}

func loadText(path string, threshold float64) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignment dictionary: %w", err)
	}
	defer f.Close()

	best := make(map[string]candidate)
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("alignment dictionary %s:%d: expected 2 or 3 fields, got %d", path, lineno, len(fields))
		}
		prob := 1.0
		if len(fields) == 3 {
			prob, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("alignment dictionary %s:%d: bad probability %q", path, lineno, fields[2])
			}
		}
		keep(best, fields[0], fields[1], prob, threshold)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read alignment dictionary: %w", err)
	}

	return collect(best), nil
}

// cborDict is the binary on-disk layout: a count header followed by entries.
type cborDict struct {
	Count   int         `cbor:"count"`
	Entries []cborEntry `cbor:"entries"`
}

type cborEntry struct {
	Source string  `cbor:"s"`
	Target string  `cbor:"t"`
	Prob   float64 `cbor:"p"`
}

func loadCBOR(path string, threshold float64) (*Dict, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alignment dictionary: %w", err)
	}

	var doc cborDict
	if err := cbor.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode alignment dictionary %s: %w", path, err)
	}
	if doc.Count != len(doc.Entries) {
		return nil, fmt.Errorf("alignment dictionary %s: count header %d does not match %d entries", path, doc.Count, len(doc.Entries))
	}

	best := make(map[string]candidate)
	for _, e := range doc.Entries {
		keep(best, e.Source, e.Target, e.Prob, threshold)
	}
	return collect(best), nil
}

// WriteCBOR serializes a mapping with per-entry probabilities into the binary
// dictionary format.
func WriteCBOR(path string, entries map[string]string, probs map[string]float64) error {
	doc := cborDict{Entries: make([]cborEntry, 0, len(entries))}
	for src, tgt := range entries {
		prob := 1.0
		if p, ok := probs[src]; ok {
			prob = p
		}
		doc.Entries = append(doc.Entries, cborEntry{Source: src, Target: tgt, Prob: prob})
	}
	doc.Count = len(doc.Entries)

	raw, err := cbor.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode alignment dictionary: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write alignment dictionary: %w", err)
	}
	return nil
}

func keep(best map[string]candidate, src, tgt string, prob, threshold float64) {
	if prob < threshold {
		return
	}
	if cur, ok := best[src]; ok && cur.prob >= prob {
		return
	}
	best[src] = candidate{target: tgt, prob: prob}
}

func collect(best map[string]candidate) *Dict {
	entries := make(map[string]string, len(best))
	for src, c := range best {
		entries[src] = c.target
	}
	return &Dict{entries: entries}
}
