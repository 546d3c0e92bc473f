package align

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unk = "<unk>"

func newTestResolver(dict *Dict, offset int) (*Resolver, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewResolver(unk, offset, dict, zerolog.New(&buf)), &buf
}

func TestResolveInRangeCopy(t *testing.T) {
	r, diag := newTestResolver(nil, 0)

	got := r.Resolve(
		[]string{"x", unk, "y"},
		[]string{"a", "b", "c"},
		[]int{1, 2, 3, 4},
		1,
	)

	assert.Equal(t, []string{"x", "b", "y"}, got)
	assert.Empty(t, diag.String())
}

func TestResolveDictionaryOverride(t *testing.T) {
	r, _ := newTestResolver(NewDict(map[string]string{"b": "bee"}), 0)

	got := r.Resolve(
		[]string{"x", unk, "y"},
		[]string{"a", "b", "c"},
		[]int{1, 2, 3, 4},
		1,
	)

	assert.Equal(t, "bee", got[1])
}

func TestResolveEOSAttentionFirstPositionCopiesHead(t *testing.T) {
	r, _ := newTestResolver(nil, 0)

	got := r.Resolve(
		[]string{unk, "y"},
		[]string{"a", "b"},
		[]int{3, 1, 1},
		1,
	)

	assert.Equal(t, []string{"a", "y"}, got)
}

func TestResolveEOSAttentionLaterPositionDeletes(t *testing.T) {
	r, _ := newTestResolver(nil, 0)

	got := r.Resolve(
		[]string{"x", unk},
		[]string{"a", "b"},
		[]int{1, 3, 1},
		1,
	)

	assert.Equal(t, []string{"x", ""}, got)
	assert.Len(t, got, 2)
}

func TestResolveOutOfRangeKeepsMarkerAndReports(t *testing.T) {
	r, diag := newTestResolver(nil, 0)

	got := r.Resolve(
		[]string{"x", unk},
		[]string{"a", "b"},
		[]int{1, 10, 1},
		7,
	)

	assert.Equal(t, unk, got[1])
	lines := strings.Count(strings.TrimSpace(diag.String()), "\n") + 1
	assert.Equal(t, 1, lines)
	assert.Contains(t, diag.String(), `"attention_index":10`)
	assert.Contains(t, diag.String(), `"hypothesis":7`)
}

func TestResolveNegativeIndexReports(t *testing.T) {
	r, diag := newTestResolver(nil, 0)

	got := r.Resolve([]string{unk}, []string{"a"}, []int{0, 1}, 1)

	assert.Equal(t, unk, got[0])
	assert.NotEmpty(t, diag.String())
}

func TestResolveOffsetIsAdditive(t *testing.T) {
	hyp := []string{unk, "x", unk, unk, unk}
	src := []string{"a", "b", "c"}
	attn := []int{2, 1, 4, 9, 3, 1}

	base, _ := newTestResolver(nil, 0)
	want := base.Resolve(hyp, src, attn, 1)

	for _, k := range []int{1, 2, 5} {
		shifted := make([]int, len(attn))
		for i, a := range attn {
			shifted[i] = a + k
		}
		r, _ := newTestResolver(nil, -k)
		assert.Equal(t, want, r.Resolve(hyp, src, shifted, 1), "shift %d", k)
	}
}

func TestResolveLengthPreserved(t *testing.T) {
	r, _ := newTestResolver(nil, 0)

	tests := []struct {
		name string
		hyp  []string
		src  []string
		attn []int
	}{
		{"empty hypothesis", nil, []string{"a"}, []int{1}},
		{"all markers", []string{unk, unk}, []string{"a"}, []int{1, 2, 1}},
		{"mixed", []string{"x", unk, "y", unk}, []string{"a", "b"}, []int{1, 2, 1, 3, 1}},
		{"empty source", []string{"x"}, nil, []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.hyp, tt.src, tt.attn, 1)
			assert.Len(t, got, len(tt.hyp))
		})
	}
}

func TestResolvePassthroughWithoutMarkers(t *testing.T) {
	r, diag := newTestResolver(NewDict(map[string]string{"a": "x"}), 3)

	hyp := []string{"the", "cat", "sat"}
	got := r.Resolve(hyp, []string{"a"}, []int{99, -4, 0, 1}, 1)

	assert.Equal(t, hyp, got)
	assert.Empty(t, diag.String())
}

func TestResolveEmptySourceSentinel(t *testing.T) {
	r, _ := newTestResolver(nil, 0)

	// With an empty source, position len(src)+1 == 1 is still the sentinel;
	// there is no head token to copy so the first position deletes too.
	got := r.Resolve([]string{unk}, nil, []int{1, 1}, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0])
}
