package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespace(t *testing.T) {
	tok := Whitespace{}

	assert.Equal(t, []string{"the", "cat", "sat"}, tok.Tokenize("the  cat\tsat"))
	assert.Empty(t, tok.Tokenize("   "))
	assert.Empty(t, tok.Tokenize(""))
}

func TestNewModeSelection(t *testing.T) {
	tok, err := New("", "")
	require.NoError(t, err)
	assert.IsType(t, Whitespace{}, tok)

	tok, err = New("space", "")
	require.NoError(t, err)
	assert.IsType(t, Whitespace{}, tok)

	_, err = New("morfessor", "")
	assert.Error(t, err)
}

func TestBPE(t *testing.T) {
	tok, err := NewBPE("cl100k_base")
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	pieces := tok.Tokenize("hello world")
	require.NotEmpty(t, pieces)
	for _, p := range pieces {
		assert.NotEmpty(t, p)
		assert.NotContains(t, p, " ")
	}
	assert.Equal(t, "cl100k_base", tok.Name())
}
