package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFor(t *testing.T) {
	assert.Equal(t, "corpus.src.output", PathFor("corpus.src"))
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Write([]string{"the", "cat"}, -1.5))
	require.NoError(t, w.Write([]string{"solo"}, 0))
	require.NoError(t, w.Close())

	assert.Equal(t, "the cat\t-1.500000\nsolo\t0.000000\n", buf.String())
	assert.Equal(t, 2, w.Lines())
}

func TestWriteKeepsEmptyTokenPositions(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Write([]string{"a", "", "b"}, -0.25))
	require.NoError(t, w.Close())

	assert.Equal(t, "a  b\t-0.250000\n", buf.String())
}

func TestCreateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.output")
	w, err := Create(path)
	require.NoError(t, err)

	require.NoError(t, w.Write([]string{"hello"}, -3.141593))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\t-3.141593\n", string(raw))
}

func TestCreateBadPath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "dir", "out"))
	assert.Error(t, err)
}
