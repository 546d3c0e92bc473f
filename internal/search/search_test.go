package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/quill-mt/quill/internal/vocab"
)

func TestAlignment(t *testing.T) {
	att := mat.NewDense(3, 4, []float64{
		0.1, 0.7, 0.1, 0.1,
		0.6, 0.2, 0.1, 0.1,
		0.0, 0.1, 0.2, 0.7,
	})

	assert.Equal(t, []int{2, 1, 4}, Alignment(att))
}

func TestAlignmentNil(t *testing.T) {
	assert.Empty(t, Alignment(nil))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults ok", func(*Config) {}, ""},
		{"zero beam", func(c *Config) { c.Beam = 0 }, "beam width"},
		{"nbest above beam", func(c *Config) { c.NBest = 6 }, "n-best"},
		{"zero nbest", func(c *Config) { c.NBest = 0 }, "n-best"},
		{"max below min", func(c *Config) { c.MinLength = 10; c.MaxLength = 5 }, "length bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// stubBackend loads nothing and generates nothing; it exists to exercise the
// registry and validation paths.
type stubBackend struct {
	name     string
	ext      string
	fastPath bool
}

func (b stubBackend) Name() string { return b.name }

func (b stubBackend) Supports(p string) bool { return strings.HasSuffix(p, b.ext) }

func (b stubBackend) FastPath() bool { return b.fastPath }

func (b stubBackend) Load(_ []string, _, _ *vocab.Dict, _ Config) (Generator, error) {
	return stubGenerator{}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, batch [][]string, _ Config) ([][]Hypothesis, error) {
	return make([][]Hypothesis, len(batch)), nil
}

func writeCheckpoint(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("weights"), 0o644))
	return path
}

func TestLoadEnsemble(t *testing.T) {
	Register(stubBackend{name: "stub", ext: ".stub"})
	dir := t.TempDir()
	ckpt := writeCheckpoint(t, dir, "model.stub")

	gen, err := Load([]string{ckpt}, vocab.New(), vocab.New(), DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, gen)
}

func TestLoadEnsembleMissingCheckpoint(t *testing.T) {
	Register(stubBackend{name: "stub2", ext: ".stub2"})

	_, err := Load([]string{filepath.Join(t.TempDir(), "absent.stub2")}, vocab.New(), vocab.New(), DefaultConfig())
	assert.Error(t, err)
}

func TestLoadEnsembleNoBackend(t *testing.T) {
	dir := t.TempDir()
	ckpt := writeCheckpoint(t, dir, "model.mystery")

	_, err := Load([]string{ckpt}, vocab.New(), vocab.New(), DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registered backend")
}

func TestLoadEnsembleFastPathUnsupported(t *testing.T) {
	Register(stubBackend{name: "slow", ext: ".slow"})
	dir := t.TempDir()
	ckpt := writeCheckpoint(t, dir, "model.slow")

	cfg := DefaultConfig()
	cfg.FastDecode = true
	_, err := Load([]string{ckpt}, vocab.New(), vocab.New(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fast path")
}

func TestLoadEnsembleFastPathSupported(t *testing.T) {
	Register(stubBackend{name: "fast", ext: ".fast", fastPath: true})
	dir := t.TempDir()
	ckpt := writeCheckpoint(t, dir, "model.fast")

	cfg := DefaultConfig()
	cfg.FastDecode = true
	_, err := Load([]string{ckpt}, vocab.New(), vocab.New(), cfg)
	assert.NoError(t, err)
}

func TestLoadEnsembleNoPaths(t *testing.T) {
	_, err := Load(nil, vocab.New(), vocab.New(), DefaultConfig())
	assert.Error(t, err)
}

func TestLoadEnsembleInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Beam = 0
	_, err := Load([]string{"whatever"}, vocab.New(), vocab.New(), cfg)
	assert.Error(t, err)
}
