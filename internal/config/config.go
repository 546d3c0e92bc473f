// Package config holds the run configuration for the decoding drivers.
//
// Values come from three layers: package defaults, an optional YAML config
// file plus QUILL_-prefixed environment variables (via viper), and
// command-line flags applied on top by the drivers. The resulting Config is
// an immutable value threaded explicitly through the run; nothing reads
// ambient state after startup.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/quill-mt/quill/internal/search"
)

// Config is the full run configuration.
type Config struct {
	// Models lists the ensemble checkpoint paths.
	Models []string `mapstructure:"models"`

	// Input is the source text file, one sentence per line.
	Input string `mapstructure:"input"`

	// Output is the batch driver's output path; empty means Input + ".output".
	Output string `mapstructure:"output"`

	// SrcDict and TgtDict are the source/target dictionary paths.
	SrcDict string `mapstructure:"src_dict"`
	TgtDict string `mapstructure:"tgt_dict"`

	// AlignDict is the optional alignment-dictionary path; AlignThreshold
	// drops entries below this probability.
	AlignDict      string  `mapstructure:"align_dict"`
	AlignThreshold float64 `mapstructure:"align_threshold"`

	// UnknownMarker is the placeholder the model emits for unknown words.
	UnknownMarker string `mapstructure:"unknown_marker"`

	// AttnOffset is added to every attention index before interpretation.
	AttnOffset int `mapstructure:"attn_offset"`

	// BatchSize is the batch driver's flush threshold in lines.
	BatchSize int `mapstructure:"batch_size"`

	// MaxSourceLen drops source lines with more tokens than this.
	MaxSourceLen int `mapstructure:"max_source_len"`

	// TokenizeMode is "space" or "bpe"; BPEEncoding names the tiktoken
	// encoding used in bpe mode.
	TokenizeMode string `mapstructure:"tokenize_mode"`
	BPEEncoding  string `mapstructure:"bpe_encoding"`

	// VisualizeEndpoint optionally receives attention visualizations.
	VisualizeEndpoint string `mapstructure:"visualize_endpoint"`

	// Search configures beam search.
	Search search.Config `mapstructure:"search"`
}

// Default returns the configuration defaults shared by both drivers.
func Default() Config {
	return Config{
		AlignThreshold: 0,
		UnknownMarker:  "<unk>",
		AttnOffset:     0,
		BatchSize:      30,
		MaxSourceLen:   250,
		TokenizeMode:   "space",
		BPEEncoding:    "cl100k_base",
		Search:         search.DefaultConfig(),
	}
}

// Load builds a Config from the defaults, an optional config file and the
// environment. An empty path means no config file is required; a named file
// that cannot be read is an error.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("align_threshold", def.AlignThreshold)
	v.SetDefault("unknown_marker", def.UnknownMarker)
	v.SetDefault("attn_offset", def.AttnOffset)
	v.SetDefault("batch_size", def.BatchSize)
	v.SetDefault("max_source_len", def.MaxSourceLen)
	v.SetDefault("tokenize_mode", def.TokenizeMode)
	v.SetDefault("bpe_encoding", def.BPEEncoding)
	v.SetDefault("search.beam", def.Search.Beam)
	v.SetDefault("search.nbest", def.Search.NBest)
	v.SetDefault("search.minlength", def.Search.MinLength)
	v.SetDefault("search.maxlength", def.Search.MaxLength)

	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the preconditions common to both drivers. Failures here
// are fatal at startup.
func (c Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model checkpoint is required")
	}
	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if c.SrcDict == "" || c.TgtDict == "" {
		return fmt.Errorf("source and target dictionary paths are required")
	}
	if c.UnknownMarker == "" {
		return fmt.Errorf("unknown-word marker must not be empty")
	}
	return c.Search.Validate()
}

// ValidateBatch checks the additional batch-driver preconditions.
func (c Config) ValidateBatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be >= 1, got %d", c.BatchSize)
	}
	if c.MaxSourceLen < 1 {
		return fmt.Errorf("max source length must be >= 1, got %d", c.MaxSourceLen)
	}
	return nil
}

// OutputPath returns the configured output path, defaulting to the source
// path with the standard suffix.
func (c Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return c.Input + ".output"
}
