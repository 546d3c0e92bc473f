// Package translator implements the two driver run loops: the interactive
// single-best loop and the batched n-best loop.
package translator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quill-mt/quill/internal/align"
	"github.com/quill-mt/quill/internal/batch"
	"github.com/quill-mt/quill/internal/output"
	"github.com/quill-mt/quill/internal/search"
	"github.com/quill-mt/quill/internal/tokenize"
	"github.com/quill-mt/quill/internal/vocab"
)

// Label prefixes every translation the interactive driver prints.
const Label = "PRED: "

// Stats summarizes a completed run.
type Stats struct {
	// Lines is the number of source sentences decoded.
	Lines int

	// Hypotheses is the number of output lines produced.
	Hypotheses int

	// Elapsed is the wall-clock run time.
	Elapsed time.Duration
}

// Throughput returns decoded lines per second.
func (s Stats) Throughput() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Lines) / secs
}

func logStart(log zerolog.Logger, start time.Time) {
	log.Info().Time("start", start).Msg("decoding started")
}

func logEnd(log zerolog.Logger, stats Stats, start time.Time) {
	log.Info().
		Time("end", start.Add(stats.Elapsed)).
		Float64("elapsed_seconds", stats.Elapsed.Seconds()).
		Int("lines", stats.Lines).
		Float64("lines_per_second", stats.Throughput()).
		Msg("decoding finished")
}

// resolveHypothesis renders a hypothesis to tokens and substitutes unknown
// markers via its attention alignment. A hypothesis without a usable
// attention matrix is rendered unresolved.
func resolveHypothesis(hyp search.Hypothesis, src []string, dict *vocab.Dict, res *align.Resolver, ordinal int) []string {
	tokens := dict.Render(hyp.IDs)
	alignment := search.Alignment(hyp.Attention)
	if len(alignment) < len(tokens) {
		return tokens
	}
	return res.Resolve(tokens, src, alignment, ordinal)
}

// Interactive reads one source line at a time, decodes it and prints the
// labeled single-best translation.
type Interactive struct {
	Gen      search.Generator
	Tok      tokenize.Tokenizer
	TgtDict  *vocab.Dict
	Resolver *align.Resolver
	Search   search.Config

	// Out receives the labeled translations; Log the progress records.
	Out io.Writer
	Log zerolog.Logger
}

// Run decodes every line of r until end of input.
func (t *Interactive) Run(ctx context.Context, r io.Reader) (Stats, error) {
	start := time.Now()
	logStart(t.Log, start)

	var stats Stats
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		src := t.Tok.Tokenize(scanner.Text())

		results, err := t.Gen.Generate(ctx, [][]string{src}, t.Search)
		if err != nil {
			return stats, fmt.Errorf("generate: %w", err)
		}

		stats.Lines++
		line := ""
		if len(results) > 0 && len(results[0]) > 0 {
			resolved := resolveHypothesis(results[0][0], src, t.TgtDict, t.Resolver, stats.Lines)
			line = strings.Join(resolved, " ")
		}
		if _, err := fmt.Fprintf(t.Out, "%s%s\n", Label, line); err != nil {
			return stats, fmt.Errorf("write translation: %w", err)
		}
		stats.Hypotheses++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read source: %w", err)
	}

	stats.Elapsed = time.Since(start)
	logEnd(t.Log, stats, start)
	return stats, nil
}

// BatchRunner decodes batches of source lines and writes scored n-best
// hypotheses through a single output writer.
type BatchRunner struct {
	Gen      search.Generator
	TgtDict  *vocab.Dict
	Resolver *align.Resolver
	Writer   *output.Writer
	Search   search.Config

	// BatchSize is the flush threshold in lines, MaxSourceLen the skip
	// limit in tokens.
	BatchSize    int
	MaxSourceLen int

	Log zerolog.Logger
}

// Run decodes every batch of r until end of input.
func (t *BatchRunner) Run(ctx context.Context, r io.Reader) (Stats, error) {
	start := time.Now()
	logStart(t.Log, start)

	batcher, err := batch.New(r, t.BatchSize, t.MaxSourceLen, t.Log)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for {
		b, err := batcher.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, err
		}

		results, err := t.Gen.Generate(ctx, b.Lines, t.Search)
		if err != nil {
			return stats, fmt.Errorf("generate: %w", err)
		}
		if len(results) != len(b.Lines) {
			return stats, fmt.Errorf("generator returned %d results for %d sentences", len(results), len(b.Lines))
		}

		for k, candidates := range results {
			stats.Lines++
			for _, hyp := range candidates {
				resolved := resolveHypothesis(hyp, b.Lines[k], t.TgtDict, t.Resolver, stats.Lines)
				if err := t.Writer.Write(resolved, hyp.Score); err != nil {
					return stats, err
				}
				stats.Hypotheses++
			}
		}
	}

	stats.Elapsed = time.Since(start)
	logEnd(t.Log, stats, start)
	return stats, nil
}
