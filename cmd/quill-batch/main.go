// Command quill-batch is the batched decoding driver: it filters and batches
// source lines, runs beam search over the model ensemble per batch and
// writes scored n-best hypotheses to <input>.output.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quill-mt/quill/internal/align"
	"github.com/quill-mt/quill/internal/config"
	"github.com/quill-mt/quill/internal/output"
	"github.com/quill-mt/quill/internal/search"
	"github.com/quill-mt/quill/internal/translator"
	"github.com/quill-mt/quill/internal/vocab"
)

var (
	flagConfig         = flag.String("config", "", "Optional YAML config file")
	flagModels         = flag.String("models", "", "Comma-separated model checkpoint paths")
	flagInput          = flag.String("input", "", "Source text file, one sentence per line")
	flagOutput         = flag.String("output", "", "Output path (default <input>.output)")
	flagSrcDict        = flag.String("src-dict", "", "Source dictionary path")
	flagTgtDict        = flag.String("tgt-dict", "", "Target dictionary path")
	flagBeam           = flag.Int("beam", 0, "Beam width")
	flagNBest          = flag.Int("nbest", 0, "Number of hypotheses per sentence")
	flagLenPen         = flag.Float64("lenpen", 0, "Length penalty weight")
	flagUnkPen         = flag.Float64("unkpen", 0, "Unknown-word penalty weight")
	flagSubwordPen     = flag.Float64("subwordpen", 0, "Subword penalty weight")
	flagCovPen         = flag.Float64("covpen", 0, "Coverage penalty weight")
	flagMinLen         = flag.Int("minlen", 0, "Minimum hypothesis length")
	flagMaxLen         = flag.Int("maxlen", 0, "Maximum hypothesis length")
	flagMaxSrcLen      = flag.Int("max-src-len", 0, "Skip source lines longer than this many tokens")
	flagBatchSize      = flag.Int("batch-size", 0, "Batch size in lines")
	flagRestrictVocab  = flag.String("restrict-vocab", "", "Restricted output vocabulary file")
	flagFast           = flag.Bool("fast", false, "Request the fused decoding fast path")
	flagVisualize      = flag.String("visualize", "", "Attention visualization endpoint")
	flagAlignDict      = flag.String("align-dict", "", "Alignment dictionary path")
	flagAlignThreshold = flag.Float64("align-threshold", 0, "Alignment dictionary probability threshold")
	flagUnkMarker      = flag.String("unk-marker", "", "Unknown-word marker string")
	flagAttnOffset     = flag.Int("attn-offset", 0, "Offset added to attention indices")
)

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "models":
			cfg.Models = strings.Split(*flagModels, ",")
		case "input":
			cfg.Input = *flagInput
		case "output":
			cfg.Output = *flagOutput
		case "src-dict":
			cfg.SrcDict = *flagSrcDict
		case "tgt-dict":
			cfg.TgtDict = *flagTgtDict
		case "beam":
			cfg.Search.Beam = *flagBeam
		case "nbest":
			cfg.Search.NBest = *flagNBest
		case "lenpen":
			cfg.Search.LengthPenalty = *flagLenPen
		case "unkpen":
			cfg.Search.UnknownPenalty = *flagUnkPen
		case "subwordpen":
			cfg.Search.SubwordPenalty = *flagSubwordPen
		case "covpen":
			cfg.Search.CoveragePenalty = *flagCovPen
		case "minlen":
			cfg.Search.MinLength = *flagMinLen
		case "maxlen":
			cfg.Search.MaxLength = *flagMaxLen
		case "max-src-len":
			cfg.MaxSourceLen = *flagMaxSrcLen
		case "batch-size":
			cfg.BatchSize = *flagBatchSize
		case "restrict-vocab":
			cfg.Search.RestrictVocabPath = *flagRestrictVocab
		case "fast":
			cfg.Search.FastDecode = *flagFast
		case "visualize":
			cfg.VisualizeEndpoint = *flagVisualize
		case "align-dict":
			cfg.AlignDict = *flagAlignDict
		case "align-threshold":
			cfg.AlignThreshold = *flagAlignThreshold
		case "unk-marker":
			cfg.UnknownMarker = *flagUnkMarker
		case "attn-offset":
			cfg.AttnOffset = *flagAttnOffset
		}
	})
}

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	progress := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	applyFlags(&cfg)
	if err := cfg.ValidateBatch(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	srcDict, err := vocab.Load(cfg.SrcDict)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SrcDict).Msg("Failed to load source dictionary")
	}
	tgtDict, err := vocab.Load(cfg.TgtDict)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TgtDict).Msg("Failed to load target dictionary")
	}

	var alignDict *align.Dict
	if cfg.AlignDict != "" {
		alignDict, err = align.LoadDict(cfg.AlignDict, cfg.AlignThreshold)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.AlignDict).Msg("Failed to load alignment dictionary")
		}
		log.Info().Int("entries", alignDict.Len()).Msg("Loaded alignment dictionary")
	}

	gen, err := search.Load(cfg.Models, srcDict, tgtDict, cfg.Search)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model ensemble")
	}
	if cfg.VisualizeEndpoint != "" {
		log.Info().Str("endpoint", cfg.VisualizeEndpoint).Msg("Attention visualization enabled")
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Input).Msg("Failed to open input")
	}
	defer in.Close()

	outPath := cfg.OutputPath()
	writer, err := output.Create(outPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", outPath).Msg("Failed to create output file")
	}

	tr := &translator.BatchRunner{
		Gen:          gen,
		TgtDict:      tgtDict,
		Resolver:     align.NewResolver(cfg.UnknownMarker, cfg.AttnOffset, alignDict, log.Logger),
		Writer:       writer,
		Search:       cfg.Search,
		BatchSize:    cfg.BatchSize,
		MaxSourceLen: cfg.MaxSourceLen,
		Log:          progress,
	}

	stats, err := tr.Run(context.Background(), in)
	if err != nil {
		log.Fatal().Err(err).Msg("Decoding failed")
	}
	if err := writer.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close output file")
	}

	progress.Info().
		Str("path", outPath).
		Int("hypotheses", stats.Hypotheses).
		Msg("Wrote n-best output")
}
