// Command quill is the interactive decoding driver: it reads a source text
// file line by line, decodes each sentence with the model ensemble and
// prints the labeled single-best translation to stdout.
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
	"github.com/quill-mt/quill/internal/search"
	"github.com/quill-mt/quill/internal/tokenize"
	"github.com/quill-mt/quill/internal/translator"
	"github.com/quill-mt/quill/internal/vocab"
)

var (
	flagConfig         = flag.String("config", "", "Optional YAML config file")
	flagModels         = flag.String("models", "", "Comma-separated model checkpoint paths")
	flagInput          = flag.String("input", "", "Source text file, one sentence per line")
	flagSrcDict        = flag.String("src-dict", "", "Source dictionary path")
	flagTgtDict        = flag.String("tgt-dict", "", "Target dictionary path")
	flagBeam           = flag.Int("beam", 0, "Beam width")
	flagLenPen         = flag.Float64("lenpen", 0, "Length penalty weight")
	flagUnkPen         = flag.Float64("unkpen", 0, "Unknown-word penalty weight")
	flagSubwordPen     = flag.Float64("subwordpen", 0, "Subword penalty weight")
	flagCovPen         = flag.Float64("covpen", 0, "Coverage penalty weight")
	flagMinLen         = flag.Int("minlen", 0, "Minimum hypothesis length")
	flagMaxLen         = flag.Int("maxlen", 0, "Maximum hypothesis length")
	flagRestrictVocab  = flag.String("restrict-vocab", "", "Restricted output vocabulary file")
	flagFast           = flag.Bool("fast", false, "Request the fused decoding fast path")
	flagVisualize      = flag.String("visualize", "", "Attention visualization endpoint")
	flagAlignDict      = flag.String("align-dict", "", "Alignment dictionary path")
	flagAlignThreshold = flag.Float64("align-threshold", 0, "Alignment dictionary probability threshold")
	flagUnkMarker      = flag.String("unk-marker", "", "Unknown-word marker string")
	flagAttnOffset     = flag.Int("attn-offset", 0, "Offset added to attention indices")
	flagMode           = flag.String("mode", "", "Tokenizer mode: space or bpe")
	flagBPEEncoding    = flag.String("bpe-encoding", "", "tiktoken encoding for bpe mode")
)

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "models":
			cfg.Models = strings.Split(*flagModels, ",")
		case "input":
			cfg.Input = *flagInput
		case "src-dict":
			cfg.SrcDict = *flagSrcDict
		case "tgt-dict":
			cfg.TgtDict = *flagTgtDict
		case "beam":
			cfg.Search.Beam = *flagBeam
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
		case "mode":
			cfg.TokenizeMode = *flagMode
		case "bpe-encoding":
			cfg.BPEEncoding = *flagBPEEncoding
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
	// The interactive driver always emits the single best hypothesis.
	cfg.Search.NBest = 1
	if err := cfg.Validate(); err != nil {
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

	tok, err := tokenize.New(cfg.TokenizeMode, cfg.BPEEncoding)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tokenizer")
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

	tr := &translator.Interactive{
		Gen:      gen,
		Tok:      tok,
		TgtDict:  tgtDict,
		Resolver: align.NewResolver(cfg.UnknownMarker, cfg.AttnOffset, alignDict, log.Logger),
		Search:   cfg.Search,
		Out:      os.Stdout,
		Log:      progress,
	}

	if _, err := tr.Run(context.Background(), in); err != nil {
		log.Fatal().Err(err).Msg("Decoding failed")
	}
}
