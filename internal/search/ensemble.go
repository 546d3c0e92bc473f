package search

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/quill-mt/quill/internal/vocab"
)

// Backend turns a set of checkpoint files into a Generator. Implementations
// register themselves at init time; the decoding drivers stay agnostic of
// the model format.
type Backend interface {
	// Name identifies the backend in error messages.
	Name() string

	// Supports reports whether the backend can open the checkpoint at path.
	Supports(path string) bool

	// FastPath reports whether the backend implements the fused decoding
	// fast path.
	FastPath() bool

	// Load opens the checkpoints and builds a generator over the ensemble,
	// using the source and target dictionaries for index lookup.
	Load(paths []string, src, tgt *vocab.Dict, cfg Config) (Generator, error)
}

var (
	backendsMu sync.Mutex
	backends   []Backend
)

// Register adds a model backend. Typically called from an init function.
func Register(b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends = append(backends, b)
}

func registered() []Backend {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	return append([]Backend(nil), backends...)
}

// Load validates cfg and the checkpoint files, picks the backend that
// supports every checkpoint, and builds the ensemble generator.
//
// All failures here are startup precondition failures: a missing checkpoint,
// no backend claiming the format, or a fast path requested from a backend
// without one.
func Load(paths []string, src, tgt *vocab.Dict, cfg Config) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no model checkpoints given")
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("model checkpoint: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("model checkpoint %s is a directory", path)
		}
	}

	backend, err := pick(paths)
	if err != nil {
		return nil, err
	}
	if cfg.FastDecode && !backend.FastPath() {
		return nil, fmt.Errorf("fast decoding requested but backend %s has no fast path", backend.Name())
	}

	gen, err := backend.Load(paths, src, tgt, cfg)
	if err != nil {
		return nil, fmt.Errorf("load ensemble with backend %s: %w", backend.Name(), err)
	}
	return gen, nil
}

func pick(paths []string) (Backend, error) {
	for _, b := range registered() {
		ok := true
		for _, path := range paths {
			if !b.Supports(path) {
				ok = false
				break
			}
		}
		if ok {
			return b, nil
		}
	}

	names := make([]string, 0, len(registered()))
	for _, b := range registered() {
		names = append(names, b.Name())
	}
	sort.Strings(names)
	return nil, fmt.Errorf("no registered backend supports all of %v (registered: %v)", paths, names)
}
