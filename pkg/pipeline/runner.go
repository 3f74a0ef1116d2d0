package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/decl"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Check decodes, normalizes and compiles a document.
// A failed check returns no program; nothing is partially compiled.
func (r *Runner) Check(ctx context.Context, opts CheckOptions) (*Result, error) {
	source := opts.Source
	if source == "" {
		source = "<input>"
	}
	observability.Pipeline().OnCompileStart(ctx, source)

	res, err := r.check(opts)
	nodes := 0
	var total time.Duration
	if res != nil {
		nodes = res.Stats.Nodes()
		total = res.Stats.ParseTime + res.Stats.CompileTime
	}
	observability.Pipeline().OnCompileComplete(ctx, source, nodes, total, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("compiled document",
		"source", source,
		"nodes", res.Stats.Nodes(),
		"edges", res.Stats.Edges,
		"graphs", strings.Join(res.Program.Table.Graphs.Names(), ","),
		"duration", total)
	return res, nil
}

func (r *Runner) check(opts CheckOptions) (*Result, error) {
	data := opts.Data
	format := opts.Format
	if len(data) == 0 {
		if opts.Source == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "no document given")
		}
		var err error
		data, err = os.ReadFile(opts.Source)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", opts.Source)
			}
			return nil, fmt.Errorf("read %s: %w", opts.Source, err)
		}
	}
	if format == "" && opts.Source != "" {
		format = decl.FormatFromPath(opts.Source)
	}

	res := &Result{}

	parseStart := time.Now()
	doc, err := decl.Parse(data, format)
	if err != nil {
		return nil, err
	}
	table := decl.Normalize(doc)
	res.Stats.ParseTime = time.Since(parseStart)

	compileStart := time.Now()
	prog, err := compiler.Compile(table, compiler.NewAllocator())
	if err != nil {
		return nil, err
	}
	res.Stats.CompileTime = time.Since(compileStart)
	res.Stats.Stats = prog.Stats()
	res.Program = prog
	return res, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g graph.Graph, opts RenderOptions) (map[string][]byte, bool, error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, hit, err := r.render(ctx, g, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", time.Since(start))
	return artifacts, hit, nil
}

func (r *Runner) render(ctx context.Context, g graph.Graph, opts RenderOptions) (map[string][]byte, bool, error) {
	// Compute cache key from graph data
	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := Render(g, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g graph.Graph, opts RenderOptions) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
