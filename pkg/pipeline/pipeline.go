// Package pipeline provides the check and render pipeline for flowscope.
//
// This package implements the parse → normalize → compile → render pipeline
// used by the CLI, the HTTP API and the debugger attach loop. By centralizing
// this logic, every entry point reports the same errors for the same
// document and renders the same artifacts.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Check: Decode the document, normalize it into a declaration table and
//     compile it into a [compiler.Program]
//  2. Render: Generate output for the program's visualization graph in
//     various formats (JSON, DOT, SVG, PDF, PNG)
//
// Checking is cheap and never cached; rendered artifacts are cached by
// content hash of the visualization graph.
//
// # Usage
//
// Create a Runner and check a document:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Check(ctx, pipeline.CheckOptions{Source: "flow.toml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Render the compiled graph:
//
//	artifacts, err := runner.Render(ctx, res.Program.Graph, pipeline.RenderOptions{
//	    Formats: []string{"svg"},
//	})
//	svg := artifacts["svg"]
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultLayout is the default Graphviz layout engine.
	DefaultLayout = nodelink.LayoutDot

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// CheckOptions selects the document to check.
// This struct supports JSON serialization for API requests.
type CheckOptions struct {
	// Source is a file path. It is read when Data is empty and names the
	// document in logs otherwise.
	Source string `json:"source,omitempty"`

	// Data is the document text.
	Data []byte `json:"-"`

	// Format is "toml" or "json". Empty infers it from Source, defaulting
	// to TOML.
	Format string `json:"format,omitempty"`
}

// RenderOptions configures artifact rendering.
// This struct supports JSON serialization for API requests.
type RenderOptions struct {
	Formats  []string `json:"formats,omitempty"`
	Layout   string   `json:"layout,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Blocked ids are highlighted before rendering.
	Blocked []int `json:"blocked,omitempty"`

	// Refresh skips the artifact cache.
	Refresh bool `json:"refresh,omitempty"`
}

// Result contains the outputs of a check.
type Result struct {
	// Program is the compiled document.
	Program *compiler.Program

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	compiler.Stats
	ParseTime   time.Duration
	CompileTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults sets default values for rendering.
func (o *RenderOptions) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
}

// Validate sets defaults and checks formats and layout engine.
func (o *RenderOptions) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return nodelink.ValidateLayout(o.Layout)
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *RenderOptions) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:  format,
		Layout:  o.Layout,
		Blocked: o.Blocked,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	if o.Detailed {
		opts.Layout += "+detailed"
	}
	return opts
}
