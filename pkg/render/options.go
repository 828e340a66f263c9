package render

import (
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/comboom/pkg/errors"
)

// Format is a screenshot output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// Engine selects how SVG is produced.
type Engine string

const (
	EngineNative   Engine = "native"
	EngineGraphviz Engine = "graphviz"
)

// Screenshot defaults match the canvas export size.
const (
	DefaultWidth  = 5000
	DefaultHeight = 2500
)

// Options describes one screenshot.
type Options struct {
	Format Format `json:"format" toml:"format" validate:"oneof=svg png pdf"`
	Engine Engine `json:"engine" toml:"engine" validate:"oneof=native graphviz"`
	Width  int    `json:"width" toml:"width" validate:"gte=0,lte=20000"`
	Height int    `json:"height" toml:"height" validate:"gte=0,lte=20000"`
	// Labels draws member and cluster names.
	Labels bool `json:"labels" toml:"labels"`
}

// DefaultOptions returns a labelled native SVG at the default size.
func DefaultOptions() Options {
	return Options{
		Format: FormatSVG,
		Engine: EngineNative,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Labels: true,
	}
}

// Validate reports invalid options as errors.ErrCodeInvalidInput.
func (o Options) Validate() error {
	return errs.Struct(errs.ErrCodeInvalidInput, o)
}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	default:
		return "", errs.New(errs.ErrCodeUnsupported, "unsupported screenshot format %q (use svg, png or pdf)", s)
	}
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/svg+xml"
	}
}
