package render

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"

	errs "github.com/matzehuels/comboom/pkg/errors"
)

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, FormatPDF)
}

// ToPNG converts SVG bytes to PNG using rsvg-convert. A positive width
// scales the output to that many pixels wide, keeping the aspect ratio.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, width int) ([]byte, error) {
	if width > 0 {
		return rsvgConvert(ctx, svg, FormatPNG, "-w", strconv.Itoa(width), "-a")
	}
	return rsvgConvert(ctx, svg, FormatPNG)
}

// rsvgConvert shells out to rsvg-convert for format conversion.
func rsvgConvert(ctx context.Context, svg []byte, format Format, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errs.New(errs.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", string(format)}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "rsvg-convert: %s", errBuf.String())
	}
	return out.Bytes(), nil
}

// convert dispatches SVG to the requested format.
func convert(ctx context.Context, svg []byte, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatSVG, "":
		return svg, nil
	case FormatPNG:
		return ToPNG(ctx, svg, opts.Width)
	case FormatPDF:
		return ToPDF(ctx, svg)
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported format %q", opts.Format)
	}
}
