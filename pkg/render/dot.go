package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Labels draws member and cluster names.
	Labels bool
}

// ToDOT converts a snapshot to an undirected Graphviz graph with every
// node pinned at its layout position. Graphviz's y axis points up, so y is
// negated. Cluster names become plaintext nodes at their centroids.
func ToDOT(snap layout.Snapshot, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  bgcolor=\"#1e1e1e\";\n")
	fmt.Fprintf(&buf, "  node [shape=circle, fixedsize=true, width=%.4f, style=filled, fillcolor=black, color=white, penwidth=%g, fontname=\"Courier New\", fontsize=%g, fontcolor=white];\n",
		2*MemberRadius/72, strokeWidth, memberFontSize)
	fmt.Fprintf(&buf, "  edge [penwidth=%g];\n", strokeWidth)
	buf.WriteString("\n")

	for _, m := range snap.Members {
		label := ""
		if opts.Labels {
			label = MemberLabel(m.Name)
		}
		fmt.Fprintf(&buf, "  %q [pos=\"%s!\", label=%q];\n", "m:"+m.Name, dotPos(m.Pos.X, m.Pos.Y), label)
	}

	if opts.Labels {
		buf.WriteString("\n")
		for _, c := range snap.Clusters {
			fmt.Fprintf(&buf, "  %q [shape=plaintext, style=\"\", fixedsize=false, pos=\"%s!\", label=%q, fontsize=%g, fontcolor=%q];\n",
				"c:"+c.Name, dotPos(c.Centroid.X, c.Centroid.Y), c.Name, 25*ClusterLabelScale(c.Size()), DOTColor(c.Color))
		}
	}

	buf.WriteString("\n")
	for _, e := range snap.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [color=%q];\n", "m:"+e.A, "m:"+e.B, DOTColor(e.Color))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotPos(x, y float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64) + "," + strconv.FormatFloat(-y, 'f', 2, 64)
}

var rgbRe = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})`)

// DOTColor converts a manifest color to one Graphviz understands. Hex and
// named colors pass through, rgb() becomes hex, anything else is grey.
func DOTColor(c string) string {
	c = strings.TrimSpace(c)
	switch {
	case strings.HasPrefix(c, "#"):
		return c
	case rgbRe.MatchString(c):
		m := rgbRe.FindStringSubmatch(c)
		var out [3]int
		for i := range out {
			v, _ := strconv.Atoi(m[i+1])
			out[i] = min(v, 255)
		}
		return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
	case strings.ContainsAny(c, "(),"):
		return "gray50"
	default:
		return strings.ToLower(c)
	}
}

// RenderGraphviz lays out a pinned DOT graph with neato and returns SVG.
func RenderGraphviz(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag, which sizes in points, with
// one sized in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
