package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/vec"
)

// Drawing constants in world units.
const (
	MemberRadius   = 50.0
	strokeWidth    = 3.0
	memberFontSize = 20.0
	lineHeight     = 20.0
	fontFamily     = "Courier New, monospace"
)

// clusterLabelScale bounds the member count used to size cluster names.
var clusterLabelScale = vec.NewBand(4, 15)

// SVGOption configures native SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height int
	labels        bool
	background    string
	padding       float64
}

// WithSize sets the output size in pixels. The view is widened or heightened
// to keep the layout's aspect ratio.
func WithSize(w, h int) SVGOption {
	return func(r *svgRenderer) { r.width, r.height = w, h }
}

// WithoutLabels omits member names and cluster labels.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// WithBackground sets the fill of the background rectangle. An empty color
// leaves the background transparent.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithPadding sets the world-space margin around the layout.
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// RenderSVG draws snap: links first, then member discs, then cluster names
// on top.
func RenderSVG(snap layout.Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{labels: true, background: "#1e1e1e", padding: 100}
	for _, opt := range opts {
		opt(&r)
	}

	view := r.viewBox(snap)
	size := view.Size()
	w, h := float64(r.width), float64(r.height)
	if w <= 0 || h <= 0 {
		w, h = size.X, size.Y
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		view.Min.X, view.Min.Y, size.X, size.Y, w, h)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
			view.Min.X, view.Min.Y, size.X, size.Y, escapeXML(r.background))
	}

	buf.WriteString(`  <g class="links" stroke-linecap="round">` + "\n")
	for _, e := range snap.Edges {
		fmt.Fprintf(&buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"/>`+"\n",
			e.From.X, e.From.Y, e.To.X, e.To.Y, escapeXML(e.Color), strokeWidth)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="members">` + "\n")
	for _, m := range snap.Members {
		r.renderMember(&buf, m)
	}
	buf.WriteString("  </g>\n")

	if r.labels {
		buf.WriteString(`  <g class="clusters" text-anchor="middle" dominant-baseline="middle" paint-order="stroke">` + "\n")
		for _, c := range snap.Clusters {
			renderClusterLabel(&buf, c)
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderMember(buf *bytes.Buffer, m layout.MemberView) {
	stroke := "white"
	if m.Pinned {
		stroke = "gold"
	}
	fmt.Fprintf(buf, `    <g class="member" data-name="%s" transform="translate(%.2f %.2f)">`+"\n", escapeXML(m.Name), m.Pos.X, m.Pos.Y)
	fmt.Fprintf(buf, `      <circle r="%g" fill="black" stroke="%s" stroke-width="%g"/>`+"\n", MemberRadius, stroke, strokeWidth)
	if r.labels {
		writeMultiline(buf, MemberLabel(m.Name), vec.Zero(), lineHeight,
			fmt.Sprintf(`font-family="%s" font-size="%g" fill="white" text-anchor="middle" dominant-baseline="middle"`, fontFamily, memberFontSize))
	}
	buf.WriteString("    </g>\n")
}

func renderClusterLabel(buf *bytes.Buffer, c layout.ClusterView) {
	scale := ClusterLabelScale(c.Size())
	attrs := fmt.Sprintf(`font-family="%s" font-size="%g" font-weight="bold" fill="%s" stroke="white" stroke-width="%g"`,
		fontFamily, 25*scale, escapeXML(c.Color), 0.5*scale)
	writeMultiline(buf, c.Name, c.Centroid, 25*scale, attrs)
}

// writeMultiline writes one <text> per line, vertically centered on at.
func writeMultiline(buf *bytes.Buffer, text string, at vec.Vec2, step float64, attrs string) {
	lines := strings.Split(text, "\n")
	top := at.Y - step*float64(len(lines)-1)/2
	for i, line := range lines {
		fmt.Fprintf(buf, `      <text x="%.2f" y="%.2f" %s>%s</text>`+"\n", at.X, top+step*float64(i), attrs, escapeXML(line))
	}
}

// viewBox frames every member disc and cluster centroid plus padding,
// grown to the requested aspect ratio.
func (r *svgRenderer) viewBox(snap layout.Snapshot) vec.Rect {
	box := snap.Bounds()
	if len(snap.Members) > 0 {
		box.Min = box.Min.Sub(vec.New(MemberRadius, MemberRadius))
		box.Max = box.Max.Add(vec.New(MemberRadius, MemberRadius))
	}
	for _, c := range snap.Clusters {
		box.Min = vec.New(math.Min(box.Min.X, c.Centroid.X), math.Min(box.Min.Y, c.Centroid.Y))
		box.Max = vec.New(math.Max(box.Max.X, c.Centroid.X), math.Max(box.Max.Y, c.Centroid.Y))
	}
	pad := vec.New(r.padding, r.padding)
	box = vec.Rect{Min: box.Min.Sub(pad), Max: box.Max.Add(pad)}

	if r.width <= 0 || r.height <= 0 {
		return box
	}
	size := box.Size()
	want := float64(r.width) / float64(r.height)
	switch have := size.X / size.Y; {
	case have < want:
		grow := (size.Y*want - size.X) / 2
		box.Min.X -= grow
		box.Max.X += grow
	case have > want:
		grow := (size.X/want - size.Y) / 2
		box.Min.Y -= grow
		box.Max.Y += grow
	}
	return box
}

// MemberLabel breaks a member name at its first space, the way it is drawn
// inside the disc.
func MemberLabel(name string) string {
	return strings.Replace(name, " ", "\n", 1)
}

// ClusterLabelScale maps a member count into the label scale band [4, 15].
func ClusterLabelScale(members int) float64 {
	return clusterLabelScale.Clamp(float64(members))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
