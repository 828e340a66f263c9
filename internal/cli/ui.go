package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/comboom/pkg/layout"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // member names, ids, commands
	colorGreen  = lipgloss.Color("35")  // success, settled, cache hits
	colorYellow = lipgloss.Color("220") // warnings, settling
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // addresses
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // secondary text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for snapshot and cluster headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for ids and file names.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for listen addresses.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleSettled  = lipgloss.NewStyle().Foreground(colorGreen)
	styleSettling = lipgloss.NewStyle().Foreground(colorYellow)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconSwatch  = "■"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + styleIconWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written artifact path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value in a fixed-width column.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Layout Output
// =============================================================================

// cacheLabel names where a result came from.
func cacheLabel(hit bool) string {
	if hit {
		return styleSettled.Render("cached")
	}
	return StyleDim.Render("fresh")
}

// statsLine summarizes a layout, e.g. "4 members · 2 clusters · 4 relations".
// Relations are left out when there are none.
func statsLine(members, clusters, relations int) string {
	parts := []string{
		plural(members, "member"),
		plural(clusters, "cluster"),
	}
	if relations > 0 {
		parts = append(parts, plural(relations, "relation"))
	}
	return strings.Join(parts, " · ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printStats prints layout counts and whether the result was cached.
func printStats(members, clusters, relations int, cached bool) {
	fmt.Println("  " + StyleDim.Render(statsLine(members, clusters, relations)+" · ") + cacheLabel(cached))
}

// phaseLabel describes how far a layout has come: the frame count while
// settling, or "settled" once the one-way transition fired.
func phaseLabel(ticks int, settled bool) string {
	if settled {
		return styleSettled.Render("settled")
	}
	return styleSettling.Render(fmt.Sprintf("settling, frame %d", ticks))
}

// printClusters lists clusters with their color, size and centroid.
func printClusters(clusters []layout.ClusterView) {
	for _, cl := range clusters {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(cl.Color)).Render(iconSwatch)
		fmt.Printf("%s %s %s\n", swatch, StyleValue.Render(cl.Name),
			StyleDim.Render(fmt.Sprintf("(%s) at %s", plural(cl.Size(), "member"), cl.Centroid)))
	}
}
