package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/matchthumb/pkg/pipeline"
)

// stdout receives all status output. Tests swap it.
var stdout io.Writer = os.Stdout

// Palette, 256-color codes.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess), fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError), fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line under a status message.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, " ", StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written artifact.
func printFile(path string) {
	fmt.Fprintln(stdout, " ", StyleDim.Render(iconArrow), StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key), StyleValue.Render(value))
}

// printCacheInfo summarizes one composition's cache lookups, e.g.
// "images 4 cached + 1 fresh · texts 3 cached".
func printCacheInfo(info pipeline.CacheInfo) {
	fmt.Fprintln(stdout, " ",
		cachePart("images", info.ImageHits, info.ImageMisses)+
			StyleDim.Render(" · ")+
			cachePart("texts", info.TextHits, info.TextMisses))
}

func cachePart(label string, hits, misses int) string {
	s := StyleDim.Render(label + " ")
	if hits > 0 {
		s += styleCached.Render(fmt.Sprintf("%d %s", hits, iconCached))
	}
	if hits > 0 && misses > 0 {
		s += StyleDim.Render(" + ")
	}
	if misses > 0 || hits == 0 {
		s += styleComputed.Render(fmt.Sprintf("%d %s", misses, iconFresh))
	}
	return s
}

func printNewline() {
	fmt.Fprintln(stdout)
}
