package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ironsheep/porto-guide/internal/geo"
	"github.com/ironsheep/porto-guide/internal/guide"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorBlue   = lipgloss.Color("75")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleText    = lipgloss.NewStyle().PaddingLeft(2)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconArrow   = "→"
)

func printWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, styleWarning.Render(iconWarning+" "+msg))
}

func printSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleTitle.Render(title))
}

func printScan(w io.Writer, s *guide.Scan) {
	printSection(w, "Extracted text")
	fmt.Fprintln(w, styleText.Render(s.Text))

	if s.Language != nil {
		status := s.Language.Status
		if s.Language.IsPortuguese {
			fmt.Fprintln(w, styleSuccess.Render(iconSuccess+" "+status))
		} else {
			printWarning(w, status)
		}
	}

	if len(s.Translation) > 0 {
		printSection(w, "Translation ("+s.Target+")")
		fmt.Fprintln(w, styleText.Render(strings.Join(s.Translation, "\n")))
	}

	if s.IsAddress {
		printSection(w, "Nearby attractions")
		if s.Location != nil {
			label := "Location"
			if s.Fallback {
				label = "City centre"
			}
			fmt.Fprintf(w, "  %s %s\n", styleDim.Render(label+":"), styleLink.Render(geo.MapURL(*s.Location)))
		}
		printRecommendations(w, s.Recommendations)
	}

	if s.Warning != "" {
		fmt.Fprintln(w)
		printWarning(w, s.Warning)
	}
}

func printRecommendations(w io.Writer, recs []geo.Recommendation) {
	for i, r := range recs {
		fmt.Fprintf(w, "  %s %s %s\n",
			styleNumber.Render(fmt.Sprintf("%d.", i+1)),
			styleTitle.Render(r.Name),
			styleDim.Render(fmt.Sprintf("(%.2f km)", r.DistanceKm)))
		fmt.Fprintf(w, "     %s\n", r.Description)
		fmt.Fprintf(w, "     %s %s\n", iconArrow, styleLink.Render(r.MapURL))
	}
}

func printLandmarks(w io.Writer, landmarks []geo.Landmark) {
	for _, l := range landmarks {
		fmt.Fprintf(w, "%s %s\n  %s\n",
			styleTitle.Render(l.Name),
			styleDim.Render(l.Coordinate().String()),
			l.Description)
	}
}
