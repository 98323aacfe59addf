package layout

import (
	"math"
	"sort"
	"strings"
)

// DefaultYThreshold is the line grouping distance, in pixels, used when the
// caller has no better value.
const DefaultYThreshold = 20.0

// Reconstruct returns the fragments' text in reading order.
//
// Lines are joined with "\n" and fragments within a line with a single space.
// An empty input yields "". Leading and trailing whitespace is left to the
// caller.
func Reconstruct(fragments []Fragment, yThreshold float64) string {
	lines := GroupLines(fragments, yThreshold)

	out := make([]string, len(lines))
	for i, line := range lines {
		words := make([]string, len(line))
		for j, f := range line {
			words[j] = f.Text
		}
		out[i] = strings.Join(words, " ")
	}
	return strings.Join(out, "\n")
}

// GroupLines groups fragments into lines ordered top to bottom, each line
// ordered left to right.
//
// Every input fragment appears in exactly one line. The input slice is not
// modified.
func GroupLines(fragments []Fragment, yThreshold float64) [][]Fragment {
	if len(fragments) == 0 {
		return nil
	}

	sorted := make([]Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].TopLeft(), sorted[j].TopLeft()
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	var lines [][]Fragment
	current := []Fragment{sorted[0]}
	for _, f := range sorted[1:] {
		last := current[len(current)-1]
		if math.Abs(f.TopLeft().Y-last.TopLeft().Y) < yThreshold {
			current = append(current, f)
			continue
		}
		lines = append(lines, current)
		current = []Fragment{f}
	}
	lines = append(lines, current)

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].TopLeft().X < line[j].TopLeft().X
		})
	}
	return lines
}

// SplitLines splits reconstructed text into its lines. An empty string has no
// lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
