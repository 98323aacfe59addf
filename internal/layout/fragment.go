package layout

// Point is a 2D position in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fragment is one recognized text unit.
type Fragment struct {
	// Region is the bounding quadrilateral, starting at the top-left corner and
	// continuing in the detector's winding order.
	Region [4]Point `json:"region"`

	// Text is the recognized string.
	Text string `json:"text"`

	// Confidence is the recognizer's score (0.0 to 1.0). Layout ignores it.
	Confidence float64 `json:"confidence,omitempty"`
}

// TopLeft returns the corner used as the fragment's sort key.
func (f Fragment) TopLeft() Point {
	return f.Region[0]
}

// FromBox builds a fragment from an axis-aligned box, listing the corners
// clockwise from the top-left.
func FromBox(x1, y1, x2, y2 float64, text string, confidence float64) Fragment {
	return Fragment{
		Region: [4]Point{
			{X: x1, Y: y1},
			{X: x2, Y: y1},
			{X: x2, Y: y2},
			{X: x1, Y: y2},
		},
		Text:       text,
		Confidence: confidence,
	}
}
