// Package layout reconstructs natural reading order from recognized text fragments.
//
// An OCR engine reports words as unordered fragments, each with a quadrilateral
// bounding region in image pixel coordinates. This package groups those fragments
// into printed lines by the vertical proximity of their top-left corners and orders
// each line left to right.
//
// # Coordinate System
//
// Coordinates follow the image convention used throughout the project:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// The first point of a fragment's region is its top-left corner. That is the
// convention of every recognizer in this project; the package never inspects the
// other three points.
//
// # Line Grouping
//
// Fragments are sorted by (y, x) of their top-left corner, then walked once. A
// fragment joins the current line when its y is within the threshold of the y of
// the fragment appended to that line last. Comparing against the last fragment
// rather than the first lets a tilted line drift gradually without splitting; two
// close lines may chain into one.
//
// # Thread Safety
//
// Reconstruct and GroupLines are pure functions. They never modify their input and
// may be called concurrently.
package layout
