// Package imaging loads photographs of signage and prepares them for OCR.
//
// All coordinates are 0-based pixels with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions are given as (x1,y1)
// inclusive and (x2,y2) exclusive.
//
// # Caching
//
// ImageCache keeps decoded images keyed by path or upload ID so the MCP tools
// can crop and re-read the same photo without decoding it again. It is safe for
// concurrent use.
//
// # Preprocessing
//
// Street signs in Porto are mostly white lettering on blue azulejo tiles, shot
// on phone cameras at an angle. Preprocess converts to grayscale, raises
// contrast, inverts dark images so text is dark on light, and upscales small
// photos. Tesseract reads the result noticeably better than the raw photo.
package imaging
