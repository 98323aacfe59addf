// Package ocr turns photographs into positioned text fragments.
//
// Recognition is delegated to Tesseract through gosseract/v2. Each recognized
// word becomes a layout.Fragment whose region is the word's bounding box listed
// clockwise from the top-left corner; ordering the fragments into lines is the
// job of the layout package, not of this one.
//
// # Prerequisites
//
// Tesseract and the Portuguese language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-por
//   - macOS: brew install tesseract tesseract-lang
//
// A custom tessdata directory can be set with Options.TessdataPrefix.
//
// # External Recognizers
//
// Fragments produced elsewhere, for example by EasyOCR, can be read with
// ParseEasyOCR and fed to the same pipeline.
//
// # Temporary Files
//
// Tesseract reads from a file path. RecognizeImage writes the (preprocessed)
// image to a temporary PNG and removes it once recognition completes.
package ocr
