//go:build !tesseract

package ocr

// This build leaves out the gosseract backend so that the module builds
// without libtesseract and leptonica. Rebuild with -tags tesseract to enable it.

const tesseractCompiled = false

func newTesseract(*Options) (Engine, error) {
	return nil, ErrTesseractNotCompiled
}
