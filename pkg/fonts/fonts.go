// Package fonts parses font resources for text layer rendering.
//
// A template references its font by path; the configuration store reads the
// bytes and calls [Parse] once per load. The resulting [Font] is immutable and
// safe for concurrent use; each render obtains its own short-lived face via
// [Font.Face] because faces are not safe for concurrent use.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DPI is fixed at 72 so that a face size in points equals its size in pixels.
const DPI = 72

// Font is a parsed TrueType/OpenType font together with its source bytes.
type Font struct {
	data []byte
	otf  *opentype.Font
}

// Parse parses TrueType or OpenType font data.
// The data slice is copied; callers may reuse it.
func Parse(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("parse font: empty data")
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	otf, err := opentype.Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Font{data: buf, otf: otf}, nil
}

// Face returns a new face rendering at size pixels.
// The caller owns the face and must Close it.
func (f *Font) Face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(f.otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     DPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// Size returns the length of the font's source data in bytes.
func (f *Font) Size() int {
	return len(f.data)
}

// Cache for the parsed fallback font (computed once on first access).
var (
	fallback     *Font
	fallbackErr  error
	fallbackOnce sync.Once
)

// GoRegularTTF returns the Go Regular TrueType font data.
func GoRegularTTF() []byte {
	return goregular.TTF
}

// Fallback returns the parsed Go Regular font.
// The result is cached after first computation.
func Fallback() (*Font, error) {
	fallbackOnce.Do(func() {
		fallback, fallbackErr = Parse(goregular.TTF)
	})
	return fallback, fallbackErr
}
