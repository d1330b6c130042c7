// Package text renders template labels into full-canvas transparent layers.
//
// A label is drawn so that the ink box of the unrotated string is centered on
// its anchor, then the whole canvas is rotated about the anchor. Layers are
// memoized per configuration generation by a quantized key, see
// [cache.TextKey].
package text

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/matchthumb/pkg/cache"
	"github.com/matzehuels/matchthumb/pkg/config"
	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/fonts"
)

// GlyphColor is the fill used for every label.
var GlyphColor = color.RGBA{R: 227, G: 228, B: 229, A: 255}

// Label is one resolved text element: what to draw and where.
type Label struct {
	Text     string
	X, Y     int
	Scale    float64 // font size in pixels
	Rotation float64 // radians, clockwise on screen, about (X, Y)
}

// Key returns the memoization key of the label.
func (l Label) Key() cache.TextKey {
	return cache.NewTextKey(l.Text, l.X, l.Y, l.Scale, l.Rotation)
}

// Renderer draws labels and memoizes the resulting layers.
type Renderer struct {
	memo *cache.Memo[cache.TextKey, *image.RGBA]
}

// NewRenderer creates a renderer with an empty layer cache.
func NewRenderer() *Renderer {
	return &Renderer{memo: cache.NewMemo[cache.TextKey, *image.RGBA]()}
}

// NewNullRenderer creates a renderer that never reuses layers.
func NewNullRenderer() *Renderer {
	return &Renderer{memo: cache.NewNullMemo[cache.TextKey, *image.RGBA]()}
}

// Render returns the layer for l using the snapshot's font and canvas size.
// The boolean reports a cache hit. The returned image is shared and must not
// be modified.
func (r *Renderer) Render(snap config.Snapshot, l Label) (*image.RGBA, bool, error) {
	return r.memo.GetOrCompute(l.Key(), snap.Generation, func() (*image.RGBA, error) {
		return Draw(snap.Font, snap.Template.Width, snap.Template.Height, l)
	})
}

// Purge drops layers rendered under generations older than gen.
func (r *Renderer) Purge(gen uint64) int { return r.memo.Purge(gen) }

// Clear empties the layer cache.
func (r *Renderer) Clear() { r.memo.Clear() }

// Stats returns hit and miss counters of the layer cache.
func (r *Renderer) Stats() cache.Stats { return r.memo.Stats() }

// Draw renders l onto a new width x height transparent canvas without caching.
func Draw(f *fonts.Font, width, height int, l Label) (*image.RGBA, error) {
	if f == nil {
		return nil, errors.New(errors.ErrCodeResourceLoad, "no font loaded")
	}
	face, err := f.Face(l.Scale)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "render %q", l.Text)
	}
	defer face.Close()

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	ink, _ := font.BoundString(face, l.Text)
	w := (ink.Max.X - ink.Min.X).Ceil()
	h := (ink.Max.Y - ink.Min.Y).Ceil()
	if w <= 0 || h <= 0 {
		return canvas, nil
	}

	left := l.X - w/2
	top := l.Y - h/2
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(GlyphColor),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(left) - ink.Min.X,
			Y: fixed.I(top) - ink.Min.Y,
		},
	}
	d.DrawString(l.Text)

	if cache.Quantize(l.Rotation) == 0 {
		return canvas, nil
	}
	return Rotate(canvas, l.X, l.Y, l.Rotation), nil
}

// Rotate returns a copy of src rotated by theta radians about the center of
// pixel (cx, cy), resampled with Catmull-Rom. Pixels whose source falls
// outside src are left fully transparent.
func Rotate(src *image.RGBA, cx, cy int, theta float64) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())

	sin, cos := math.Sincos(theta)
	px := float64(cx) + 0.5
	py := float64(cy) + 0.5
	s2d := f64.Aff3{
		cos, -sin, px - cos*px + sin*py,
		sin, cos, py - sin*px - cos*py,
	}
	draw.CatmullRom.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
	return dst
}
