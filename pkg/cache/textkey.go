package cache

// quantum is the number of key steps per unit for scale and rotation.
const quantum = 1000

// TextKey identifies one rendered text layer.
//
// Scale and rotation are quantized to three decimal digits so that
// floating-point noise in the template does not multiply cache entries.
type TextKey struct {
	Text     string
	X, Y     int
	Scale    int64
	Rotation int64
}

// NewTextKey builds the cache key for a text layer.
func NewTextKey(text string, x, y int, scale, rotation float64) TextKey {
	return TextKey{
		Text:     text,
		X:        x,
		Y:        y,
		Scale:    Quantize(scale),
		Rotation: Quantize(rotation),
	}
}

// Quantize multiplies v by 1000 and truncates toward zero.
// 0.0019 and 0.0011 share the key 1; -0.0019 maps to -1, not -2.
func Quantize(v float64) int64 {
	return int64(v * quantum)
}
