package cache

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/matchthumb/pkg/errors"
)

// ImageCache memoizes decoded layer images by path.
//
// The key is the exact path string the caller passes in. No normalization is
// done, so "a/../bg.png" and "bg.png" are cached separately.
type ImageCache struct {
	memo *Memo[string, *image.NRGBA]
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{memo: NewMemo[string, *image.NRGBA]()}
}

// NewNullImageCache creates an image cache that decodes on every call.
func NewNullImageCache() *ImageCache {
	return &ImageCache{memo: NewNullMemo[string, *image.NRGBA]()}
}

// Load returns the decoded image at path for configuration generation gen.
// The returned image is shared; callers must not modify it.
// Read and decode failures are reported as RESOURCE_LOAD errors and are not cached.
func (c *ImageCache) Load(path string, gen uint64) (*image.NRGBA, bool, error) {
	return c.memo.GetOrCompute(path, gen, func() (*image.NRGBA, error) {
		return Decode(path)
	})
}

// Purge drops images decoded under generations older than gen.
func (c *ImageCache) Purge(gen uint64) int { return c.memo.Purge(gen) }

// Clear empties the cache.
func (c *ImageCache) Clear() { c.memo.Clear() }

// Len returns the number of cached images.
func (c *ImageCache) Len() int { return c.memo.Len() }

// Stats returns hit and miss counters.
func (c *ImageCache) Stats() Stats { return c.memo.Stats() }

// Decode reads and decodes the image file at path into an NRGBA buffer.
// Supported formats are those registered by imaging: PNG, JPEG, GIF, TIFF and BMP.
func Decode(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceLoad, err, "load image %s", path)
	}
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}
	return imaging.Clone(img), nil
}
