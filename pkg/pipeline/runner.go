package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/matzehuels/matchthumb/pkg/cache"
	"github.com/matzehuels/matchthumb/pkg/config"
	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/observability"
	"github.com/matzehuels/matchthumb/pkg/render/text"
)

// Runner composes thumbnails against a configuration store.
// Both CLI and API share one Runner so that they share its caches.
//
// The Runner keeps no per-composition state. Multiple goroutines can safely
// call Compose concurrently.
type Runner struct {
	Store  *config.Store
	Images *cache.ImageCache
	Texts  *text.Renderer
	Logger *log.Logger
}

// NewRunner creates a runner over store.
// If images or texts is nil, a fresh memoizing cache is used.
// The runner registers a reload hook on store that purges stale generations.
func NewRunner(store *config.Store, images *cache.ImageCache, texts *text.Renderer, logger *log.Logger) *Runner {
	if images == nil {
		images = cache.NewImageCache()
	}
	if texts == nil {
		texts = text.NewRenderer()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Store:  store,
		Images: images,
		Texts:  texts,
		Logger: logger,
	}
	store.OnReload(r.purge)
	return r
}

func (r *Runner) purge(snap config.Snapshot) {
	images := r.Images.Purge(snap.Generation)
	texts := r.Texts.Purge(snap.Generation)
	ctx := context.Background()
	observability.Cache().OnCachePurge(ctx, observability.CacheImage, images)
	observability.Cache().OnCachePurge(ctx, observability.CacheText, texts)
	r.Logger.Debug("purged stale cache entries",
		"generation", snap.Generation,
		"images", images,
		"texts", texts)
}

// Reload re-reads the configuration. See [config.Store.Reload].
func (r *Runner) Reload() error {
	return r.Store.Reload()
}

// Compose builds the thumbnail for req and writes it to req.Output, in the
// format implied by the output's extension.
func (r *Runner) Compose(ctx context.Context, req Request) (*Result, error) {
	if err := errors.ValidateOutputPath(req.Output); err != nil {
		return nil, err
	}
	format, err := imaging.FormatFromFilename(req.Output)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCompositionIO, err, "output %s", req.Output)
	}

	img, result, err := r.ComposeImage(ctx, req)
	if err != nil {
		return nil, err
	}

	encodeStart := time.Now()
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	if err := os.WriteFile(req.Output, buf.Bytes(), 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCompositionIO, err, "write %s", req.Output)
	}
	result.Output = req.Output
	result.Digest = cache.Digest(buf.Bytes())
	result.Stats.EncodeTime = time.Since(encodeStart)

	r.Logger.Info("composed thumbnail",
		"output", req.Output,
		"layers", result.Stats.Layers,
		"generation", result.Generation,
		"duration", result.Stats.ComposeTime+result.Stats.EncodeTime)
	return result, nil
}

// ComposeImage builds the flattened thumbnail for req without persisting it.
// The returned image is opaque and owned by the caller.
func (r *Runner) ComposeImage(ctx context.Context, req Request) (img *image.NRGBA, result *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnComposeStart(ctx, req.Sprite1, req.Sprite2)
	defer func() {
		layers := 0
		if result != nil {
			layers = result.Stats.Layers
		}
		hooks.OnComposeComplete(ctx, layers, time.Since(start), err)
	}()

	snap := r.Store.Current()
	t := snap.Template
	result = &Result{Generation: snap.Generation}
	result.Stats.Width = t.Width
	result.Stats.Height = t.Height

	canvas := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))

	for _, path := range imagePaths(t, req) {
		layer, hit, err := r.Images.Load(path, snap.Generation)
		if err != nil {
			return nil, nil, err
		}
		countHit(ctx, observability.CacheImage, hit, &result.CacheInfo.ImageHits, &result.CacheInfo.ImageMisses)
		overlay(canvas, layer)
		result.Stats.Layers++
	}

	for _, pt := range t.Texts {
		label := text.Label{
			Text:     req.Resolve(pt.Text),
			X:        pt.X,
			Y:        pt.Y,
			Scale:    pt.Scale,
			Rotation: pt.Rotation,
		}
		layer, hit, err := r.Texts.Render(snap, label)
		if err != nil {
			return nil, nil, err
		}
		countHit(ctx, observability.CacheText, hit, &result.CacheInfo.TextHits, &result.CacheInfo.TextMisses)
		overlay(canvas, layer)
		result.Stats.Layers++
	}

	out := Flatten(canvas)
	result.Stats.ComposeTime = time.Since(start)

	r.Logger.Debug("composed layers",
		"layers", result.Stats.Layers,
		"image_hits", result.CacheInfo.ImageHits,
		"text_hits", result.CacheInfo.TextHits,
		"duration", result.Stats.ComposeTime)
	return out, result, nil
}

// imagePaths lists the raster layers in stacking order: backgrounds, the two
// sprites, then foregrounds.
func imagePaths(t config.Template, req Request) []string {
	paths := make([]string, 0, len(t.BackgroundLayers)+2+len(t.ForegroundLayers))
	for _, l := range t.BackgroundLayers {
		paths = append(paths, t.Resolve(l))
	}
	paths = append(paths, t.SpritePath(req.Sprite1), t.SpritePath(req.Sprite2))
	for _, l := range t.ForegroundLayers {
		paths = append(paths, t.Resolve(l))
	}
	return paths
}

// overlay draws src over dst with source-over, top-left aligned.
func overlay(dst *image.NRGBA, src image.Image) {
	r := src.Bounds().Sub(src.Bounds().Min)
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}

// Flatten composites img onto opaque black, discarding its alpha channel.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.Black)
	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

// Encode writes img to w in format.
func Encode(w io.Writer, img image.Image, format imaging.Format) error {
	if err := imaging.Encode(w, img, format); err != nil {
		return errors.Wrap(errors.ErrCodeCompositionIO, err, "encode %s", format)
	}
	return nil
}

func countHit(ctx context.Context, kind string, hit bool, hits, misses *int) {
	if hit {
		*hits++
		observability.Cache().OnCacheHit(ctx, kind)
	} else {
		*misses++
		observability.Cache().OnCacheMiss(ctx, kind)
	}
}
