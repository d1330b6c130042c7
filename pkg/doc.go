// Package pkg provides the libraries behind matchthumb, a tool that renders
// tournament match thumbnails from a layered template.
//
// # Overview
//
// A thumbnail is a stack of layers painted onto a fixed-size canvas:
// background images, the two players' sprites, foreground images and text
// labels. The template document describes the stack; a request supplies the
// label values and the sprite identifiers.
//
// # Architecture
//
//	config document (json, toml, yaml) + font
//	         ↓
//	    [config] Store (active template/font pair, reloadable)
//	         ↓
//	    [pipeline] Runner ← [cache] decoded layers, [render/text] label layers
//	         ↓
//	    flattened image → jpg/png/gif/tif/bmp on disk
//
// [jobs] queues compositions and [video] trims on a worker pool, so the
// form and the HTTP server never block on a running job.
//
// # Quick Start
//
//	store, _ := config.Load("static/config.json")
//	runner := pipeline.NewRunner(store, nil, nil, nil)
//	result, err := runner.Compose(ctx, pipeline.Request{
//	    Tournament: "Spring Open",
//	    Player1:    "Alice",
//	    Sprite1:    "ryu.png",
//	    Player2:    "Bob",
//	    Sprite2:    "ken.png",
//	    Output:     "Spring Open - Alice vs Bob.jpg",
//	})
//
// # Main Packages
//
// [config] - Template documents, the active snapshot and reload.
//
// [cache] - Generation-tagged memoization of decoded images and rendered
// labels. Entries of older generations are purged after a reload.
//
// [render/text] - Rasterizes, centers and rotates text labels.
//
// [pipeline] - Layer stacking, flattening and encoding.
//
// [video] - ffmpeg stream-copy trimming.
//
// [jobs] - Job records, worker pool and memory, Redis and MongoDB stores.
//
// [observability] - Hooks for compositions, caches and jobs.
//
// [errors] - Error codes and input validation.
//
// [fonts] - TrueType/OpenType parsing and the built-in fallback face.
//
// # Testing
//
//	go test ./...
package pkg
