// Package pipeline composes match thumbnails from the active template.
//
// A composition takes the current configuration snapshot and stacks, in
// order: the template's background layers, the two selected sprites, the
// foreground layers, and one text layer per positioned text. The stack is
// flattened onto opaque black and written to the requested path.
//
// # Usage
//
//	store, err := config.Load("static/config.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := pipeline.NewRunner(store, nil, nil, logger)
//	result, err := runner.Compose(ctx, pipeline.Request{
//	    Tournament: "Spring Open",
//	    Round:      "Grand Final",
//	    Player1:    "Alice",
//	    Player2:    "Bob",
//	    Sprite1:    "ryu.png",
//	    Sprite2:    "ken.png",
//	    Output:     "out/thumb.jpg",
//	})
//
// Decoded images and rendered text layers are memoized across compositions.
// Both caches are tagged with the configuration generation, so a reload never
// mixes resources of two templates in one output.
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/matchthumb/pkg/errors"
)

// Placeholder tags recognized in a positioned text's "text" field.
const (
	TagTournament = "TOURNAMENT_NAME"
	TagRound      = "ROUND_NAME"
	TagDate       = "DATE"
	TagPlayer1    = "PLAYER_1"
	TagPlayer2    = "PLAYER_2"
)

// Request is one composition: the label values, the two sprite identifiers
// and where to write the result.
type Request struct {
	Tournament string `json:"tournament"`
	Round      string `json:"round,omitempty"`
	Date       string `json:"date,omitempty"`
	Player1    string `json:"player_1"`
	Player2    string `json:"player_2"`
	Sprite1    string `json:"sprite_1"`
	Sprite2    string `json:"sprite_2"`
	Output     string `json:"output,omitempty"`
}

// Resolve maps a template text to the value drawn for this request.
//
// The match is exact and case-sensitive. Any other text is drawn literally,
// which means a literal that happens to equal a tag is replaced too.
func (r Request) Resolve(text string) string {
	switch text {
	case TagTournament:
		return r.Tournament
	case TagRound:
		return r.Round
	case TagDate:
		return r.Date
	case TagPlayer1:
		return r.Player1
	case TagPlayer2:
		return r.Player2
	default:
		return text
	}
}

// Validate checks the sprite identifiers. It does not look at Output, which
// only matters when the result is persisted.
func (r Request) Validate() error {
	if err := errors.ValidateSpriteID(r.Sprite1); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "sprite 1")
	}
	if err := errors.ValidateSpriteID(r.Sprite2); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "sprite 2")
	}
	return nil
}

// Result describes a finished composition.
type Result struct {
	// Output is the path the image was written to. Empty for ComposeImage.
	Output string

	// Digest is the SHA-256 of the encoded file.
	Digest string

	// Generation is the configuration generation the image was built from.
	Generation uint64

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo counts cache hits and misses for this call only.
	CacheInfo CacheInfo
}

// Stats contains composition statistics.
type Stats struct {
	Layers      int
	Width       int
	Height      int
	ComposeTime time.Duration
	EncodeTime  time.Duration
}

// CacheInfo counts per-call cache lookups.
type CacheInfo struct {
	ImageHits   int
	ImageMisses int
	TextHits    int
	TextMisses  int
}

// Filename derives the output file name for a match:
// "{tournament} - {round} - {p1} vs {p2}.{ext}", or without the round part
// when round is empty. A leading dot on ext is accepted.
func Filename(tournament, round, p1, p2, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if round == "" {
		return tournament + " - " + p1 + " vs " + p2 + "." + ext
	}
	return tournament + " - " + round + " - " + p1 + " vs " + p2 + "." + ext
}

// OutputPath joins dir and the derived file name.
func OutputPath(dir string, r Request, ext string) string {
	return filepath.Join(dir, Filename(r.Tournament, r.Round, r.Player1, r.Player2, ext))
}
