package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/matchthumb/pkg/errors"
)

// Template is one thumbnail layout: canvas size, resource locations and the
// ordered layer stack. Layer order is paint order.
type Template struct {
	Width            int              `json:"width" toml:"width" yaml:"width"`
	Height           int              `json:"height" toml:"height" yaml:"height"`
	BasePath         string           `json:"base_path" toml:"base_path" yaml:"base_path"`
	SpriteDir        string           `json:"sprite_dir" toml:"sprite_dir" yaml:"sprite_dir"`
	Font             string           `json:"font" toml:"font" yaml:"font"`
	BackgroundLayers []string         `json:"background_layers" toml:"background_layers" yaml:"background_layers"`
	ForegroundLayers []string         `json:"foreground_layers" toml:"foreground_layers" yaml:"foreground_layers"`
	Texts            []PositionedText `json:"texts" toml:"texts" yaml:"texts"`
}

// PositionedText is a text label anchored at (X, Y).
// Text is either a reserved placeholder or a literal.
// Scale is the font size in pixels and Rotation is in radians about the anchor.
type PositionedText struct {
	Text     string  `json:"text" toml:"text" yaml:"text"`
	X        int     `json:"x" toml:"x" yaml:"x"`
	Y        int     `json:"y" toml:"y" yaml:"y"`
	Scale    float64 `json:"scale" toml:"scale" yaml:"scale"`
	Rotation float64 `json:"rotation" toml:"rotation" yaml:"rotation"`
}

// Document formats, selected by file extension.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// FormatFor returns the document format for path based on its extension.
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported config format %q (want .json, .toml, .yaml)", filepath.Ext(path))
	}
}

// ParseTemplate decodes a template document in the given format and validates it.
func ParseTemplate(data []byte, format string) (Template, error) {
	var t Template
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&t); err != nil {
			return Template{}, fmt.Errorf("decode json: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &t)
		if err != nil {
			return Template{}, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Template{}, fmt.Errorf("decode toml: unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return Template{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Template{}, errors.New(errors.ErrCodeUnsupported, "unsupported config format %q", format)
	}

	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Validate checks the template for values that cannot produce an image.
func (t Template) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive, got %dx%d", t.Width, t.Height)
	}
	if t.SpriteDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "sprite_dir cannot be empty")
	}
	for i, layer := range t.BackgroundLayers {
		if layer == "" {
			return errors.New(errors.ErrCodeInvalidInput, "background_layers[%d] is empty", i)
		}
	}
	for i, layer := range t.ForegroundLayers {
		if layer == "" {
			return errors.New(errors.ErrCodeInvalidInput, "foreground_layers[%d] is empty", i)
		}
	}
	for i, pt := range t.Texts {
		if pt.Scale <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "texts[%d] (%q): scale must be positive", i, pt.Text)
		}
	}
	return nil
}

// Resolve joins a template-relative path onto the base path.
func (t Template) Resolve(rel string) string {
	return filepath.Join(t.BasePath, rel)
}

// SpritePath returns the resolved path of a sprite identifier.
func (t Template) SpritePath(id string) string {
	return filepath.Join(t.BasePath, t.SpriteDir, id)
}

// FontPath returns the resolved font path, or "" when the built-in font is used.
func (t Template) FontPath() string {
	if t.Font == "" {
		return ""
	}
	return t.Resolve(t.Font)
}

// Clone returns a deep copy so callers never share slices with the store.
func (t Template) Clone() Template {
	out := t
	out.BackgroundLayers = append([]string(nil), t.BackgroundLayers...)
	out.ForegroundLayers = append([]string(nil), t.ForegroundLayers...)
	out.Texts = append([]PositionedText(nil), t.Texts...)
	return out
}
