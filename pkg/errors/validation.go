package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSpriteID validates a sprite identifier supplied by a caller.
// Sprite identifiers are file names inside the template's sprite directory,
// so anything that could escape that directory is rejected:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No path separators (/ or \)
//   - Not "." or ".."
//   - Maximum length of 255 characters
func ValidateSpriteID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "sprite id cannot be empty")
	}

	if len(id) > 255 {
		return New(ErrCodeInvalidInput, "sprite id too long (max 255 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "sprite id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "sprite id cannot contain path separators: %q", id)
	}

	if id == "." || id == ".." {
		return New(ErrCodeInvalidInput, "sprite id cannot be %q", id)
	}

	return nil
}

// ValidateOutputPath validates the destination path of a composed artifact.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Must carry a file extension (the extension selects the encoder)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i <= 0 || i == len(base)-1 {
		return New(ErrCodeInvalidPath, "output path has no file extension: %q", path)
	}

	return nil
}

// timestampRegex matches HH:MM:SS timestamps as accepted by ffmpeg -ss/-to.
var timestampRegex = regexp.MustCompile(`^[0-9]{2,}:[0-5][0-9]:[0-5][0-9]$`)

// ValidateTimestamp validates a HH:MM:SS timestamp.
func ValidateTimestamp(ts string) error {
	if !timestampRegex.MatchString(ts) {
		return New(ErrCodeInvalidInput, "invalid timestamp %q (want HH:MM:SS)", ts)
	}
	return nil
}
