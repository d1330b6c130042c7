package errors

import (
	"testing"
)

func TestValidateSpriteID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid png", "ryu.png", false},
		{"valid with spaces", "Chun Li.png", false},
		{"valid no extension", "ken", false},
		{"valid leading dot", ".hidden.png", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "chars/ryu.png", true},
		{"backslash", "chars\\ryu.png", true},
		{"traversal", "../config.json", true},
		{"null byte", "ryu\x00.png", true},
		{"newline", "ryu\n.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpriteID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpriteID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateSpriteID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid jpg", "out/Spring Open - Alice vs Bob.jpg", false},
		{"valid absolute", "/tmp/thumb.png", false},
		{"valid windows", `C:\thumbs\thumb.png`, false},

		{"empty", "", true},
		{"no extension", "out/thumb", true},
		{"trailing dot", "out/thumb.", true},
		{"dotfile only", "out/.png", true},
		{"directory dot", "out.d/thumb", true},
		{"null byte", "thumb\x00.png", true},
		{"too long", string(make([]byte, 5000)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTimestamp(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"00:00:00", false},
		{"01:59:59", false},
		{"123:00:00", false},

		{"", true},
		{"0:00:00", true},
		{"00:60:00", true},
		{"00:00:60", true},
		{"00:00", true},
		{"aa:bb:cc", true},
		{"00:00:00.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateTimestamp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
