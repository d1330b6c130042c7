package buildinfo

import "testing"

func TestShort(t *testing.T) {
	tests := []struct {
		version, commit, want string
	}{
		{"dev", "none", "dev (none)"},
		{"v1.2.0", "3f2a9c1d0e5b", "v1.2.0 (3f2a9c1)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			Version, Commit = tt.version, tt.commit
			t.Cleanup(func() { Version, Commit = "dev", "none" })
			if got := Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}
