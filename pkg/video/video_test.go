package video

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/matchthumb/pkg/errors"
)

func validRequest(dir string) TrimRequest {
	return TrimRequest{
		Input:  filepath.Join(dir, "match.mp4"),
		Output: filepath.Join(dir, "Spring Open - Alice vs Bob.mp4"),
		Start:  "00:01:30",
		End:    "00:12:05",
	}
}

func TestArgs(t *testing.T) {
	r := TrimRequest{Input: "in.mp4", Output: "out.mp4", Start: "00:00:10", End: "01:00:00"}
	want := []string{"-ss", "00:00:10", "-to", "01:00:00", "-i", "in.mp4", "-c", "copy", "-y", "out.mp4"}
	if diff := cmp.Diff(want, r.Args()); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TrimRequest)
		want   errors.Code
	}{
		{"valid", func(*TrimRequest) {}, ""},
		{"long recording", func(r *TrimRequest) { r.End = "100:00:00" }, ""},
		{"missing input", func(r *TrimRequest) { r.Input = "" }, errors.ErrCodeInvalidInput},
		{"missing output", func(r *TrimRequest) { r.Output = "" }, errors.ErrCodeInvalidPath},
		{"bad start", func(r *TrimRequest) { r.Start = "1:30" }, errors.ErrCodeInvalidInput},
		{"bad end minutes", func(r *TrimRequest) { r.End = "00:60:00" }, errors.ErrCodeInvalidInput},
		{"end before start", func(r *TrimRequest) { r.Start, r.End = r.End, r.Start }, errors.ErrCodeInvalidInput},
		{"empty range", func(r *TrimRequest) { r.End = r.Start }, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest("videos")
			tt.modify(&r)
			err := r.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestSeconds(t *testing.T) {
	tests := map[string]int{
		"00:00:00":  0,
		"00:01:30":  90,
		"01:00:01":  3601,
		"100:00:00": 360000,
	}
	for ts, want := range tests {
		if got := seconds(ts); got != want {
			t.Errorf("seconds(%q) = %d, want %d", ts, got, want)
		}
	}
}

// fakeFFmpeg writes a shell script that records its arguments into the
// output path (the last argument) and exits with code.
func fakeFFmpeg(t *testing.T, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n"
	if code == 0 {
		script += "for last; do :; done\necho \"$@\" > \"$last\"\n"
	} else {
		script += "echo 'Invalid data found when processing input' >&2\n"
	}
	script += "exit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietTrimmer(ffmpeg string) *Trimmer {
	return NewTrimmer(ffmpeg, log.New(io.Discard))
}

func TestTrimRunsFFmpeg(t *testing.T) {
	dir := t.TempDir()
	r := validRequest(dir)

	if err := quietTrimmer(fakeFFmpeg(t, 0)).Trim(context.Background(), r); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	got, err := os.ReadFile(r.Output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if want := strings.Join(r.Args(), " "); strings.TrimSpace(string(got)) != want {
		t.Errorf("ffmpeg saw %q, want %q", strings.TrimSpace(string(got)), want)
	}
}

func TestTrimFailures(t *testing.T) {
	dir := t.TempDir()
	r := validRequest(dir)

	t.Run("non-zero exit", func(t *testing.T) {
		err := quietTrimmer(fakeFFmpeg(t, 1)).Trim(context.Background(), r)
		if !errors.Is(err, errors.ErrCodeExternalProcess) {
			t.Fatalf("err = %v, want EXTERNAL_PROCESS", err)
		}
		if !strings.Contains(err.Error(), "Invalid data found") {
			t.Errorf("err = %v, want ffmpeg output included", err)
		}
	})

	t.Run("missing executable", func(t *testing.T) {
		err := quietTrimmer(filepath.Join(dir, "no-ffmpeg")).Trim(context.Background(), r)
		if !errors.Is(err, errors.ErrCodeExternalProcess) {
			t.Errorf("err = %v, want EXTERNAL_PROCESS", err)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		bad := r
		bad.Start = "soon"
		err := quietTrimmer(fakeFFmpeg(t, 0)).Trim(context.Background(), bad)
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("err = %v, want INVALID_INPUT", err)
		}
		if _, statErr := os.Stat(bad.Output); !os.IsNotExist(statErr) {
			t.Error("ffmpeg should not run for an invalid request")
		}
	})
}

func TestNewTrimmerDefaults(t *testing.T) {
	tr := NewTrimmer("", nil)
	if tr.FFmpeg != DefaultFFmpeg {
		t.Errorf("FFmpeg = %q, want %q", tr.FFmpeg, DefaultFFmpeg)
	}
	if tr.Logger == nil {
		t.Error("Logger should default to log.Default()")
	}
}
