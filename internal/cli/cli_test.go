package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/matchthumb/pkg/config"
	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
)

// testTemplate writes a small template directory and returns the path of its
// config document. The font is the built-in one.
func testTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "static")
	if err := os.MkdirAll(filepath.Join(base, "chars"), 0o755); err != nil {
		t.Fatal(err)
	}

	for name, c := range map[string]color.NRGBA{
		"bg.png":       {R: 200, A: 255},
		"chars/a.png":  {G: 200, A: 255},
		"chars/b.png":  {B: 200, A: 128},
		"chars/zz.png": {R: 10, G: 10, A: 255},
	} {
		img := imaging.New(40, 20, c)
		if err := imaging.Save(img, filepath.Join(base, name)); err != nil {
			t.Fatal(err)
		}
	}

	tmpl := config.Template{
		Width:            40,
		Height:           20,
		BasePath:         base,
		SpriteDir:        "chars",
		BackgroundLayers: []string{"bg.png"},
		Texts: []config.PositionedText{
			{Text: pipeline.TagTournament, X: 20, Y: 10, Scale: 8},
		},
	}
	data, err := json.Marshal(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testCLI(t *testing.T, configPath string) *CLI {
	t.Helper()
	c := New(io.Discard, log.ErrorLevel)
	c.configPath = configPath
	return c
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	sort.Strings(got)

	want := []string{"completion", "compose", "filename", "serve", "sprites", "trim", "tui"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent --config flag")
	}
}

func TestFilenameCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "with round",
			args: []string{"--tournament", "Spring Open", "--round", "Grand Final", "--player1", "Alice", "--player2", "Bob"},
			want: "Spring Open - Grand Final - Alice vs Bob.jpg",
		},
		{
			name: "without round",
			args: []string{"--tournament", "Spring Open", "--player1", "Alice", "--player2", "Bob", "--ext", "mp4"},
			want: "Spring Open - Alice vs Bob.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := New(io.Discard, LogInfo).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs(append([]string{"filename"}, tt.args...))
			if err := root.Execute(); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpritesCommandPlain(t *testing.T) {
	cfg := testTemplate(t)
	root := testCLI(t, cfg).RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sprites", "--plain", "--config", cfg})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := strings.Fields(out.String())
	want := []string{"a.png", "b.png", "zz.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sprites mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSpriteTable(t *testing.T) {
	var out bytes.Buffer
	writeSpriteTable(&out, []string{"a.png", "b.png"})
	for _, s := range []string{"Sprite", "a.png", "b.png"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("table %q does not contain %q", out.String(), s)
		}
	}

	out.Reset()
	writeSpriteTable(&out, nil)
	if !strings.Contains(out.String(), "no sprites") {
		t.Errorf("empty table = %q", out.String())
	}
}

func TestComposeCommand(t *testing.T) {
	cfg := testTemplate(t)
	outDir := filepath.Join(t.TempDir(), "out")

	root := testCLI(t, cfg).RootCommand()
	root.SetArgs([]string{
		"compose", "--config", cfg,
		"--tournament", "Spring Open", "--player1", "Alice", "--player2", "Bob",
		"--sprite1", "a.png", "--sprite2", "b.png",
		"--output-dir", outDir, "--ext", "png",
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	img, err := imaging.Open(filepath.Join(outDir, "Spring Open - Alice vs Bob.png"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 40, 20) {
		t.Errorf("bounds = %v", got)
	}
}

func TestComposeCommandRejectsBothOutputs(t *testing.T) {
	cfg := testTemplate(t)
	root := testCLI(t, cfg).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"compose", "--config", cfg,
		"--sprite1", "a.png", "--sprite2", "b.png",
		"--output", "x.png", "--output-dir", t.TempDir(),
	})
	err := root.ExecuteContext(context.Background())
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestSubmissionSpec(t *testing.T) {
	match := pipeline.Request{
		Tournament: "Spring Open",
		Player1:    "Alice",
		Player2:    "Bob",
		Sprite1:    "a.png",
		Sprite2:    "b.png",
	}

	t.Run("both parts", func(t *testing.T) {
		s := submission{
			Match:      match,
			OutputDir:  "out",
			Thumbnail:  true,
			Video:      true,
			VideoInput: "stream.mp4",
			Start:      "00:01:00",
			End:        "00:02:00",
		}
		spec, err := s.spec()
		if err != nil {
			t.Fatalf("spec: %v", err)
		}
		if got, want := spec.Thumbnail.Output, filepath.Join("out", "Spring Open - Alice vs Bob.jpg"); got != want {
			t.Errorf("thumbnail output = %q, want %q", got, want)
		}
		if got, want := spec.Video.Output, filepath.Join("out", "Spring Open - Alice vs Bob.mp4"); got != want {
			t.Errorf("video output = %q, want %q", got, want)
		}
	})

	t.Run("extension with dot", func(t *testing.T) {
		spec, err := submission{Match: match, Ext: ".png", Thumbnail: true}.spec()
		if err != nil {
			t.Fatalf("spec: %v", err)
		}
		if got := filepath.Ext(spec.Thumbnail.Output); got != ".png" {
			t.Errorf("ext = %q", got)
		}
		if spec.Video != nil {
			t.Error("video part should be absent")
		}
	})

	tests := []struct {
		name string
		sub  submission
	}{
		{"bad sprite", submission{Match: pipeline.Request{Sprite1: "../a.png", Sprite2: "b.png"}, Thumbnail: true}},
		{"missing input", submission{Match: match, Video: true, Start: "00:00:01", End: "00:00:02"}},
		{"end before start", submission{Match: match, Video: true, VideoInput: "in.mp4", Start: "00:00:02", End: "00:00:01"}},
		{"bad timestamp", submission{Match: match, Video: true, VideoInput: "in.mp4", Start: "1:2", End: "00:00:01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.sub.spec(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestSubmissionSpecRejectsEscapingNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	tests := []struct {
		name string
		sub  submission
	}{
		{"tournament", submission{Match: pipeline.Request{Tournament: "../up", Player1: "A", Player2: "B", Sprite1: "a.png", Sprite2: "b.png"}, OutputDir: dir, Thumbnail: true}},
		{"round", submission{Match: pipeline.Request{Tournament: "Cup", Round: "x/../../..", Player1: "A", Player2: "B", Sprite1: "a.png", Sprite2: "b.png"}, OutputDir: dir, Thumbnail: true}},
		{"video only", submission{Match: pipeline.Request{Tournament: "Cup", Player1: "A", Player2: "../../B"}, OutputDir: dir, Video: true, VideoInput: "in.mp4", Start: "00:00:01", End: "00:00:02"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.sub.spec(); !errors.Is(err, errors.ErrCodeInvalidPath) {
				t.Errorf("err = %v, want INVALID_PATH", err)
			}
		})
	}

	// Leading dots alone do not leave the directory.
	sub := submission{Match: pipeline.Request{Tournament: "..Cup", Player1: "A", Player2: "B", Sprite1: "a.png", Sprite2: "b.png"}, OutputDir: dir, Thumbnail: true}
	if _, err := sub.spec(); err != nil {
		t.Errorf("spec: %v", err)
	}
}

func TestNewJobStore(t *testing.T) {
	store, err := newJobStore(context.Background(), storeOptions{backend: storeMemory})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	_ = store.Close()

	_, err = newJobStore(context.Background(), storeOptions{backend: "etcd"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv(envFFmpeg, "")
	if got := envOr(envFFmpeg, "ffmpeg"); got != "ffmpeg" {
		t.Errorf("unset: got %q", got)
	}
	t.Setenv(envFFmpeg, "/opt/ffmpeg")
	if got := envOr(envFFmpeg, "ffmpeg"); got != "/opt/ffmpeg" {
		t.Errorf("set: got %q", got)
	}
}

func TestCompleteSprites(t *testing.T) {
	c := testCLI(t, testTemplate(t))

	got, directive := c.completeSprites(nil, nil, "")
	if diff := cmp.Diff([]string{"a.png", "b.png", "zz.png"}, got); diff != "" {
		t.Errorf("all sprites mismatch (-want +got):\n%s", diff)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}

	got, _ = c.completeSprites(nil, nil, "z")
	if diff := cmp.Diff([]string{"zz.png"}, got); diff != "" {
		t.Errorf("prefix mismatch (-want +got):\n%s", diff)
	}

	c.configPath = filepath.Join(t.TempDir(), "missing.json")
	if got, _ := c.completeSprites(nil, nil, ""); len(got) != 0 {
		t.Errorf("missing config suggested %v", got)
	}
}
