package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			fs := afero.NewMemMapFs()

			runner := NewRunner(RunnerOpts{
				Config: config,
				FS:     fs,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.fs != fs {
				t.Error("expected fs to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register returns all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for _, command := range commands {
			names[command.Name] = true
		}

		for _, want := range []string{"download", "classify", "reconcile", "history", "setup"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestReadInputLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "links.txt", []byte("https://soundcloud.com/a/sets/b\r\n# comment\nhttps://youtu.be/xyz\n"), 0o644)

	runner := NewRunner(RunnerOpts{FS: fs})

	t.Run("strips carriage returns", func(t *testing.T) {
		lines, err := runner.readInputLines("links.txt")
		if err != nil {
			t.Fatalf("readInputLines failed: %v", err)
		}
		if len(lines) < 3 {
			t.Fatalf("expected at least 3 lines, got %d", len(lines))
		}
		if strings.ContainsRune(lines[0], '\r') {
			t.Errorf("expected carriage return stripped, got %q", lines[0])
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := runner.readInputLines("nope.txt")
		if !errors.Is(err, shared.ErrInputNotFound) {
			t.Fatalf("expected ErrInputNotFound, got %v", err)
		}
	})
}

func TestWriteHelpers(t *testing.T) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output})

	runner.writePlain("hello %s", "there")
	runner.writePlainln("done")
	runner.writePlainHeader("Title")

	text := output.String()
	for _, want := range []string{"hello there", "\ndone\n", "Title"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output, got %q", want, text)
		}
	}
}

func TestClassifyAction(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "links.txt", []byte("https://soundcloud.com/a/sets/b\nhttps://open.spotify.com/playlist/x\n"), 0o644)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{FS: fs, Output: output})

	app := classifyCommand(runner)
	if err := app.Run(context.Background(), []string{"classify", "links.txt"}); err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	text := output.String()
	if !strings.Contains(text, "soundcloud (1)") || !strings.Contains(text, "spotify (1)") {
		t.Errorf("expected both provider groups, got %q", text)
	}
}

func TestReconcileAction(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/music/Mix", 0o755)
	afero.WriteFile(fs, "/music/Mix/01 A - One.mp3", []byte("x"), 0o644)
	afero.WriteFile(fs, "/music/Mix/03 C - Three.mp3", []byte("x"), 0o644)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{FS: fs, Output: output})

	app := reconcileCommand(runner)
	if err := app.Run(context.Background(), []string{"reconcile", "/music"}); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	text := output.String()
	if !strings.Contains(text, "1 of 3 tracks missing") {
		t.Errorf("expected missing-track line, got %q", text)
	}
	if !strings.Contains(text, "1 playlist(s), 1 missing track(s)") {
		t.Errorf("expected totals line, got %q", text)
	}
}
