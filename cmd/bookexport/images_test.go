package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-bookexport/internal/pathrewrite"
)

func TestImagesCommand_AbsoluteRelativeRoundTrip(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	if err := os.MkdirAll(filepath.Join(root, "assets"), 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "assets", "cover.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	chapter := filepath.Join(root, "manuscript", "chapters", "01-one.md")
	original := "# One\n\n![Cover](../../assets/cover.png)\n"
	if err := os.WriteFile(chapter, []byte(original), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	stdout, _, err := runCLI(t, env, "images", "absolute")
	if err != nil {
		t.Fatalf("images absolute: %v", err)
	}
	if !strings.Contains(stdout, "rewrote 1 references in 1 files") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
	data, rerr := os.ReadFile(chapter)
	if rerr != nil {
		t.Fatalf("reading chapter: %v", rerr)
	}
	abs := filepath.Join(root, "assets", "cover.png")
	if !strings.Contains(string(data), abs) {
		t.Errorf("reference not absolute:\n%s", data)
	}

	if _, _, err := runCLI(t, env, "images", "relative"); err != nil {
		t.Fatalf("images relative: %v", err)
	}
	data, rerr = os.ReadFile(chapter)
	if rerr != nil {
		t.Fatalf("reading chapter: %v", rerr)
	}
	if string(data) != original {
		t.Errorf("round trip not restored:\n got %q\nwant %q", data, original)
	}
}

func TestImagesCommand_TagsMode(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)
	chapter := filepath.Join(root, "manuscript", "chapters", "01-one.md")
	text := "# One\n\n<img alt='Cover' src='cover.png'>\n"
	if err := os.WriteFile(chapter, []byte(text), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, _, err := runCLI(t, env, "images", "tags"); err != nil {
		t.Fatalf("images tags: %v", err)
	}
	data, rerr := os.ReadFile(chapter)
	if rerr != nil {
		t.Fatalf("reading chapter: %v", rerr)
	}
	if !strings.Contains(string(data), `<img src="cover.png" alt="Cover">`) {
		t.Errorf("tag not normalized:\n%s", data)
	}
}

func TestImagesCommand_UnknownMode(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	_, _, err := runCLI(t, env, "images", "sideways")
	if !errors.Is(err, pathrewrite.ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}
	if got := exitCodeFor(err); got != ExitUsage {
		t.Errorf("exit code = %d, want %d", got, ExitUsage)
	}
}
