package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCommand_CreatesProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env := newTestEnv(dir)

	stdout, _, err := runCLI(t, env, "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stdout, "project ready at") {
		t.Errorf("missing ready line:\n%s", stdout)
	}

	for _, rel := range []string{
		"book.toml",
		"config/metadata.yaml",
		"config/metadata_values.json",
		"manuscript/chapters/01-chapter.md",
		"manuscript/front-matter/toc.md",
		"README.md",
	} {
		if _, serr := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); serr != nil {
			t.Errorf("%s not created: %v", rel, serr)
		}
	}
	for _, rel := range []string{"manuscript/back-matter", "assets", "output"} {
		info, serr := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
		if serr != nil {
			t.Errorf("%s not created: %v", rel, serr)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", rel)
		}
	}
}

func TestInitCommand_SecondRunKeepsFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env := newTestEnv(dir)

	if _, _, err := runCLI(t, env, "init", dir); err != nil {
		t.Fatalf("first init: %v", err)
	}

	marker := filepath.Join(dir, "README.md")
	if err := os.WriteFile(marker, []byte("mine\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	stdout, _, err := runCLI(t, env, "init", dir)
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(stdout, "kept") {
		t.Errorf("second run should report kept files:\n%s", stdout)
	}
	data, rerr := os.ReadFile(marker)
	if rerr != nil {
		t.Fatalf("reading README: %v", rerr)
	}
	if string(data) != "mine\n" {
		t.Errorf("existing file overwritten without --force: %q", data)
	}
}

func TestInitCommand_ForceOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env := newTestEnv(dir)

	if _, _, err := runCLI(t, env, "init", dir); err != nil {
		t.Fatalf("first init: %v", err)
	}
	marker := filepath.Join(dir, "README.md")
	if err := os.WriteFile(marker, []byte("mine\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, _, err := runCLI(t, env, "init", "--force", dir); err != nil {
		t.Fatalf("init --force: %v", err)
	}
	data, rerr := os.ReadFile(marker)
	if rerr != nil {
		t.Fatalf("reading README: %v", rerr)
	}
	if string(data) == "mine\n" {
		t.Error("--force should restore the starter file")
	}
}

func TestInitCommand_NameSplicedIntoConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env := newTestEnv(dir)

	if _, _, err := runCLI(t, env, "init", "--name", "my-book", dir); err != nil {
		t.Fatalf("init --name: %v", err)
	}
	data, rerr := os.ReadFile(filepath.Join(dir, "book.toml"))
	if rerr != nil {
		t.Fatalf("reading book.toml: %v", rerr)
	}
	if !strings.Contains(string(data), `name = "my-book"`) {
		t.Errorf("name not spliced into book.toml:\n%s", data)
	}
}
