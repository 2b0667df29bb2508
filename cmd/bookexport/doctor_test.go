package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	bookexport "github.com/alnah/go-bookexport"
)

func TestDoctorCommand_AllToolsFound(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	stdout, _, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(stdout, "[OK]") {
		t.Errorf("expected ok rows:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Status: ready to export") {
		t.Errorf("expected ready status:\n%s", stdout)
	}
	if !strings.Contains(stdout, "project: "+filepath.Join(root, "book.toml")) {
		t.Errorf("expected the project file line:\n%s", stdout)
	}
}

func TestDoctorCommand_MissingRequiredTool(t *testing.T) {
	t.Parallel()

	root := writeProject(t, `[book]
name = "tide"
type = "ebook"

[export]
formats = ["pdf"]
`)
	env := newTestEnv(root)
	env.LookPath = func(name string) (string, error) {
		if name == "lualatex" {
			return "", errors.New("executable file not found in $PATH")
		}
		return "/usr/bin/" + name, nil
	}

	stdout, _, err := runCLI(t, env, "doctor")
	if !errors.Is(err, bookexport.ErrMissingTool) {
		t.Fatalf("err = %v, want ErrMissingTool", err)
	}
	if got := exitCodeFor(err); got != ExitTool {
		t.Errorf("exit code = %d, want %d", got, ExitTool)
	}
	if !strings.Contains(stdout, "[ERROR]") {
		t.Errorf("missing tool should be an error row:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Status: required tools missing") {
		t.Errorf("expected failing status:\n%s", stdout)
	}
}

func TestDoctorCommand_OptionalToolMissing(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)
	env.LookPath = func(name string) (string, error) {
		if name == "epubcheck" {
			return "", errors.New("executable file not found in $PATH")
		}
		return "/usr/bin/" + name, nil
	}

	stdout, _, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("a missing validator must not fail doctor: %v", err)
	}
	if !strings.Contains(stdout, "[WARN]") {
		t.Errorf("expected a warning row:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Status: ready to export") {
		t.Errorf("expected ready status:\n%s", stdout)
	}
}

func TestDoctorCommand_RequirementFollowsFormats(t *testing.T) {
	t.Parallel()

	// No pdf among the formats, so a missing lualatex is only a warning.
	root := writeProject(t, `[book]
name = "tide"
type = "ebook"

[export]
formats = ["epub"]
`)
	env := newTestEnv(root)
	env.LookPath = func(name string) (string, error) {
		if name == "lualatex" {
			return "", errors.New("executable file not found in $PATH")
		}
		return "/usr/bin/" + name, nil
	}

	_, _, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("lualatex is not required without pdf: %v", err)
	}
}

func TestDoctorCommand_JSON(t *testing.T) {
	t.Parallel()

	root := writeProject(t, minimalTOML)
	env := newTestEnv(root)

	stdout, _, err := runCLI(t, env, "doctor", "--json")
	if err != nil {
		t.Fatalf("doctor --json: %v", err)
	}

	var report doctorReport
	if uerr := json.Unmarshal([]byte(stdout), &report); uerr != nil {
		t.Fatalf("unmarshaling report: %v\n%s", uerr, stdout)
	}
	if report.Status != "ready" {
		t.Errorf("status = %q, want ready", report.Status)
	}
	if len(report.Tools) != 5 {
		t.Fatalf("tools = %d, want 5", len(report.Tools))
	}
	for _, tc := range report.Tools {
		if !tc.Found {
			t.Errorf("%s should be found", tc.Bin)
		}
		if tc.Path == "" {
			t.Errorf("%s should carry its resolved path", tc.Bin)
		}
	}
}
