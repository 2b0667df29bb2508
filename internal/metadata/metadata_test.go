package metadata

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, time.August, 23, 15, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// ----------------------------------------------------------------------------
// TestResolve - Document loading, substitution and date expansion
// ----------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	t.Parallel()

	r := New(discardLogger())

	t.Run("fills placeholders from values", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.yaml")
		writeFile(t, path, "title: '{{BOOK_TITLE}}'\n"+
			"subtitle: '{{BOOK_SUBTITLE}}'\n"+
			"keywords: {{KEYWORDS}}\n"+
			"kdp: {{KDP_ENABLED}}\n"+
			"date: '{{PUBLICATION_DATE}}'\n")

		values := Values{
			"BOOK_TITLE":       "Deep Currents",
			"KEYWORDS":         []any{"rivers", "maps"},
			"KDP_ENABLED":      true,
			"PUBLICATION_DATE": "auto:iso",
		}

		doc, err := r.Resolve(path, values, fixedNow)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		want := "title: 'Deep Currents'\n" +
			"subtitle: '{{BOOK_SUBTITLE}}'\n" +
			"keywords: \n  - rivers\n  - maps\n" +
			"kdp: true\n" +
			"date: '2026-08-23'\n"
		if doc.Text != want {
			t.Errorf("Text = %q, want %q", doc.Text, want)
		}
		if got := doc.Unresolved; !reflect.DeepEqual(got, []string{"BOOK_SUBTITLE"}) {
			t.Errorf("Unresolved = %v, want [BOOK_SUBTITLE]", got)
		}
		if doc.Generated {
			t.Error("Generated = true for an existing file")
		}
		if doc.Path != path {
			t.Errorf("Path = %q, want %q", doc.Path, path)
		}
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.yaml")

		doc, err := r.Resolve(path, nil, fixedNow)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		if !doc.Generated {
			t.Error("Generated = false, want true")
		}
		if doc.Path != "" {
			t.Errorf("Path = %q, want empty", doc.Path)
		}
		want := "title: 'CHANGE TO YOUR TITLE'\n" +
			"author: 'YOUR NAME'\n" +
			"date: '2026-08-23'\n" +
			"lang: 'en'\n"
		if doc.Text != want {
			t.Errorf("Text = %q, want %q", doc.Text, want)
		}
	})

	t.Run("expands symbolic date in place", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.yaml")
		writeFile(t, path, "title: 'Tides'\ndate: auto\nlang: 'fr'\n")

		doc, err := r.Resolve(path, nil, fixedNow)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		want := "title: 'Tides'\ndate: '2026-08-23'\nlang: 'fr'\n"
		if doc.Text != want {
			t.Errorf("Text = %q, want %q", doc.Text, want)
		}
		if got, _ := doc.Field("date"); got != "2026-08-23" {
			t.Errorf("Field(date) = %q, want 2026-08-23", got)
		}
	})

	t.Run("expands date with custom layout", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.yaml")
		writeFile(t, path, "date: 'auto:year'\n")

		doc, err := r.Resolve(path, nil, fixedNow)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if want := "date: '2026'\n"; doc.Text != want {
			t.Errorf("Text = %q, want %q", doc.Text, want)
		}
	})

	t.Run("literal date is untouched", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.yaml")
		writeFile(t, path, "title: 'Tides'\ndate: '2019'\n")

		doc, err := r.Resolve(path, nil, fixedNow)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if want := "title: 'Tides'\ndate: '2019'\n"; doc.Text != want {
			t.Errorf("Text = %q, want %q", doc.Text, want)
		}
	})

	t.Run("empty file resolves to empty fields", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.yaml")
		writeFile(t, path, "")

		doc, err := r.Resolve(path, nil, fixedNow)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if _, ok := doc.Field("title"); ok {
			t.Error("Field(title) found in empty document")
		}
	})

	t.Run("malformed document is rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.yaml")
		writeFile(t, path, "title: [unclosed\n")

		_, err := r.Resolve(path, nil, fixedNow)
		if !errors.Is(err, ErrInvalidMetadata) {
			t.Fatalf("Resolve error = %v, want ErrInvalidMetadata", err)
		}
	})

	t.Run("unreadable path is an error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		_, err := r.Resolve(dir, nil, fixedNow)
		if err == nil {
			t.Fatal("Resolve succeeded on a directory path")
		}
		if errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Resolve error = %v, want a read failure, not a missing file", err)
		}
	})
}

// ----------------------------------------------------------------------------
// TestLanguage - Resolution chain
// ----------------------------------------------------------------------------

func TestLanguage(t *testing.T) {
	t.Parallel()

	r := New(discardLogger())

	tests := []struct {
		name     string
		explicit string
		fields   map[string]any
		want     string
	}{
		{
			name:     "explicit override wins",
			explicit: "de",
			fields:   map[string]any{"language": "en"},
			want:     "de",
		},
		{
			name:   "language field",
			fields: map[string]any{"language": "fr"},
			want:   "fr",
		},
		{
			name:   "lang field as fallback",
			fields: map[string]any{"lang": "pt"},
			want:   "pt",
		},
		{
			name:   "language preferred over lang",
			fields: map[string]any{"language": "es", "lang": "en"},
			want:   "es",
		},
		{
			name: "default when nothing is set",
			want: "en",
		},
		{
			name:     "explicit with empty document",
			explicit: "ja",
			want:     "ja",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := Document{fields: tt.fields}
			if got := r.Language(tt.explicit, doc); got != tt.want {
				t.Errorf("Language(%q) = %q, want %q", tt.explicit, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// TestLoadValues - JSON values files
// ----------------------------------------------------------------------------

func TestLoadValues(t *testing.T) {
	t.Parallel()

	t.Run("reads values and types", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "values.json")
		writeFile(t, path, `{"BOOK_TITLE": "Tides", "KDP_ENABLED": true, "KEYWORDS": ["a", "b"]}`)

		v, err := LoadValues(path)
		if err != nil {
			t.Fatalf("LoadValues: %v", err)
		}
		if v["BOOK_TITLE"] != "Tides" {
			t.Errorf("BOOK_TITLE = %v", v["BOOK_TITLE"])
		}
		if v["KDP_ENABLED"] != true {
			t.Errorf("KDP_ENABLED = %v", v["KDP_ENABLED"])
		}
	})

	t.Run("splits a keywords string on commas", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "values.json")
		writeFile(t, path, `{"KEYWORDS": "rivers, maps , , tides"}`)

		v, err := LoadValues(path)
		if err != nil {
			t.Fatalf("LoadValues: %v", err)
		}
		want := []any{"rivers", "maps", "tides"}
		if !reflect.DeepEqual(v["KEYWORDS"], want) {
			t.Errorf("KEYWORDS = %v, want %v", v["KEYWORDS"], want)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "values.json")
		writeFile(t, path, `{"BOOK_TITLE": `)

		_, err := LoadValues(path)
		if !errors.Is(err, ErrInvalidValues) {
			t.Fatalf("LoadValues error = %v, want ErrInvalidValues", err)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := LoadValues(filepath.Join(t.TempDir(), "absent.json"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("LoadValues error = %v, want os.ErrNotExist", err)
		}
	})
}

// ----------------------------------------------------------------------------
// TestWriteTemp - Materializing resolved documents
// ----------------------------------------------------------------------------

func TestWriteTemp(t *testing.T) {
	t.Parallel()

	doc := Document{Text: "title: 'Tides'\n"}

	path, cleanup, err := doc.WriteTemp()
	if err != nil {
		t.Fatalf("WriteTemp: %v", err)
	}
	defer cleanup()

	if !strings.HasSuffix(path, ".yaml") {
		t.Errorf("path %q does not end in .yaml", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(data) != doc.Text {
		t.Errorf("temp content = %q, want %q", data, doc.Text)
	}

	cleanup()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still present after cleanup: %v", err)
	}
}

// ----------------------------------------------------------------------------
// TestField - Scalar access
// ----------------------------------------------------------------------------

func TestField(t *testing.T) {
	t.Parallel()

	doc := Document{fields: map[string]any{
		"title":    "Tides",
		"kdp":      true,
		"keywords": []any{"a"},
	}}

	if got, ok := doc.Field("title"); !ok || got != "Tides" {
		t.Errorf("Field(title) = %q, %v", got, ok)
	}
	if got, ok := doc.Field("kdp"); !ok || got != "true" {
		t.Errorf("Field(kdp) = %q, %v", got, ok)
	}
	if _, ok := doc.Field("keywords"); ok {
		t.Error("Field(keywords) reported a list as scalar")
	}
	if _, ok := doc.Field("absent"); ok {
		t.Error("Field(absent) reported a value")
	}
}
