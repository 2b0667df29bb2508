package hints

import (
	"strings"
	"testing"
)

func TestForTool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tool string
		want string
	}{
		{name: "pandoc", tool: "pandoc", want: "pandoc.org"},
		{name: "calibre ships ebook-convert", tool: "ebook-convert", want: "calibre-ebook.com"},
		{name: "lualatex points at texlive", tool: "lualatex", want: "TeX Live"},
		{name: "pdfinfo points at poppler", tool: "pdfinfo", want: "poppler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hint := ForTool(tt.tool)
			if !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("ForTool(%q) = %q, want hint prefix", tt.tool, hint)
			}
			if !strings.Contains(hint, tt.want) {
				t.Errorf("ForTool(%q) = %q, want mention of %q", tt.tool, hint, tt.want)
			}
		})
	}

	t.Run("unknown binary yields no hint", func(t *testing.T) {
		t.Parallel()
		if hint := ForTool("/opt/custom/pandoc"); hint != "" {
			t.Errorf("ForTool(custom path) = %q, want empty", hint)
		}
	})
}

func TestInstallText(t *testing.T) {
	t.Parallel()

	if got := InstallText("epubcheck"); !strings.Contains(got, "epubcheck") {
		t.Errorf("InstallText(epubcheck) = %q, want install guidance", got)
	}
	if strings.HasPrefix(InstallText("pandoc"), "\n") {
		t.Error("InstallText should not carry the hint prefix")
	}
}

func TestFixedHints(t *testing.T) {
	t.Parallel()

	for name, hint := range map[string]string{
		"timeout":   ForTimeout(),
		"config":    ForConfigNotFound(),
		"outputDir": ForOutputDirectory(),
		"restore":   ForRestoreFailure(),
		"lock":      ForLockHeld(),
	} {
		if !strings.HasPrefix(hint, "\n  hint: ") {
			t.Errorf("%s hint = %q, want hint prefix", name, hint)
		}
	}

	for name, bare := range map[string]string{
		"timeout": TimeoutText(),
		"restore": RestoreText(),
	} {
		if bare == "" || strings.HasPrefix(bare, "\n") {
			t.Errorf("%s bare text = %q, want unprefixed guidance", name, bare)
		}
	}
}
