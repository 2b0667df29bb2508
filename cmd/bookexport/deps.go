package main

import (
	bookexport "github.com/alnah/go-bookexport"
	"github.com/alnah/go-bookexport/internal/hints"
)

// toolCheck reports one external binary's availability.
type toolCheck struct {
	Name     string `json:"name"`           // canonical binary name
	Bin      string `json:"bin"`            // binary actually looked up, after [tools] overrides
	Path     string `json:"path,omitempty"` // resolved location when found
	Found    bool   `json:"found"`
	Required bool   `json:"required"`
	Role     string `json:"role"`
	Hint     string `json:"hint,omitempty"` // install guidance when missing
}

// checkTools resolves every binary the pipeline can invoke, honoring
// [tools] overrides from book.toml. Whether a binary counts as
// required depends on the formats the project is configured to
// produce; the validators never do.
func checkTools(tools bookexport.Tools, formats []string, lookPath func(string) (string, error)) []toolCheck {
	wants := make(map[string]bool, len(formats))
	for _, f := range formats {
		wants[f] = true
	}

	checks := []toolCheck{
		{Name: "pandoc", Bin: tools.PandocBin(), Required: true, Role: "pdf, epub, mobi and docx conversions"},
		{Name: "lualatex", Bin: "lualatex", Required: wants["pdf"], Role: "pdf rendering engine"},
		{Name: "ebook-convert", Bin: tools.EbookConvertBin(), Required: wants["mobi"], Role: "epub to mobi conversion"},
		{Name: "epubcheck", Bin: tools.EpubcheckBin(), Required: false, Role: "epub validation"},
		{Name: "pdfinfo", Bin: tools.PdfinfoBin(), Required: false, Role: "pdf validation"},
	}
	for i := range checks {
		path, err := lookPath(checks[i].Bin)
		if err == nil {
			checks[i].Found = true
			checks[i].Path = path
			continue
		}
		checks[i].Hint = hints.InstallText(checks[i].Name)
	}
	return checks
}
