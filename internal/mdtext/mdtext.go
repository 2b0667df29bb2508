// Package mdtext provides line-oriented Markdown text utilities shared by
// the image-path rewriter and the batch converter. All transforms are
// code-aware: fenced blocks, indented code, and inline code spans are never
// modified.
package mdtext

import (
	"regexp"
	"strings"
)

// Precompiled patterns.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Fenced code block delimiter (backticks or tildes)
	fencedCodeBlock = regexp.MustCompile("^(```|~~~)")

	// Indented code block (4 spaces or tab)
	indentedCodeBlock = regexp.MustCompile(`^(    |\t)`)
)

// utf8BOM is the byte order mark some editors prepend to Markdown files.
const utf8BOM = "﻿"

// NormalizeNewlines converts \r\n and \r to \n.
func NormalizeNewlines(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(content string) string {
	return strings.TrimPrefix(content, utf8BOM)
}

// TransformLines applies fn to every line that is not part of a fenced or
// indented code block. Fence delimiters themselves are left untouched.
func TransformLines(content string, fn func(line string) string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))

	inCodeBlock := false
	for _, line := range lines {
		if fencedCodeBlock.MatchString(line) {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
			continue
		}
		if inCodeBlock || indentedCodeBlock.MatchString(line) {
			result = append(result, line)
			continue
		}
		result = append(result, fn(line))
	}

	return strings.Join(result, "\n")
}

// Segment is a slice of a line, marked as inline code or plain text.
type Segment struct {
	Text string
	Code bool
}

// SplitInlineCode splits a line into plain and inline-code segments.
// A code span opens with a backtick run and closes with a run of the same
// length; an unclosed run is treated as plain text.
func SplitInlineCode(line string) []Segment {
	var segments []Segment
	plainStart := 0

	i := 0
	for i < len(line) {
		if line[i] != '`' {
			i++
			continue
		}

		// Measure the opening run.
		runStart := i
		for i < len(line) && line[i] == '`' {
			i++
		}
		runLen := i - runStart

		// Find a closing run of the same length.
		closeIdx := findBacktickRun(line[i:], runLen)
		if closeIdx < 0 {
			continue // unclosed, keep scanning as plain text
		}

		if runStart > plainStart {
			segments = append(segments, Segment{Text: line[plainStart:runStart]})
		}
		end := i + closeIdx + runLen
		segments = append(segments, Segment{Text: line[runStart:end], Code: true})
		plainStart = end
		i = end
	}

	if plainStart < len(line) {
		segments = append(segments, Segment{Text: line[plainStart:]})
	}
	if segments == nil {
		segments = []Segment{{Text: line}}
	}
	return segments
}

// findBacktickRun returns the offset in s of the first backtick run of
// exactly n backticks, or -1.
func findBacktickRun(s string, n int) int {
	i := 0
	for i < len(s) {
		if s[i] != '`' {
			i++
			continue
		}
		start := i
		for i < len(s) && s[i] == '`' {
			i++
		}
		if i-start == n {
			return start
		}
	}
	return -1
}

// TransformOutsideCode applies fn to the plain segments of every processable
// line, leaving inline code spans intact. The common entry point for
// rewriters that must not touch code.
func TransformOutsideCode(content string, fn func(text string) string) string {
	return TransformLines(content, func(line string) string {
		segments := SplitInlineCode(line)
		var b strings.Builder
		b.Grow(len(line))
		for _, seg := range segments {
			if seg.Code {
				b.WriteString(seg.Text)
				continue
			}
			b.WriteString(fn(seg.Text))
		}
		return b.String()
	})
}

// Patch prepares a document for conversion: strips the BOM, normalizes
// newlines, and ensures a blank line follows each horizontal rule so it is
// not mistaken for a setext underline. A leading YAML metadata block is
// copied through untouched; its "---" delimiters are not rules. Returns
// the patched text and the number of blank lines inserted.
func Patch(content string) (string, int) {
	content = StripBOM(content)
	content = NormalizeNewlines(content)

	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines)+4)

	start := frontMatterEnd(lines)
	result = append(result, lines[:start]...)

	fixes := 0
	inCodeBlock := false
	for i := start; i < len(lines); i++ {
		line := lines[i]
		result = append(result, line)

		if fencedCodeBlock.MatchString(line) {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		if !isHorizontalRule(line) {
			continue
		}
		if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			result = append(result, "")
			fixes++
		}
	}

	return strings.Join(result, "\n"), fixes
}

// frontMatterEnd returns the index of the first line after a leading
// YAML metadata block, or 0 when the document has none. The block opens
// with "---" on the first line and closes with "---" or "...". An
// unclosed opener is an ordinary horizontal rule.
func frontMatterEnd(lines []string) int {
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return 0
	}
	for i := 1; i < len(lines); i++ {
		switch strings.TrimRight(lines[i], " \t") {
		case "---", "...":
			return i + 1
		}
	}
	return 0
}

// isHorizontalRule reports whether the line is a three-marker rule:
// "---", "***" or "___", with optional spaces between and after markers.
func isHorizontalRule(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "---" {
		return true
	}
	for _, marker := range []rune{'*', '_'} {
		if !strings.HasPrefix(trimmed, string(marker)) {
			continue
		}
		count := 0
		valid := true
		for _, r := range trimmed {
			switch r {
			case marker:
				count++
			case ' ', '\t':
			default:
				valid = false
			}
			if !valid {
				break
			}
		}
		if valid && count == 3 {
			return true
		}
	}
	return false
}
