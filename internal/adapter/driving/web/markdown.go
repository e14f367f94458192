package web

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
	)

	// Descriptions are admin-entered but still sanitized; external links
	// open in a new tab.
	htmlSanitizer = bluemonday.UGCPolicy().AddTargetBlankToFullyQualifiedLinks(true)

	textSanitizer = bluemonday.StrictPolicy()
)

// RenderMarkdown converts a markdown string to sanitized HTML. Single line
// breaks are kept, as descriptions are mostly entered as plain text.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// MarkdownExcerpt returns the plain text of a markdown string on one line,
// cut to at most limit runes. The result is unescaped text.
func MarkdownExcerpt(src string, limit int) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	text := src
	if err := mdRenderer.Convert([]byte(src), &buf); err == nil {
		text = buf.String()
	}
	text = stdhtml.UnescapeString(textSanitizer.Sanitize(text))
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
