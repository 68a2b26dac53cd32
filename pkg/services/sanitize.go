package services

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"site-admin/pkg/content"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
	markdown     = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

// SanitizeValues normalizes a decoded values tree and strips unsafe markup
// from string leaves. Plain text without tags, including a bare "<" or "&",
// is stored as typed.
func SanitizeValues(values interface{}) interface{} {
	return content.Walk(content.Normalize(values), sanitizeString)
}

func sanitizeString(s string) string {
	if !strings.ContainsRune(s, '<') || !hasMarkup(s) {
		return s
	}
	return ugcPolicy.Sanitize(s)
}

// hasMarkup reports whether s holds any tag or comment. Stripping everything
// and unescaping gives s back only for plain text.
func hasMarkup(s string) bool {
	return html.UnescapeString(strictPolicy.Sanitize(s)) != s
}

// RenderMarkdown renders a content string to sanitized HTML for previews.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return ugcPolicy.Sanitize(buf.String()), nil
}
