package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Coverage notes are short organizer remarks, so only the inline-leaning
// extensions are on. Raw HTML stays disabled (no html.WithUnsafe): a note
// must never inject markup into the board page.
var noteMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
		extension.Typographer,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// renderCoverageNote renders a coverage-block note for the board view.
func renderCoverageNote(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := noteMarkdown.Convert([]byte(src), &b); err != nil {
		// Show the escaped source rather than dropping the note.
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(strings.TrimSpace(b.String()))
}
