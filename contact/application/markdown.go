package application

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// EmailRenderer turns a markdown email body into HTML.
type EmailRenderer interface {
	Render(markdown string) (string, error)
}

type goldmarkRenderer struct {
	md goldmark.Markdown
}

// NewEmailRenderer renders GFM with hard wraps. Raw HTML in the source is dropped,
// so submitter text cannot inject markup.
func NewEmailRenderer() EmailRenderer {
	return &goldmarkRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
	}
}

func (r *goldmarkRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return "<html><body>\n" + buf.String() + "</body></html>\n", nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", "&lt;",
	">", "&gt;",
)

// escapeMarkdown keeps submitter text literal inside a markdown template
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.TrimSpace(s))
}
