// Package markdown renders GitHub-flavoured markdown to HTML.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

type Renderer struct {
	converter goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		converter: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

func (r *Renderer) Render(input string) (string, error) {
	var buf bytes.Buffer
	if err := r.converter.Convert([]byte(input), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
