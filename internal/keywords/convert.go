package keywords

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithEscapeMode("smart"),
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// storageToMarkdown turns Confluence storage-format XHTML into markdown so
// the prompt carries text rather than markup.
func storageToMarkdown(conv *converter.Converter, storage string) (string, error) {
	if !strings.Contains(storage, "<") {
		return strings.TrimSpace(storage), nil
	}
	md, err := conv.ConvertString(storage)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
