// Package slack posts Block Kit messages to a channel.
package slack

import (
	"context"

	goslack "github.com/slack-go/slack"
)

// Block is any Block Kit block slack-go can encode.
type Block = goslack.Block

// Message is a chat.postMessage payload. Text is the notification fallback.
type Message struct {
	Channel string
	Text    string
	Blocks  []Block
}

type Poster interface {
	Post(ctx context.Context, message Message) error
}

func Header(text string) *goslack.HeaderBlock {
	return goslack.NewHeaderBlock(goslack.NewTextBlockObject(goslack.PlainTextType, text, true, false))
}

func Section(markdown string) *goslack.SectionBlock {
	return goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, markdown, false, false), nil, nil)
}

func Context(markdown ...string) *goslack.ContextBlock {
	elems := make([]goslack.MixedElement, 0, len(markdown))
	for _, m := range markdown {
		elems = append(elems, goslack.NewTextBlockObject(goslack.MarkdownType, m, false, false))
	}
	return goslack.NewContextBlock("", elems...)
}
