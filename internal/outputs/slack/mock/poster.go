package mock

import (
	"context"

	"github.com/hmgdev/hmg-index/internal/outputs/slack"
)

type Poster struct {
	Messages []slack.Message
	Err      error
}

func (p *Poster) Post(ctx context.Context, message slack.Message) error {
	_ = ctx
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, message)
	return nil
}
