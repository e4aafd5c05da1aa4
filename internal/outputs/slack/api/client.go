package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goslack "github.com/slack-go/slack"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/outputs/slack"
)

// Client calls the Slack Web API with a bot token.
type Client struct {
	api     *goslack.Client
	channel string
}

func NewClient(cfg config.SlackEnvConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("slack: bot token and channel id are required")
	}
	opts := []goslack.Option{
		goslack.OptionHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	// slack-go joins method names onto the URL, so it must end in a slash.
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, goslack.OptionAPIURL(strings.TrimRight(base, "/")+"/"))
	}
	return &Client{
		api:     goslack.New(cfg.BotToken, opts...),
		channel: cfg.ChannelID,
	}, nil
}

// Post sends message to its channel, or the configured channel when unset.
// An ok=false reply surfaces as goslack.SlackErrorResponse.
func (c *Client) Post(ctx context.Context, message slack.Message) error {
	channel := message.Channel
	if channel == "" {
		channel = c.channel
	}
	options := []goslack.MsgOption{goslack.MsgOptionText(message.Text, false)}
	if len(message.Blocks) > 0 {
		options = append(options, goslack.MsgOptionBlocks(message.Blocks...))
	}
	if _, _, err := c.api.PostMessageContext(ctx, channel, options...); err != nil {
		return fmt.Errorf("slack: chat.postMessage: %w", err)
	}
	return nil
}
