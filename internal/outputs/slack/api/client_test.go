package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/outputs/slack"
)

type postedMessage struct {
	Channel string
	Text    string
	Blocks  []map[string]any
}

func newTestClient(t *testing.T, reply string, got *postedMessage) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat.postMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("token") != "xoxb-1" && r.Header.Get("Authorization") != "Bearer xoxb-1" {
			t.Errorf("bot token not sent")
		}
		if got != nil {
			got.Channel = r.PostForm.Get("channel")
			got.Text = r.PostForm.Get("text")
			if blocks := r.PostForm.Get("blocks"); blocks != "" {
				if err := json.Unmarshal([]byte(blocks), &got.Blocks); err != nil {
					t.Errorf("decode blocks: %v", err)
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(config.SlackEnvConfig{BotToken: "xoxb-1", ChannelID: "C1", BaseURL: srv.URL + "/api", HTTPTimeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestPost(t *testing.T) {
	t.Parallel()

	var got postedMessage
	c := newTestClient(t, `{"ok":true,"channel":"C1","ts":"1.2"}`, &got)
	msg := slack.Message{Text: "alert", Blocks: []slack.Block{slack.Header("hi"), slack.Context("a", "b")}}
	if err := c.Post(context.Background(), msg); err != nil {
		t.Fatalf("post: %v", err)
	}
	if got.Channel != "C1" || got.Text != "alert" || len(got.Blocks) != 2 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.Blocks[0]["type"] != "header" || got.Blocks[1]["type"] != "context" {
		t.Fatalf("unexpected block types: %+v", got.Blocks)
	}
	elems, _ := got.Blocks[1]["elements"].([]any)
	if len(elems) != 2 || elems[1].(map[string]any)["text"] != "b" {
		t.Fatalf("unexpected context elements: %+v", got.Blocks[1])
	}
}

func TestPostExplicitChannel(t *testing.T) {
	t.Parallel()

	var got postedMessage
	c := newTestClient(t, `{"ok":true,"channel":"C9","ts":"1.3"}`, &got)
	if err := c.Post(context.Background(), slack.Message{Channel: "C9", Text: "x"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if got.Channel != "C9" || len(got.Blocks) != 0 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestPostSlackError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, `{"ok":false,"error":"channel_not_found"}`, nil)
	err := c.Post(context.Background(), slack.Message{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected slack error, got %v", err)
	}
	var slackErr goslack.SlackErrorResponse
	if !errors.As(err, &slackErr) || slackErr.Err != "channel_not_found" {
		t.Fatalf("expected SlackErrorResponse, got %T", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.SlackEnvConfig{BotToken: "t"}); err == nil {
		t.Fatalf("expected error without channel")
	}
}
