package mock

import (
	"context"
	"sync"

	"github.com/hmgdev/hmg-index/internal/llm"
)

// Reply is one scripted answer. A non-nil Err fails that call.
type Reply struct {
	Content string
	Err     error
}

// Client answers from Script one call at a time and keeps repeating the last
// reply once the script runs out. An empty script answers with "".
type Client struct {
	Script []Reply
	// Model is echoed in every response when set; otherwise the request's.
	Model string

	mu    sync.Mutex
	calls []llm.ChatRequest
}

// Answering builds a client whose replies are the given contents.
func Answering(contents ...string) *Client {
	script := make([]Reply, 0, len(contents))
	for _, content := range contents {
		script = append(script, Reply{Content: content})
	}
	return &Client{Script: script}
}

func (c *Client) ChatCompletion(ctx context.Context, request llm.ChatRequest) (llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return llm.ChatResponse{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	turn := len(c.calls)
	c.calls = append(c.calls, request)
	if len(c.Script) == 0 {
		return llm.ChatResponse{Model: c.model(request)}, nil
	}
	reply := c.Script[min(turn, len(c.Script)-1)]
	if reply.Err != nil {
		return llm.ChatResponse{}, reply.Err
	}
	return llm.ChatResponse{Content: reply.Content, Model: c.model(request)}, nil
}

func (c *Client) model(request llm.ChatRequest) string {
	if c.Model != "" {
		return c.Model
	}
	return request.Model
}

// Calls returns a copy of every request received so far.
func (c *Client) Calls() []llm.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.ChatRequest(nil), c.calls...)
}

// Prompts returns the content of the last message of each request.
func (c *Client) Prompts() []string {
	calls := c.Calls()
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		if n := len(call.Messages); n > 0 {
			out = append(out, call.Messages[n-1].Content)
		}
	}
	return out
}
