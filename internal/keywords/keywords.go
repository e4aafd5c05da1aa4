// Package keywords extracts keywords from Confluence pages with an LLM and
// applies them as page labels.
package keywords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/llm"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// ErrNotConfigured is returned by LLM-backed operations when no API key is set.
var ErrNotConfigured = errors.New("keywords: OpenAI is not configured (set OPENAI_API_KEY)")

const (
	decodeRetries   = 1
	maxPromptRunes  = 12000
	defaultMaxWords = 10
)

var promptTemplate = template.Must(template.New("keywords").Parse(
	`Extract at most {{.Max}} keywords that describe the following Confluence page.
Answer with a JSON array of strings and nothing else.

{{.Content}}`))

type Config struct {
	Model       string
	MaxKeywords int
}

type Service struct {
	confluence atlassian.Confluence
	llm        llm.Client
	cfg        Config
	conv       *converter.Converter
}

// New builds the service. client may be nil when OpenAI is not configured;
// GetContent and AddLabels keep working.
func New(confluence atlassian.Confluence, client llm.Client, cfg Config) *Service {
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = defaultMaxWords
	}
	return &Service{confluence: confluence, llm: client, cfg: cfg, conv: newConverter()}
}

// GetContent returns the storage-format body of a page.
func (s *Service) GetContent(ctx context.Context, contentID string) (string, error) {
	if strings.TrimSpace(contentID) == "" {
		return "", fmt.Errorf("contentId is required")
	}
	body, err := s.confluence.PageStorageBody(ctx, contentID)
	if err != nil {
		return "", fmt.Errorf("get content %s: %w", contentID, err)
	}
	return body, nil
}

// Complete sends prompt as a single user message.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if s.llm == nil {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	resp, err := s.llm.ChatCompletion(ctx, llm.UserPrompt(s.cfg.Model, prompt))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return resp.Content, nil
}

// Extract fetches the page, asks the model for keywords and parses its
// answer. A malformed answer is retried once.
func (s *Service) Extract(ctx context.Context, contentID string) ([]string, error) {
	if s.llm == nil {
		return nil, ErrNotConfigured
	}
	body, err := s.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	text, err := storageToMarkdown(s.conv, body)
	if err != nil {
		return nil, fmt.Errorf("convert content %s: %w", contentID, err)
	}
	if runes := []rune(text); len(runes) > maxPromptRunes {
		text = string(runes[:maxPromptRunes])
	}

	var prompt strings.Builder
	if err := promptTemplate.Execute(&prompt, map[string]any{"Max": s.cfg.MaxKeywords, "Content": text}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	logger := core.LoggerFromContext(ctx)
	var lastErr error
	for attempt := 0; attempt <= decodeRetries; attempt++ {
		resp, err := s.llm.ChatCompletion(ctx, llm.UserPrompt(s.cfg.Model, prompt.String()))
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		words, err := ParseKeywords(resp.Content)
		if err != nil {
			lastErr = err
			logger.Warn("keyword response not parseable", "attempt", attempt+1, "error", err)
			continue
		}
		if len(words) > s.cfg.MaxKeywords {
			words = words[:s.cfg.MaxKeywords]
		}
		return words, nil
	}
	return nil, fmt.Errorf("decode keywords after %d attempt(s): %w", decodeRetries+1, lastErr)
}

// AddLabels attaches keywords to the page as global labels. Spaces inside a
// keyword become hyphens.
func (s *Service) AddLabels(ctx context.Context, contentID string, keywords []string) ([]atlassian.Label, error) {
	if strings.TrimSpace(contentID) == "" {
		return nil, fmt.Errorf("contentId is required")
	}
	names := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if name := LabelName(k); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no usable keywords")
	}
	labels, err := s.confluence.AddLabels(ctx, contentID, names)
	if err != nil {
		return nil, fmt.Errorf("add labels to %s: %w", contentID, err)
	}
	return labels, nil
}

// LabelName joins the words of keyword with hyphens.
func LabelName(keyword string) string {
	return strings.Join(strings.Fields(keyword), "-")
}

// ParseKeywords reads a JSON array of strings. Models often wrap the array
// in prose or code fences, so the outermost [...] is used when the whole
// answer is not valid JSON. Blank and duplicate entries are dropped.
func ParseKeywords(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	var raw []string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		start, end := strings.Index(content, "["), strings.LastIndex(content, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON array in response")
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("parse keyword array: %w", err)
		}
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	return out, nil
}
