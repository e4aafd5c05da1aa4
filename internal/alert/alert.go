// Package alert raises a Slack (and optionally email) alert when an issue
// sits in To Do without an assignee.
package alert

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// EventKey names the in-process event that triggers an alert.
const EventKey = "alert-highest-issue-unassigned"

// ErrQueueFull is returned when the alert queue cannot take another event.
var ErrQueueFull = errors.New("alert queue is full")

type Source string

const (
	SourceIssueCreated Source = "issue-created"
	SourceSchedule     Source = "schedule"
)

type Event struct {
	Key      string    `json:"key"`
	Source   Source    `json:"source"`
	IssueKey string    `json:"issueKey,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher turns issue-created webhooks into queued alert events.
type Publisher struct {
	rule  *Rule
	queue chan<- Event
}

func NewPublisher(rule *Rule, queue chan<- Event) *Publisher {
	return &Publisher{rule: rule, queue: queue}
}

// OnIssueCreated queues an event when issue matches the rule. It never
// blocks: a full queue returns ErrQueueFull.
func (p *Publisher) OnIssueCreated(ctx context.Context, issue atlassian.Issue) (bool, error) {
	logger := core.LoggerFromContext(ctx).With("issue_key", issue.Key)
	matched, err := p.rule.Match(issue)
	if err != nil {
		return false, err
	}
	if !matched {
		logger.Debug("issue does not match alert rule", "rule", p.rule.String())
		return false, nil
	}
	ev := Event{Key: EventKey, Source: SourceIssueCreated, IssueKey: issue.Key, At: time.Now().UTC()}
	if !offer(p.queue, ev) {
		logger.Warn("alert not published", "error", ErrQueueFull)
		return false, ErrQueueFull
	}
	logger.Info("alert published", "event", EventKey)
	return true, nil
}

func offer(queue chan<- Event, ev Event) bool {
	select {
	case queue <- ev:
		return true
	default:
		return false
	}
}

// Run handles events until ctx is done or events is closed. Handler errors
// are logged and do not stop the loop.
func (c *Consumer) Run(ctx context.Context, events <-chan Event) {
	logger := core.LoggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.Handle(ctx, ev); err != nil {
				logger.Error("alert delivery failed", slog.String("source", string(ev.Source)), slog.Any("error", err))
			}
		}
	}
}
