package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/markdown"
	"github.com/hmgdev/hmg-index/internal/outputs/email"
	"github.com/hmgdev/hmg-index/internal/outputs/slack"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// UnassignedJQL selects the newest unassigned To Do issue.
const UnassignedJQL = `status="To Do" AND assignee=EMPTY ORDER BY created DESC`

type ConsumerConfig struct {
	BrowseURL string
	EmailFrom string
	EmailTo   string
}

type Consumer struct {
	jira     atlassian.Jira
	slack    slack.Poster
	mail     email.Sender
	cfg      ConsumerConfig
	renderer *markdown.Renderer
	now      func() time.Time
}

// NewConsumer wires the alert outputs. poster and mail may be nil; a nil
// poster skips Slack delivery, a nil mail (or empty EmailTo) skips email.
func NewConsumer(jira atlassian.Jira, poster slack.Poster, mail email.Sender, cfg ConsumerConfig) *Consumer {
	return &Consumer{
		jira:     jira,
		slack:    poster,
		mail:     mail,
		cfg:      cfg,
		renderer: markdown.NewRenderer(),
		now:      time.Now,
	}
}

// Handle looks up the newest unassigned issue and delivers the alert. A
// failed lookup still sends the alert without issue details.
func (c *Consumer) Handle(ctx context.Context, ev Event) error {
	logger := core.LoggerFromContext(ctx).With("event", ev.Key, "source", string(ev.Source))

	var issue *atlassian.Issue
	issues, err := c.jira.SearchIssues(ctx, UnassignedJQL, 1)
	if err != nil {
		logger.Error("fetch unassigned issue failed", "error", err)
	} else if len(issues) > 0 {
		issue = &issues[0]
	}

	at := c.now()
	var errs []error
	if c.slack == nil {
		logger.Warn("slack is not configured, skipping alert")
	} else if err := c.slack.Post(ctx, c.slackMessage(issue, at)); err != nil {
		errs = append(errs, fmt.Errorf("slack: %w", err))
	} else {
		logger.Info("slack alert sent")
	}

	if c.mail != nil && c.cfg.EmailTo != "" {
		msg, err := c.emailMessage(issue, at)
		if err == nil {
			err = c.mail.Send(ctx, msg)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			logger.Info("email alert sent", "to", c.cfg.EmailTo)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (c *Consumer) slackMessage(issue *atlassian.Issue, at time.Time) slack.Message {
	details := ""
	if issue != nil {
		details = fmt.Sprintf("\n*Issue:* <%s|%s>\n*Summary:* %s", c.browseLink(issue.Key), issue.Key, issue.Fields.Summary)
	}
	return slack.Message{
		Text: "🚨 Unassigned Issue Alert!",
		Blocks: []slack.Block{
			slack.Header("⚠️ Action Required: Unassigned Issue"),
			slack.Section("A high priority issue needs attention!" + details),
			slack.Context("Event received at " + at.Format(time.RFC1123)),
		},
	}
}

func (c *Consumer) emailMessage(issue *atlassian.Issue, at time.Time) (email.Message, error) {
	var b strings.Builder
	b.WriteString("## Action Required: Unassigned Issue\n\n")
	b.WriteString("A high priority issue needs attention!\n\n")
	subject := "Unassigned issue alert"
	if issue != nil {
		fmt.Fprintf(&b, "- **Issue:** [%s](%s)\n- **Summary:** %s\n\n", issue.Key, c.browseLink(issue.Key), issue.Fields.Summary)
		subject = fmt.Sprintf("Unassigned issue alert: %s", issue.Key)
	}
	fmt.Fprintf(&b, "_Event received at %s_\n", at.Format(time.RFC1123))

	text := b.String()
	html, err := c.renderer.Render(text)
	if err != nil {
		return email.Message{}, fmt.Errorf("render alert: %w", err)
	}
	return email.Message{
		From:     c.cfg.EmailFrom,
		To:       c.cfg.EmailTo,
		Subject:  subject,
		HTMLBody: html,
		TextBody: text,
	}, nil
}

func (c *Consumer) browseLink(key string) string {
	if c.cfg.BrowseURL == "" {
		return key
	}
	return strings.TrimRight(c.cfg.BrowseURL, "/") + "/" + key
}
