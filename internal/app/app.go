// Package app wires the resolver registry, the alert pipeline and the
// workflow hooks from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hmgdev/hmg-index/internal/alert"
	"github.com/hmgdev/hmg-index/internal/articles"
	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/core"
	"github.com/hmgdev/hmg-index/internal/glossary"
	"github.com/hmgdev/hmg-index/internal/keywords"
	"github.com/hmgdev/hmg-index/internal/llm"
	llmopenai "github.com/hmgdev/hmg-index/internal/llm/openai"
	"github.com/hmgdev/hmg-index/internal/notices"
	"github.com/hmgdev/hmg-index/internal/organization"
	"github.com/hmgdev/hmg-index/internal/outputs/email"
	"github.com/hmgdev/hmg-index/internal/outputs/email/smtp"
	"github.com/hmgdev/hmg-index/internal/outputs/slack"
	slackapi "github.com/hmgdev/hmg-index/internal/outputs/slack/api"
	"github.com/hmgdev/hmg-index/internal/pagestats"
	"github.com/hmgdev/hmg-index/internal/resolver"
	"github.com/hmgdev/hmg-index/internal/servicedesk"
	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
	atlassianimpl "github.com/hmgdev/hmg-index/internal/sources/atlassian/impl"
	"github.com/hmgdev/hmg-index/internal/sources/external"
	externalimpl "github.com/hmgdev/hmg-index/internal/sources/external/impl"
	"github.com/hmgdev/hmg-index/internal/spaces"
	"github.com/hmgdev/hmg-index/internal/store"
	"github.com/hmgdev/hmg-index/internal/workflow"
)

const defaultQueueSize = 16

// Deps are the collaborators of an App. LLM, Slack and Mail may be nil.
type Deps struct {
	Logger     *slog.Logger
	Document   *config.Document
	Env        config.EnvConfig
	Store      store.Store
	Confluence atlassian.Confluence
	Jira       atlassian.Jira
	LLM        llm.Client
	Users      external.Placeholder
	Quotes     external.Quotes
	Slack      slack.Poster
	Mail       email.Sender
}

type App struct {
	Registry  *resolver.Registry
	Publisher *alert.Publisher
	Consumer  *alert.Consumer
	// Scheduler is nil when no alert schedule is configured.
	Scheduler *alert.Scheduler
	Queue     chan alert.Event
	Workflow  *workflow.Hooks

	logger *slog.Logger
	store  store.Store
}

// IssueCreated reports what the issue-created hooks did.
type IssueCreated struct {
	IssueKey       string `json:"issueKey"`
	AlertPublished bool   `json:"alertPublished"`
	Commented      bool   `json:"commented"`
}

// New builds an App from explicit dependencies and registers every resolver.
func New(deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	doc := deps.Document
	if doc == nil {
		doc = config.DefaultDocument()
	}
	if deps.Store == nil {
		return nil, errors.New("app: store is required")
	}
	if deps.Confluence == nil || deps.Jira == nil {
		unconfigured := unconfiguredAtlassian{}
		if deps.Confluence == nil {
			deps.Confluence = unconfigured
		}
		if deps.Jira == nil {
			deps.Jira = unconfigured
		}
	}

	alertCfg := doc.MergeAlert(deps.Env.Alert)
	ruleSource := alertCfg.Rule
	if ruleSource == "" {
		ruleSource = alert.DefaultRule
	}
	rule, err := alert.CompileRule(ruleSource)
	if err != nil {
		return nil, err
	}
	queueSize := alertCfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	queue := make(chan alert.Event, queueSize)

	var scheduler *alert.Scheduler
	if alertCfg.Schedule != "" {
		scheduler, err = alert.NewScheduler(alertCfg.Schedule, alertCfg.Timezone, queue)
		if err != nil {
			return nil, err
		}
	}

	board, err := notices.New(doc.Notices)
	if err != nil {
		return nil, err
	}

	a := &App{
		Registry:  resolver.NewRegistry(logger),
		Publisher: alert.NewPublisher(rule, queue),
		Consumer: alert.NewConsumer(deps.Jira, deps.Slack, deps.Mail, alert.ConsumerConfig{
			BrowseURL: alertCfg.BrowseURL,
			EmailFrom: alertCfg.EmailFrom,
			EmailTo:   alertCfg.EmailTo,
		}),
		Scheduler: scheduler,
		Queue:     queue,
		Workflow:  workflow.New(deps.Jira, doc.Workflow),
		logger:    logger,
		store:     deps.Store,
	}

	r := &resolvers{
		info:     doc.App,
		search:   spaces.NewSearcher(deps.Confluence, spaces.Config(deps.Env.Search), logger),
		org:      organization.New(deps.Store, doc.Organization, deps.Users),
		notices:  board,
		desk:     servicedesk.New(deps.Jira, deps.Env.Atlassian),
		glossary: glossary.New(deps.Store),
		articles: articles.New(deps.Store),
		keywords: keywords.New(deps.Confluence, deps.LLM, keywords.Config{
			Model:       deps.Env.OpenAI.Model,
			MaxKeywords: deps.Env.OpenAI.MaxKeywords,
		}),
		pagestats: pagestats.NewCounter(deps.Confluence, pagestats.Config{
			MaxIterations: deps.Env.Search.MaxIterations,
		}, logger),
		confluence: deps.Confluence,
		users:      deps.Users,
		quotes:     deps.Quotes,
		workflow:   a.Workflow,
	}
	r.register(a.Registry)
	return a, nil
}

// NewFromEnv builds the real clients described by env. Atlassian, OpenAI,
// Slack and SMTP are optional; missing credentials disable the features
// that need them.
func NewFromEnv(logger *slog.Logger, env config.EnvConfig, doc *config.Document) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := store.Open(env.Store)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Logger:   logger,
		Document: doc,
		Env:      env,
		Store:    s,
	}

	if env.Atlassian.Configured() {
		client, err := atlassianimpl.NewClient(env.Atlassian)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		deps.Confluence = client
		deps.Jira = client
	} else {
		logger.Warn("atlassian credentials missing, confluence and jira resolvers are disabled")
	}

	if env.OpenAI.APIKey != "" {
		deps.LLM = llmopenai.NewClient(env.OpenAI)
	}

	ext := externalimpl.NewClient(env.External)
	deps.Users = ext
	deps.Quotes = ext

	if env.Slack.Configured() {
		poster, err := slackapi.NewClient(env.Slack)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		deps.Slack = poster
	}

	if env.SMTP.Host != "" {
		sender, err := smtp.NewSender(env.SMTP)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		deps.Mail = sender
	}

	a, err := New(deps)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return a, nil
}

// Start launches the alert consumer and, when configured, the alert
// schedule. Both stop when ctx is done.
func (a *App) Start(ctx context.Context) error {
	ctx = core.WithLogger(ctx, a.logger.With("component", "alert"))
	go a.Consumer.Run(ctx, a.Queue)
	if a.Scheduler != nil {
		if err := a.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start alert schedule: %w", err)
		}
	}
	return nil
}

// OnIssueCreated runs the issue-created hooks: the alert rule and the
// creation comment. A full alert queue is reported but does not stop the
// comment.
func (a *App) OnIssueCreated(ctx context.Context, issue atlassian.Issue) (IssueCreated, error) {
	if issue.Key == "" {
		return IssueCreated{}, errors.New("issue key is required")
	}
	ctx = core.WithLogger(ctx, a.logger.With("hook", "issue-created"))
	out := IssueCreated{IssueKey: issue.Key}

	var errs []error
	published, err := a.Publisher.OnIssueCreated(ctx, issue)
	if err != nil {
		errs = append(errs, err)
	}
	out.AlertPublished = published

	commented, err := a.Workflow.CommentOnCreate(ctx, issue.Key)
	if err != nil {
		errs = append(errs, err)
	}
	out.Commented = commented
	return out, errors.Join(errs...)
}

func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	return a.store.Close()
}
