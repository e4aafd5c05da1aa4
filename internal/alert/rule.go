package alert

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// DefaultRule matches issues that are waiting in To Do without an owner.
const DefaultRule = `status == "To Do" && assignee == ""`

// IssueEnv is what a rule expression can see.
type IssueEnv struct {
	Key      string `expr:"key"`
	Summary  string `expr:"summary"`
	Status   string `expr:"status"`
	Priority string `expr:"priority"`
	Assignee string `expr:"assignee"`
}

func issueEnv(issue atlassian.Issue) IssueEnv {
	env := IssueEnv{
		Key:     issue.Key,
		Summary: issue.Fields.Summary,
		Status:  issue.StatusName(),
	}
	if issue.Fields.Priority != nil {
		env.Priority = issue.Fields.Priority.Name
	}
	if issue.Fields.Assignee != nil {
		env.Assignee = issue.Fields.Assignee.AccountID
	}
	return env
}

type Rule struct {
	source  string
	program *vm.Program
}

// CompileRule type-checks source against IssueEnv. Blank source uses
// DefaultRule.
func CompileRule(source string) (*Rule, error) {
	if strings.TrimSpace(source) == "" {
		source = DefaultRule
	}
	program, err := expr.Compile(source, expr.Env(IssueEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile alert rule: %w", err)
	}
	return &Rule{source: source, program: program}, nil
}

func (r *Rule) String() string { return r.source }

func (r *Rule) Match(issue atlassian.Issue) (bool, error) {
	out, err := expr.Run(r.program, issueEnv(issue))
	if err != nil {
		return false, fmt.Errorf("evaluate alert rule: %w", err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("alert rule did not return bool")
	}
	return matched, nil
}
