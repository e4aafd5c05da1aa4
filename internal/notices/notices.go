// Package notices serves the notice board.
package notices

import (
	"fmt"
	"sort"
	"time"

	"github.com/hmgdev/hmg-index/internal/config"
	"github.com/hmgdev/hmg-index/internal/markdown"
)

type Notice struct {
	ID       int    `json:"id"`
	Space    string `json:"space"`
	Summary  string `json:"summary"`
	Updated  string `json:"updated"`
	Creator  string `json:"creator"`
	Priority string `json:"priority"`
	Category string `json:"category"`
	// HTML is only filled by Detail.
	HTML string `json:"html,omitempty"`

	body    string
	updated time.Time
}

type ListOptions struct {
	Limit    int    `json:"limit,omitempty"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Filters echoes the applied options; unset options are null.
type Filters struct {
	Category *string `json:"category"`
	Priority *string `json:"priority"`
	Limit    *int    `json:"limit"`
}

var builtinSeeds = []config.NoticeSeed{
	{ID: 1, Space: "COMMONGUIDE", Summary: "(2025.05.19) Bi Weekly Report of ICT", Updated: "2025-05-19", Creator: "김동진 책임매니저 IT정책지원팀", Priority: "high", Category: "report"},
	{ID: 2, Space: "COMMONGUIDE", Summary: "(2025.05.04) Bi Weekly Report of ICT", Updated: "2025-05-02", Creator: "차협성 팀장 IT정책지원팀", Priority: "medium", Category: "report"},
	{ID: 3, Space: "COMMONGUIDE", Summary: "미래차전력협의회 운영방안 공지", Updated: "2025-04-29", Creator: "김동진 책임매니저 IT정책지원팀", Priority: "high", Category: "announcement"},
	{ID: 4, Space: "COMMONGUIDE", Summary: "Global IT Forum 2025", Updated: "2025-04-10", Creator: "차협성 팀장 IT정책지원팀", Priority: "medium", Category: "event"},
	{ID: 5, Space: "COMMONGUIDE", Summary: "25년 UML 교육 후기", Updated: "2025-04-03", Creator: "김동진 책임매니저 IT정책지원팀", Priority: "low", Category: "education"},
}

type Board struct {
	notices  []Notice
	renderer *markdown.Renderer
}

// New builds the board from seeds, or the built-in notices when seeds is
// empty. Seeds must carry YYYY-MM-DD dates.
func New(seeds []config.NoticeSeed) (*Board, error) {
	if len(seeds) == 0 {
		seeds = builtinSeeds
	}
	notices := make([]Notice, 0, len(seeds))
	for _, s := range seeds {
		updated, err := time.Parse(time.DateOnly, s.Updated)
		if err != nil {
			return nil, fmt.Errorf("notice %d: %w", s.ID, err)
		}
		notices = append(notices, Notice{
			ID:       s.ID,
			Space:    s.Space,
			Summary:  s.Summary,
			Updated:  s.Updated,
			Creator:  s.Creator,
			Priority: s.Priority,
			Category: s.Category,
			body:     s.Body,
			updated:  updated,
		})
	}
	return &Board{notices: notices, renderer: markdown.NewRenderer()}, nil
}

// List filters by exact category and priority, newest first, then applies
// a positive limit.
func (b *Board) List(opts ListOptions) ([]Notice, Filters) {
	out := make([]Notice, 0, len(b.notices))
	for _, n := range b.notices {
		if opts.Category != "" && n.Category != opts.Category {
			continue
		}
		if opts.Priority != "" && n.Priority != opts.Priority {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].updated.After(out[j].updated)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	var f Filters
	if opts.Category != "" {
		f.Category = &opts.Category
	}
	if opts.Priority != "" {
		f.Priority = &opts.Priority
	}
	if opts.Limit > 0 {
		f.Limit = &opts.Limit
	}
	return out, f
}

// Detail returns the notice with its body rendered to HTML.
func (b *Board) Detail(id int) (Notice, bool, error) {
	for _, n := range b.notices {
		if n.ID != id {
			continue
		}
		if n.body != "" {
			html, err := b.renderer.Render(n.body)
			if err != nil {
				return Notice{}, true, fmt.Errorf("render notice %d: %w", id, err)
			}
			n.HTML = html
		}
		return n, true, nil
	}
	return Notice{}, false, nil
}
