package spaces

import (
	"strings"

	"github.com/hmgdev/hmg-index/internal/sources/atlassian"
)

// Filter keeps the spaces whose name or key contains query, ignoring case.
// A blank query returns spaces unchanged. Input order is preserved.
func Filter(spaces []atlassian.Space, query string) []atlassian.Space {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return spaces
	}
	out := make([]atlassian.Space, 0, len(spaces))
	for _, space := range spaces {
		if strings.Contains(strings.ToLower(space.Name), term) ||
			strings.Contains(strings.ToLower(space.Key), term) {
			out = append(out, space)
		}
	}
	return out
}
