package spaces

import "github.com/hmgdev/hmg-index/internal/sources/atlassian"

// PublicSpace is the subset of a space exposed to callers. Fields the
// upstream omitted serialize as null.
type PublicSpace struct {
	ID          string                      `json:"id"`
	Key         string                      `json:"key"`
	Name        string                      `json:"name"`
	Description *atlassian.SpaceDescription `json:"description"`
	Type        *string                     `json:"type"`
	Status      *string                     `json:"status"`
	Links       *atlassian.Links            `json:"_links"`
}

func Project(spaces []atlassian.Space) []PublicSpace {
	out := make([]PublicSpace, 0, len(spaces))
	for _, space := range spaces {
		out = append(out, PublicSpace{
			ID:          space.ID,
			Key:         space.Key,
			Name:        space.Name,
			Description: space.Description,
			Type:        optional(space.Type),
			Status:      optional(space.Status),
			Links:       space.Links,
		})
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
