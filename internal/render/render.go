// Package render turns repositories into markdown list lines.
package render

import (
	"fmt"
	"strings"

	"github.com/go-lark/repolist/internal/github"
)

// EmptyPlaceholder is rendered when there are no repositories.
const EmptyPlaceholder = "_No repositories found._"

// FormatLine renders one repository as a markdown list item. Absent fields
// are left out.
func FormatLine(r github.Repository) string {
	parts := []string{fmt.Sprintf("- [%s](%s)", r.Name, r.URL)}
	if r.HasDescription() {
		parts = append(parts, "— "+strings.TrimSpace(r.Description))
	}

	var meta []string
	if r.StargazersCount > 0 {
		meta = append(meta, fmt.Sprintf("⭐ %d", r.StargazersCount))
	}
	if r.Language != "" {
		meta = append(meta, r.Language)
	}
	if !r.UpdatedAt.IsZero() {
		meta = append(meta, "updated "+r.UpdatedAt.UTC().Format("2006-01-02"))
	}
	if len(meta) > 0 {
		parts = append(parts, "("+strings.Join(meta, " • ")+")")
	}

	return strings.Join(parts, " ")
}

// List renders repos one per line, or EmptyPlaceholder.
func List(repos []github.Repository) string {
	if len(repos) == 0 {
		return EmptyPlaceholder
	}
	lines := make([]string, 0, len(repos))
	for _, r := range repos {
		lines = append(lines, FormatLine(r))
	}
	return strings.Join(lines, "\n")
}
