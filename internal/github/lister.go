// Package github lists a user's repositories through the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/go-lark/repolist/internal/config"
)

// PageSize is the number of repositories requested per page.
const PageSize = 100

// Lister fetches and selects repositories for one owner.
type Lister struct {
	client *gh.Client
	cfg    config.Config
	logger *slog.Logger
}

// NewLister creates a Lister using client for all API calls.
func NewLister(client *gh.Client, cfg config.Config, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{client: client, cfg: cfg, logger: logger}
}

// List returns the owner's repositories, newest-updated first, after the
// featured-name filter and the limit are applied.
func (l *Lister) List(ctx context.Context) ([]Repository, error) {
	repos, err := l.FetchAll(ctx, l.cfg.Owner)
	if err != nil {
		return nil, err
	}
	return Select(repos, l.cfg.FeaturedRepo, l.cfg.Limit), nil
}

// FetchAll pages through the owner's repositories until a page shorter than
// PageSize is returned. Records keep the order the API returned them in.
func (l *Lister) FetchAll(ctx context.Context, owner string) ([]Repository, error) {
	opts := &gh.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: PageSize, Page: 1},
	}

	var all []Repository
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, _, err := l.client.Repositories.ListByUser(ctx, owner, opts)
		if err != nil {
			return nil, wrapError(err, fmt.Sprintf("list repos page %d", opts.Page))
		}
		l.logger.Debug("fetched page", "owner", owner, "page", opts.Page, "count", len(batch))

		for _, r := range batch {
			all = append(all, fromGitHub(r))
		}
		if len(batch) < PageSize {
			break
		}
		opts.Page++
	}

	return all, nil
}

// Select sorts repos by UpdatedAt descending, keeps only the repository named
// featured (case-insensitive) when featured is set, and truncates to limit
// when limit is positive. The input slice is not modified.
func Select(repos []Repository, featured string, limit int) []Repository {
	out := make([]Repository, len(repos))
	copy(out, repos)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if featured != "" {
		filtered := out[:0]
		for _, r := range out {
			if strings.EqualFold(r.Name, featured) {
				filtered = append(filtered, r)
			}
		}
		out = filtered
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
