package github

import (
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// Repository is the subset of a GitHub repository rendered into the list.
type Repository struct {
	Name            string
	URL             string
	Description     string
	StargazersCount int
	Language        string
	UpdatedAt       time.Time
}

// HasDescription reports whether the description is non-blank.
func (r Repository) HasDescription() bool {
	return strings.TrimSpace(r.Description) != ""
}

func fromGitHub(repo *gh.Repository) Repository {
	return Repository{
		Name:            repo.GetName(),
		URL:             repo.GetHTMLURL(),
		Description:     repo.GetDescription(),
		StargazersCount: repo.GetStargazersCount(),
		Language:        repo.GetLanguage(),
		UpdatedAt:       repo.GetUpdatedAt().Time,
	}
}
