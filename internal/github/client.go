package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// MediaType is sent as the Accept header on every API request.
const MediaType = "application/vnd.github+json"

// NewClient creates a go-github client. A non-empty token is sent as a
// bearer token; an empty baseURL keeps the public API endpoint.
func NewClient(ctx context.Context, token, baseURL string) (*gh.Client, error) {
	tc := &http.Client{}
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(ctx, ts)
	}
	tc.Transport = &acceptTransport{base: tc.Transport}
	client := gh.NewClient(tc)

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// acceptTransport replaces go-github's versioned v3 media type with MediaType.
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("Accept", MediaType)
	return base.RoundTrip(req)
}
