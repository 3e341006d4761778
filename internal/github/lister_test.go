package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lark/repolist/internal/config"
)

type fakeRepo struct {
	Name            string `json:"name"`
	HTMLURL         string `json:"html_url"`
	Description     string `json:"description,omitempty"`
	StargazersCount int    `json:"stargazers_count"`
	Language        string `json:"language,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// newPagedServer serves pages of the given sizes and counts requests.
func newPagedServer(t *testing.T, owner string, sizes []int) (*httptest.Server, *int32) {
	t.Helper()
	var requests int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/"+owner+"/repos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		q := r.URL.Query()
		assert.Equal(t, "owner", q.Get("type"))
		assert.Equal(t, "100", q.Get("per_page"))
		assert.Equal(t, "updated", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("direction"))

		page, err := strconv.Atoi(q.Get("page"))
		assert.NoError(t, err)

		var batch []fakeRepo
		if page >= 1 && page <= len(sizes) {
			for i := 0; i < sizes[page-1]; i++ {
				batch = append(batch, fakeRepo{
					Name:      fmt.Sprintf("repo-%d-%d", page, i),
					HTMLURL:   fmt.Sprintf("https://github.com/%s/repo-%d-%d", owner, page, i),
					UpdatedAt: "2024-01-01T00:00:00Z",
				})
			}
		}
		if batch == nil {
			batch = []fakeRepo{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(batch)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &requests
}

func newTestLister(t *testing.T, baseURL string, cfg config.Config) *Lister {
	t.Helper()
	client, err := NewClient(context.Background(), cfg.Token, baseURL)
	require.NoError(t, err)
	return NewLister(client, cfg, nil)
}

func TestLister_FetchAll(t *testing.T) {
	t.Run("stops after a short page", func(t *testing.T) {
		server, requests := newPagedServer(t, "octo", []int{100, 100, 37})
		lister := newTestLister(t, server.URL, config.Default())

		repos, err := lister.FetchAll(context.Background(), "octo")

		require.NoError(t, err)
		assert.Len(t, repos, 237)
		assert.Equal(t, int32(3), atomic.LoadInt32(requests))
		assert.Equal(t, "repo-1-0", repos[0].Name)
		assert.Equal(t, "repo-3-36", repos[236].Name)
	})

	t.Run("stops on an empty page", func(t *testing.T) {
		server, requests := newPagedServer(t, "octo", []int{100, 0})
		lister := newTestLister(t, server.URL, config.Default())

		repos, err := lister.FetchAll(context.Background(), "octo")

		require.NoError(t, err)
		assert.Len(t, repos, 100)
		assert.Equal(t, int32(2), atomic.LoadInt32(requests))
	})

	t.Run("no repositories", func(t *testing.T) {
		server, requests := newPagedServer(t, "octo", nil)
		lister := newTestLister(t, server.URL, config.Default())

		repos, err := lister.FetchAll(context.Background(), "octo")

		require.NoError(t, err)
		assert.Empty(t, repos)
		assert.Equal(t, int32(1), atomic.LoadInt32(requests))
	})

	t.Run("cancelled context", func(t *testing.T) {
		server, requests := newPagedServer(t, "octo", []int{100})
		lister := newTestLister(t, server.URL, config.Default())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := lister.FetchAll(ctx, "octo")

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(0), atomic.LoadInt32(requests))
	})
}

func TestLister_Authorization(t *testing.T) {
	t.Run("sends bearer token", func(t *testing.T) {
		got := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got <- r.Header.Clone()
			_, _ = w.Write([]byte("[]"))
		}))
		defer server.Close()

		cfg := config.Default()
		cfg.Token = "secret"
		_, err := newTestLister(t, server.URL, cfg).FetchAll(context.Background(), "octo")

		require.NoError(t, err)
		header := <-got
		assert.Equal(t, "Bearer secret", header.Get("Authorization"))
		assert.Equal(t, MediaType, header.Get("Accept"))
	})

	t.Run("omits header without token", func(t *testing.T) {
		got := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got <- r.Header.Get("Authorization")
			_, _ = w.Write([]byte("[]"))
		}))
		defer server.Close()

		_, err := newTestLister(t, server.URL, config.Default()).FetchAll(context.Background(), "octo")

		require.NoError(t, err)
		assert.Empty(t, <-got)
	})
}

func TestLister_APIError(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	repos, err := newTestLister(t, server.URL, config.Default()).FetchAll(context.Background(), "ghost")

	require.Error(t, err)
	assert.Nil(t, repos)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Not Found", apiErr.Status)
	assert.Contains(t, apiErr.Body, "Not Found")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
}

func TestLister_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]fakeRepo{
			{Name: "old", HTMLURL: "https://github.com/o/old", UpdatedAt: "2022-01-01T00:00:00Z"},
			{Name: "Foo", HTMLURL: "https://github.com/o/Foo", UpdatedAt: "2023-01-01T00:00:00Z"},
			{Name: "new", HTMLURL: "https://github.com/o/new", UpdatedAt: "2024-01-01T00:00:00Z"},
		})
	}))
	defer server.Close()

	t.Run("sorted newest first", func(t *testing.T) {
		repos, err := newTestLister(t, server.URL, config.Default()).List(context.Background())

		require.NoError(t, err)
		require.Len(t, repos, 3)
		assert.Equal(t, []string{"new", "Foo", "old"}, names(repos))
	})

	t.Run("featured and limit from config", func(t *testing.T) {
		cfg := config.Default()
		cfg.FeaturedRepo = "foo"
		cfg.Limit = 1
		repos, err := newTestLister(t, server.URL, cfg).List(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"Foo"}, names(repos))
	})
}

func TestSelect(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(-time.Hour)
	t3 := t2.Add(-time.Hour)

	t.Run("sorts by update time descending", func(t *testing.T) {
		in := []Repository{{Name: "c", UpdatedAt: t3}, {Name: "a", UpdatedAt: t1}, {Name: "b", UpdatedAt: t2}}

		out := Select(in, "", 0)

		assert.Equal(t, []string{"a", "b", "c"}, names(out))
		assert.Equal(t, "c", in[0].Name, "input must not be reordered")
	})

	t.Run("ties keep input order", func(t *testing.T) {
		in := []Repository{{Name: "x", UpdatedAt: t1}, {Name: "y", UpdatedAt: t1}, {Name: "z", UpdatedAt: t1}}

		assert.Equal(t, []string{"x", "y", "z"}, names(Select(in, "", 0)))
	})

	t.Run("featured name is case-insensitive and exact", func(t *testing.T) {
		in := []Repository{{Name: "Foo"}, {Name: "bar"}, {Name: "Foobar"}}

		out := Select(in, "FOO", 0)

		assert.Equal(t, []string{"Foo"}, names(out))
	})

	t.Run("limit keeps the first records", func(t *testing.T) {
		var in []Repository
		for i := 0; i < 10; i++ {
			in = append(in, Repository{Name: strconv.Itoa(i), UpdatedAt: t1.Add(-time.Duration(i) * time.Minute)})
		}

		out := Select(in, "", 3)

		assert.Equal(t, []string{"0", "1", "2"}, names(out))
	})

	t.Run("limit larger than list", func(t *testing.T) {
		out := Select([]Repository{{Name: "only"}}, "", 5)
		assert.Len(t, out, 1)
	})
}

func names(repos []Repository) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.Name)
	}
	return out
}
