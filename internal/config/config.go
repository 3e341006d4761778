// Package config builds the run configuration once at process start.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// YAML file, a .env file, the process environment and finally command flags.
// A malformed value is ignored in favour of the layer below it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Built-in defaults, used when no file, environment or flag sets a value.
const (
	DefaultFile        = "repolist.yaml"
	DefaultReadme      = "README.md"
	DefaultStartMarker = "<!-- REPO_LIST:START -->"
	DefaultEndMarker   = "<!-- REPO_LIST:END -->"
	DefaultHeading     = "Featured repository"
	DefaultOwner       = "Kwts30"
)

// Config is passed by value into every component.
type Config struct {
	Token        string
	Owner        string
	FeaturedRepo string
	Limit        int
	Readme       string
	StartMarker  string
	EndMarker    string
	Heading      string
	APIBaseURL   string
	Timeout      time.Duration
}

// fileConfig mirrors the YAML file. Tokens are never read from it.
type fileConfig struct {
	Owner        string `yaml:"owner"`
	FeaturedRepo string `yaml:"featured_repo"`
	Limit        int    `yaml:"limit"`
	Readme       string `yaml:"readme"`
	StartMarker  string `yaml:"start_marker"`
	EndMarker    string `yaml:"end_marker"`
	Heading      string `yaml:"heading"`
	APIBaseURL   string `yaml:"api_url"`
	Timeout      string `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Owner:       DefaultOwner,
		Readme:      DefaultReadme,
		StartMarker: DefaultStartMarker,
		EndMarker:   DefaultEndMarker,
		Heading:     DefaultHeading,
	}
}

// Load builds the configuration from path (or DefaultFile when path is empty),
// .env and the environment. A missing DefaultFile is not an error. An
// unreadable .env is logged and skipped.
func Load(path string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.applyFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	// .env never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ignoring .env", "error", err)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.Owner, fc.Owner)
	setString(&c.FeaturedRepo, fc.FeaturedRepo)
	setString(&c.Readme, fc.Readme)
	setString(&c.StartMarker, fc.StartMarker)
	setString(&c.EndMarker, fc.EndMarker)
	setString(&c.Heading, fc.Heading)
	setString(&c.APIBaseURL, fc.APIBaseURL)
	if fc.Limit > 0 {
		c.Limit = fc.Limit
	}
	if d, err := time.ParseDuration(strings.TrimSpace(fc.Timeout)); err == nil && d > 0 {
		c.Timeout = d
	}
	c.FeaturedRepo = strings.ToLower(c.FeaturedRepo)
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	token := getenv("GITHUB_TOKEN")
	if token == "" {
		token = getenv("GH_TOKEN")
	}
	setString(&c.Token, token)

	// GITHUB_REPOSITORY is "owner/repo" when running in Actions.
	if repo := strings.TrimSpace(getenv("GITHUB_REPOSITORY")); repo != "" {
		owner, _, _ := strings.Cut(repo, "/")
		setString(&c.Owner, owner)
	}
	setString(&c.Owner, getenv("TARGET_USERNAME"))

	if featured := strings.TrimSpace(getenv("FEATURED_REPO")); featured != "" {
		c.FeaturedRepo = strings.ToLower(featured)
	}
	if limit, ok := ParseLimit(getenv("REPO_LIST_LIMIT")); ok {
		c.Limit = limit
	}
	setString(&c.APIBaseURL, getenv("GITHUB_API_URL"))
}

// Override applies command flag values; zero values leave the field as is.
func (c Config) Override(readme, owner, featured string, limit int) Config {
	setString(&c.Readme, readme)
	setString(&c.Owner, owner)
	if featured = strings.TrimSpace(featured); featured != "" {
		c.FeaturedRepo = strings.ToLower(featured)
	}
	if limit > 0 {
		c.Limit = limit
	}
	return c
}

// ParseLimit parses a list-size limit from the leading integer of s, so
// "5abc" and "3.7" read as 5 and 3. Anything without a positive leading
// integer is reported as not set.
func ParseLimit(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
