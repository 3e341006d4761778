// Package readme keeps a marker-delimited section of a markdown file in sync
// with generated content. Text outside the markers is never touched.
package readme

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/go-lark/repolist/internal/config"
)

var (
	// ErrMarkerMissing indicates only one of the two markers is present.
	ErrMarkerMissing = errors.New("readme: section has only one marker")

	// ErrMarkersReversed indicates the end marker precedes the start marker.
	ErrMarkersReversed = errors.New("readme: end marker precedes start marker")

	// ErrDuplicateMarkers indicates a marker occurs more than once.
	ErrDuplicateMarkers = errors.New("readme: marker occurs more than once")

	// ErrInvalidMarkers indicates the configured markers cannot delimit a section.
	ErrInvalidMarkers = errors.New("readme: markers must be non-empty and distinct")
)

var sectionTemplate = template.Must(template.New("section").Parse(
	"\n\n## {{.Heading}}\n\n{{.Start}}\n{{.End}}\n",
))

// Updater replaces the section between the configured markers.
type Updater struct {
	start   string
	end     string
	heading string
	logger  *slog.Logger
}

// NewUpdater creates an Updater for the markers and heading in cfg.
func NewUpdater(cfg config.Config, logger *slog.Logger) (*Updater, error) {
	if cfg.StartMarker == "" || cfg.EndMarker == "" ||
		strings.Contains(cfg.StartMarker, cfg.EndMarker) || strings.Contains(cfg.EndMarker, cfg.StartMarker) {
		return nil, ErrInvalidMarkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		start:   cfg.StartMarker,
		end:     cfg.EndMarker,
		heading: cfg.Heading,
		logger:  logger,
	}, nil
}

// Apply returns text with the section body replaced by body. When neither
// marker is present a new section is appended first.
func (u *Updater) Apply(text, body string) (string, error) {
	if strings.Contains(body, u.start) || strings.Contains(body, u.end) {
		return "", ErrDuplicateMarkers
	}

	starts := strings.Count(text, u.start)
	ends := strings.Count(text, u.end)

	switch {
	case starts == 0 && ends == 0:
		section, err := u.section()
		if err != nil {
			return "", err
		}
		u.logger.Debug("markers not found, appending section", "heading", u.heading)
		text += section
	case starts == 0 || ends == 0:
		return "", ErrMarkerMissing
	case starts > 1 || ends > 1:
		return "", ErrDuplicateMarkers
	}

	i := strings.Index(text, u.start)
	j := strings.Index(text, u.end)
	if j < i+len(u.start) {
		return "", ErrMarkersReversed
	}

	var b strings.Builder
	b.Grow(len(text) + len(body))
	b.WriteString(text[:i])
	b.WriteString(u.start)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(u.end)
	b.WriteString(text[j+len(u.end):])
	return b.String(), nil
}

// Update rewrites the section in the file at path and reports whether the
// file changed. The file is written at most once.
func (u *Updater) Update(path, body string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	current, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	updated, err := u.Apply(string(current), body)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if updated == string(current) {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

func (u *Updater) section() (string, error) {
	buf := new(bytes.Buffer)
	err := sectionTemplate.Execute(buf, struct {
		Heading, Start, End string
	}{u.heading, u.start, u.end})
	if err != nil {
		return "", fmt.Errorf("render section: %w", err)
	}
	return buf.String(), nil
}
