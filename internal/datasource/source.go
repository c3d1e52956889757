// Package datasource fetches per-user statistics from the places a team keeps
// them: the stats HTTP endpoint, an exported JSON file, or a SQLite database.
// Several locations can be combined into one source, and a Refresher moves
// fetched records into a store.Store.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// Source yields a complete record collection per call.
type Source interface {
	// Name identifies the source in logs and snapshot metadata.
	Name() string
	// Fetch returns every record the source currently holds.
	Fetch(ctx context.Context) ([]model.StatRecord, error)
	Close() error
}

// Kind identifies how a location is read.
type Kind string

const (
	KindHTTP   Kind = "http"
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
)

// ErrUnknownSource is returned when a location matches no source kind.
var ErrUnknownSource = errors.New("unrecognized source location")

// Options configures sources created by Open.
type Options struct {
	// Username and Password are passed through as HTTP Basic auth.
	Username string
	Password string
	// Timeout bounds a single HTTP request (default 15s).
	Timeout time.Duration
	// HTTPClient overrides the client used by HTTP sources.
	HTTPClient *http.Client
}

// DetectKind classifies a single location by scheme or file extension.
func DetectKind(location string) (Kind, error) {
	loc := strings.TrimSpace(location)
	lower := strings.ToLower(loc)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindHTTP, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return KindSQLite, nil
	}
	switch strings.ToLower(filepath.Ext(loc)) {
	case ".json":
		return KindFile, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, location)
}

// Open creates a source for location. A comma-separated list yields a Multi
// source that fetches every member concurrently.
func Open(location string, opts Options) (Source, error) {
	var parts []string
	for _, p := range strings.Split(location, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty location", ErrUnknownSource)
	}
	if len(parts) == 1 {
		return openOne(parts[0], opts)
	}

	sources := make([]Source, 0, len(parts))
	for _, p := range parts {
		src, err := openOne(p, opts)
		if err != nil {
			for _, s := range sources {
				s.Close()
			}
			return nil, err
		}
		sources = append(sources, src)
	}
	return NewMulti(sources...), nil
}

func openOne(location string, opts Options) (Source, error) {
	kind, err := DetectKind(location)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindHTTP:
		return NewHTTPSource(location, opts), nil
	case KindFile:
		return NewFileSource(location), nil
	case KindSQLite:
		return OpenSQLiteSource(strings.TrimPrefix(location, "sqlite://"))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, location)
}
