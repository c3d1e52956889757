package datasource

import (
	"context"
	"fmt"
	"os"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// FileSource reads a JSON export of the stats endpoint from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the JSON file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Path returns the file path, for watching.
func (s *FileSource) Path() string { return s.path }

// Fetch reads and decodes the whole file.
func (s *FileSource) Fetch(ctx context.Context) ([]model.StatRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading stats file: %w", err)
	}
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileSource) Close() error { return nil }
