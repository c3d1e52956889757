package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// Multi fetches several sources concurrently and concatenates their records
// in source order. Any member failure fails the whole fetch.
type Multi struct {
	sources []Source
}

// NewMulti combines sources.
func NewMulti(sources ...Source) *Multi {
	return &Multi{sources: sources}
}

// Name joins the member names.
func (m *Multi) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}

// Sources returns the members.
func (m *Multi) Sources() []Source {
	return m.sources
}

func (m *Multi) Fetch(ctx context.Context) ([]model.StatRecord, error) {
	results := make([][]model.StatRecord, len(m.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m.sources {
		g.Go(func() error {
			records, err := src.Fetch(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name(), err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, r := range results {
		n += len(r)
	}
	out := make([]model.StatRecord, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
