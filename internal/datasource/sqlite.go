package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/teamboard/pkg/model"
)

// SQLiteSource reads records from a user_stats table:
//
//	user_stats(id, name, avatar_url, completed, in_progress, overdue)
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// OpenSQLiteSource opens the database at path read-only.
func OpenSQLiteSource(path string) (*SQLiteSource, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set pragmas for read performance
	pragmas := []string{
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		// Non-fatal; the defaults still work.
		_, _ = db.Exec(pragma)
	}

	return &SQLiteSource{db: db, path: path}, nil
}

// Name returns the database path.
func (s *SQLiteSource) Name() string { return s.path }

// Fetch reads every row of user_stats in rowid order.
func (s *SQLiteSource) Fetch(ctx context.Context) ([]model.StatRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, avatar_url, completed, in_progress, overdue
		FROM user_stats
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying user_stats: %w", err)
	}
	defer rows.Close()

	var records []model.StatRecord
	for rows.Next() {
		var (
			r      model.StatRecord
			name   sql.NullString
			avatar sql.NullString
		)
		if err := rows.Scan(&r.ID, &name, &avatar, &r.CompletedCount, &r.InProgressCount, &r.OverdueCount); err != nil {
			return nil, fmt.Errorf("scanning user_stats: %w", err)
		}
		r.Name = name.String
		r.AvatarURL = avatar.String
		r = r.Normalize()
		if r.ID == "" {
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user_stats: %w", err)
	}
	return records, nil
}

// Close closes the database connection
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
