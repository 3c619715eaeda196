package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// InsertIgnore inserts a single row, skipping silently when the conflict
// key already exists. Returns true when a row was actually inserted. This
// is the primitive behind the store's insert-or-skip asset semantics.
func InsertIgnore(ctx context.Context, pool Pool, table string, columns, conflictCols []string, values []any) (bool, error) {
	if len(columns) == 0 || len(columns) != len(values) {
		return false, eris.Errorf("db: insert into %s: %d columns for %d values", table, len(columns), len(values))
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		pgx.Identifier{table}.Sanitize(),
		quoteAndJoin(columns),
		strings.Join(placeholders, ", "),
		quoteAndJoin(conflictCols),
	)

	tag, err := pool.Exec(ctx, sql, values...)
	if err != nil {
		return false, eris.Wrapf(err, "db: insert into %s", table)
	}
	return tag.RowsAffected() > 0, nil
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
