package repository

import (
	"fmt"

	"github.com/crudtcc/incident-api/internal/database"
)

// withContains appends an optional substring filter on column and the
// ordering shared by every list query.  column is always a constant.
func withContains(base, column, filter string) (string, []any) {
	if filter == "" {
		return base + " ORDER BY id", nil
	}
	q := base + " WHERE " + column + " LIKE ? " + database.LikeEscapeClause + " ORDER BY id"
	return q, []any{database.ContainsPattern(filter)}
}

// affectedErr folds the result of Executor.Affected into ErrNotFound or a
// wrapped driver error.
func affectedErr(op string, id int64, ok bool, err error) error {
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
