package edges

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/dbx"
)

type PostgresRepository struct {
	db          dbx.DBTX
	insertQuery string
	deleteQuery string
}

func NewPostgresRepository(db dbx.DBTX, t Table) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		insertQuery: fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`,
			t.Name, t.SourceColumn, t.TargetColumn),
		deleteQuery: fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
			t.Name, t.SourceColumn, t.TargetColumn),
	}
}

func (r *PostgresRepository) Create(ctx context.Context, sourceID, targetID string) error {
	_, err := r.db.ExecContext(ctx, r.insertQuery, sourceID, targetID)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return common.ErrorAlreadyExists
		case dbx.IsForeignKeyViolation(err):
			return common.ErrReferenceMissing
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, sourceID, targetID string) error {
	res, err := r.db.ExecContext(ctx, r.deleteQuery, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
