package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/trackshare/internal/dbx"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/edges"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/tracks"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	MigrationVersion(context.Context, *sql.DB) (int64, error)
	Users(db dbx.DBTX) users.Repository
	Tracks(db dbx.DBTX) tracks.Repository
	Likes(db dbx.DBTX) edges.Repository
	Follows(db dbx.DBTX) edges.Repository
}
