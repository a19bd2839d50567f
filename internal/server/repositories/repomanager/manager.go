// Package repomanager hands out repositories bound to a *sql.DB or an
// open transaction, and runs the schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notesync/internal/dbx"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	// Records returns the repository of a collection from models.Collections.
	Records(db dbx.DBTX, collection string) records.Repository
}
