package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/applications"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/progress"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/reviewevents"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle. Services pass
// either the pooled handle or a transaction from dbx.Transactor.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Applications(db dbx.DBTX) applications.Repository
	ReviewEvents(db dbx.DBTX) reviewevents.Repository
	Progress(db dbx.DBTX) progress.Repository
}
