package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/applications"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/inmemory"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/progress"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/reviewevents"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one inmemory.Store.
// The db handle is ignored; pair it with dbx.NoTx.
type MemoryRepositoryManager struct {
	store *inmemory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: inmemory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.store.Users() }

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.store.RefreshTokens()
}

func (m *MemoryRepositoryManager) Applications(dbx.DBTX) applications.Repository {
	return m.store.Applications()
}

func (m *MemoryRepositoryManager) ReviewEvents(dbx.DBTX) reviewevents.Repository {
	return m.store.ReviewEvents()
}

func (m *MemoryRepositoryManager) Progress(dbx.DBTX) progress.Repository { return m.store.Progress() }
