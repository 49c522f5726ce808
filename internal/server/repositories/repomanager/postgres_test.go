package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/applications"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/progress"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/reviewevents"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var m RepositoryManager = NewPostgresRepositoryManager()

	if _, ok := m.Users(db).(*users.PostgresRepository); !ok {
		t.Fatal("Users() is not the postgres repository")
	}
	if _, ok := m.RefreshTokens(db).(*refreshtokens.PostgresRepository); !ok {
		t.Fatal("RefreshTokens() is not the postgres repository")
	}
	if _, ok := m.Applications(db).(*applications.PostgresRepository); !ok {
		t.Fatal("Applications() is not the postgres repository")
	}
	if _, ok := m.ReviewEvents(db).(*reviewevents.PostgresRepository); !ok {
		t.Fatal("ReviewEvents() is not the postgres repository")
	}
	if _, ok := m.Progress(db).(*progress.PostgresRepository); !ok {
		t.Fatal("Progress() is not the postgres repository")
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestMemoryManager_SharesOneStore(t *testing.T) {
	var m RepositoryManager = NewMemoryRepositoryManager()
	ctx := context.Background()

	if err := m.RunMigrations(ctx, nil); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}

	u, err := m.Users(nil).Create(ctx, &models.User{Email: "x@y.z"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	got, err := m.Users(nil).GetByID(ctx, u.ID)
	if err != nil || got.Email != "x@y.z" {
		t.Fatalf("user not visible through second handle: %+v, %v", got, err)
	}
}
