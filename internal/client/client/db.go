package client

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophsend/internal/client/migrations"
	"github.com/dmitrijs2005/gophsend/internal/client/repositories/files"
	"github.com/dmitrijs2005/gophsend/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsend/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories groups the stores backed by the local database.
type Repositories struct {
	DB       *sql.DB
	Metadata *metadata.SQLiteRepository
	Files    *files.SQLiteRepository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// gooseLogger routes goose output to the application logger instead of
// the standard log package.
type gooseLogger struct {
	l logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf only logs; goose returns the error to the caller as well.
func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// RunMigrations applies the embedded migrations. A nil logger discards
// goose's output.
func RunMigrations(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}
	goose.SetLogger(gooseLogger{l: logger})
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite database at dsn and
// brings its schema up to date.
func InitDatabase(ctx context.Context, dsn string, logger logging.Logger) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps :memory: databases and writers consistent
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Files:    files.NewSQLiteRepository(db),
	}, nil
}
