package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Execer runs one SQL script. *postgres.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Script is one migration file ready to apply.
type Script struct {
	Name string
	SQL  string
}

// LoadScripts returns the non-empty .sql files under dir in lexical order.
func LoadScripts(fsys fs.FS, dir string) ([]Script, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	scripts := make([]Script, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		scripts = append(scripts, Script{Name: name, SQL: sql})
	}
	return scripts, nil
}

// RunPostgresMigrations applies the embedded session schema.
// Every script uses IF NOT EXISTS, so reruns on startup are safe.
func RunPostgresMigrations(ctx context.Context, db Execer, logger *zap.Logger) error {
	scripts, err := LoadScripts(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	return Apply(ctx, db, scripts, logger)
}

// Apply executes scripts in order and stops at the first failure.
func Apply(ctx context.Context, db Execer, scripts []Script, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, script := range scripts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := db.Exec(ctx, script.SQL); err != nil {
			logger.Error("migration failed", zap.String("file", script.Name), zap.Error(err))
			return fmt.Errorf("apply migration %s: %w", script.Name, err)
		}
		logger.Info("migration applied", zap.String("file", script.Name))
	}
	logger.Debug("migrations complete", zap.Int("count", len(scripts)))
	return nil
}
