package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tabular/internal/storage"
	"tabular/internal/table"
)

// Repo implements storage.Repository for Postgres. Bulk loading uses
// the COPY protocol, which is the fast path pgx offers for batch
// inserts.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed Repo.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureTable creates the target table if it does not exist.
func (r *Repo) EnsureTable(ctx context.Context, spec storage.TableSpec) error {
	sql, err := buildCreateSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows bulk-loads rows with COPY.
func (r *Repo) InsertRows(ctx context.Context, tbl string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{tbl}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", tbl, err)
	}
	return n, nil
}

// buildCreateSQL generates the CREATE TABLE statement. It is pure so
// the DDL mapping can be unit tested without a database.
func buildCreateSQL(spec storage.TableSpec) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", fmt.Errorf("postgres: table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("postgres: table %s has no columns", spec.Name)
	}

	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = fmt.Sprintf("%s %s", pgIdent(c.Name), sqlType(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", pgIdent(spec.Name), strings.Join(cols, ", ")), nil
}

// sqlType maps a semantic type plus width metadata to the narrowest
// Postgres type that holds it. Postgres has no 8-bit integer, so Bits=8
// widens to SMALLINT.
func sqlType(c storage.ColumnSpec) string {
	switch c.Type {
	case table.Integer:
		switch c.Bits {
		case 8, 16:
			return "SMALLINT"
		case 32:
			return "INTEGER"
		default:
			return "BIGINT"
		}
	case table.Float:
		if c.Bits == 32 {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	case table.Date:
		return "DATE"
	default:
		return "TEXT"
	}
}

func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
