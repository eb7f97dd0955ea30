package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"

	"tabular/internal/storage"
	"tabular/internal/table"
)

// Repo implements storage.Repository for SQL Server. Bulk loading uses
// the driver's bulk copy statement, the TDS equivalent of Postgres
// COPY.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) EnsureTable(ctx context.Context, spec storage.TableSpec) error {
	q, err := buildCreateSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("mssql: create table %s: %w", spec.Name, err)
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, tbl string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, mssqldb.CopyIn(tbl, mssqldb.BulkOptions{}, columns...))
	if err != nil {
		return 0, fmt.Errorf("mssql: bulk prepare %s: %w", tbl, err)
	}

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("mssql: bulk row %s: %w", tbl, err)
		}
	}

	// The final Exec with no args flushes the bulk batch.
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("mssql: bulk flush %s: %w", tbl, err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("mssql: bulk close %s: %w", tbl, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit: %w", err)
	}

	n, _ := res.RowsAffected()
	return n, nil
}

func buildCreateSQL(spec storage.TableSpec) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", fmt.Errorf("mssql: table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("mssql: table %s has no columns", spec.Name)
	}

	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = fmt.Sprintf("%s %s", sqlIdent(c.Name), sqlType(c))
	}
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s);",
		spec.Name, sqlIdent(spec.Name), strings.Join(cols, ", ")), nil
}

// sqlType maps semantic types to T-SQL. SQL Server's TINYINT is
// unsigned, so Bits=8 widens to SMALLINT.
func sqlType(c storage.ColumnSpec) string {
	switch c.Type {
	case table.Integer:
		switch c.Bits {
		case 8, 16:
			return "SMALLINT"
		case 32:
			return "INT"
		default:
			return "BIGINT"
		}
	case table.Float:
		if c.Bits == 32 {
			return "REAL"
		}
		return "FLOAT"
	case table.Date:
		return "DATE"
	default:
		return "NVARCHAR(MAX)"
	}
}

func sqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
