package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tabular/internal/storage"
	"tabular/internal/table"
)

// Repo implements storage.Repository for SQLite.
//
// SQLite has no DATE type; date values are stored as "2006-01-02"
// strings with TEXT affinity, which round-trips reliably and stays
// readable in ad-hoc queries.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
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
		return fmt.Errorf("sqlite: create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows inserts all rows inside one transaction with a prepared
// statement, which is the fast path for SQLite batch loads.
func (r *Repo) InsertRows(ctx context.Context, tbl string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, buildInsertSQL(tbl, columns))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert %s: %w", tbl, err)
	}
	defer stmt.Close()

	var total int64
	for _, row := range rows {
		args := make([]any, len(row))
		for i, v := range row {
			if d, ok := v.(time.Time); ok {
				args[i] = storage.FormatDate(d)
				continue
			}
			args[i] = v
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return total, fmt.Errorf("sqlite: insert into %s: %w", tbl, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}

	if err := tx.Commit(); err != nil {
		return total, fmt.Errorf("sqlite: commit: %w", err)
	}
	return total, nil
}

func buildCreateSQL(spec storage.TableSpec) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", fmt.Errorf("sqlite: table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("sqlite: table %s has no columns", spec.Name)
	}

	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = fmt.Sprintf("%s %s", sqlIdent(c.Name), sqlType(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", sqlIdent(spec.Name), strings.Join(cols, ", ")), nil
}

func buildInsertSQL(tbl string, columns []string) string {
	idents := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		idents[i] = sqlIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		sqlIdent(tbl), strings.Join(idents, ", "), strings.Join(marks, ", "))
}

// sqlType maps to SQLite's affinity types. Width metadata is irrelevant
// here; INTEGER and REAL are the only numeric affinities.
func sqlType(c storage.ColumnSpec) string {
	switch c.Type {
	case table.Integer:
		return "INTEGER"
	case table.Float:
		return "REAL"
	default:
		// Dates, text, and categoricals all store as TEXT.
		return "TEXT"
	}
}

func sqlIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
