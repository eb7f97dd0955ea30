package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"tabular/internal/storage"
	"tabular/internal/table"
)

// Repo implements storage.Repository for MySQL. Batch loading uses one
// multi-row INSERT per call.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mysql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
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
		return fmt.Errorf("mysql: create table %s: %w", spec.Name, err)
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, tbl string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	q, args := buildInsertSQL(tbl, columns, rows)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("mysql: insert into %s: %w", tbl, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func buildCreateSQL(spec storage.TableSpec) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", fmt.Errorf("mysql: table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("mysql: table %s has no columns", spec.Name)
	}

	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = fmt.Sprintf("%s %s", sqlIdent(c.Name), sqlType(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", sqlIdent(spec.Name), strings.Join(cols, ", ")), nil
}

// buildInsertSQL constructs one multi-row INSERT and its args. Pure for
// testability.
func buildInsertSQL(tbl string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(tbl))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
	}
	b.WriteString(") VALUES ")

	marks := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(marks)
		args = append(args, row...)
	}
	b.WriteString(";")
	return b.String(), args
}

func sqlType(c storage.ColumnSpec) string {
	switch c.Type {
	case table.Integer:
		switch c.Bits {
		case 8:
			return "TINYINT"
		case 16:
			return "SMALLINT"
		case 32:
			return "INT"
		default:
			return "BIGINT"
		}
	case table.Float:
		if c.Bits == 32 {
			return "FLOAT"
		}
		return "DOUBLE"
	case table.Date:
		return "DATE"
	default:
		return "TEXT"
	}
}

func sqlIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
