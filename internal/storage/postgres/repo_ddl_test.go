package postgres

import (
	"testing"

	"tabular/internal/storage"
	"tabular/internal/table"
)

func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	spec := storage.TableSpec{
		Name: "invoices",
		Columns: []storage.ColumnSpec{
			{Name: "id", Type: table.Integer, Bits: 16},
			{Name: "big", Type: table.Integer, Bits: 64},
			{Name: "count32", Type: table.Integer, Bits: 32},
			{Name: "ratio", Type: table.Float, Bits: 32},
			{Name: "amount", Type: table.Float, Bits: 64},
			{Name: "day", Type: table.Date},
			{Name: "name", Type: table.Text},
			{Name: "region", Type: table.Categorical},
		},
	}

	got, err := buildCreateSQL(spec)
	if err != nil {
		t.Fatalf("buildCreateSQL: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "invoices" (` +
		`"id" SMALLINT, "big" BIGINT, "count32" INTEGER, ` +
		`"ratio" REAL, "amount" DOUBLE PRECISION, ` +
		`"day" DATE, "name" TEXT, "region" TEXT);`
	if got != want {
		t.Fatalf("ddl =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildCreateSQL_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := buildCreateSQL(storage.TableSpec{Name: " "}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := buildCreateSQL(storage.TableSpec{Name: "x"}); err == nil {
		t.Fatal("expected error for no columns")
	}
}

func TestPgIdent(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("pgIdent = %s", got)
	}
}
