package mssql

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
			{Name: "id", Type: table.Integer, Bits: 8},
			{Name: "qty", Type: table.Integer, Bits: 32},
			{Name: "total", Type: table.Integer, Bits: 64},
			{Name: "ratio", Type: table.Float, Bits: 32},
			{Name: "amount", Type: table.Float, Bits: 64},
			{Name: "day", Type: table.Date},
			{Name: "name", Type: table.Text},
		},
	}

	got, err := buildCreateSQL(spec)
	if err != nil {
		t.Fatalf("buildCreateSQL: %v", err)
	}
	want := "IF OBJECT_ID(N'invoices', N'U') IS NULL CREATE TABLE [invoices] (" +
		"[id] SMALLINT, [qty] INT, [total] BIGINT, " +
		"[ratio] REAL, [amount] FLOAT, [day] DATE, [name] NVARCHAR(MAX));"
	if got != want {
		t.Fatalf("ddl =\n%s\nwant\n%s", got, want)
	}
}

func TestSQLIdent(t *testing.T) {
	t.Parallel()

	if got := sqlIdent("we]ird"); got != "[we]]ird]" {
		t.Fatalf("sqlIdent = %s", got)
	}
}
