package table

import (
	"testing"
	"time"
)

func TestNew_RejectsMismatchedLengths(t *testing.T) {
	t.Parallel()

	_, err := New([]Column{
		{Name: "a", Type: Text, Values: []any{"x", "y"}},
		{Name: "b", Type: Text, Values: []any{"z"}},
	})
	if err == nil {
		t.Fatalf("expected error for mismatched column lengths")
	}
}

func TestNew_RejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	_, err := New([]Column{
		{Name: "a", Type: Text, Values: []any{"x"}},
		{Name: "a", Type: Text, Values: []any{"y"}},
	})
	if err == nil {
		t.Fatalf("expected error for duplicate column names")
	}
}

func TestNumRows_EmptyTable(t *testing.T) {
	t.Parallel()

	tbl := &Table{}
	if got := tbl.NumRows(); got != 0 {
		t.Fatalf("NumRows() = %d, want 0", got)
	}
	if got := tbl.NumCols(); got != 0 {
		t.Fatalf("NumCols() = %d, want 0", got)
	}
}

func TestDistinctRows_NullsAreDistinctFromEmptyString(t *testing.T) {
	t.Parallel()

	tbl, err := New([]Column{{Name: "v", Type: Text, Values: []any{nil, "", "a"}}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := tbl.DistinctRows([]string{"v"}, nil)
	if err != nil {
		t.Fatalf("DistinctRows: %v", err)
	}
	if got != 3 {
		t.Fatalf("DistinctRows = %d, want 3", got)
	}
}

func TestDistinctRows_MultiColumnAndSubset(t *testing.T) {
	t.Parallel()

	tbl, err := New([]Column{
		{Name: "a", Type: Integer, Values: []any{int64(1), int64(1), int64(2)}},
		{Name: "b", Type: Text, Values: []any{"x", "x", "y"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	full, err := tbl.DistinctRows([]string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("DistinctRows: %v", err)
	}
	if full != 2 {
		t.Fatalf("full DistinctRows = %d, want 2", full)
	}

	subset, err := tbl.DistinctRows([]string{"a", "b"}, []int{0, 2})
	if err != nil {
		t.Fatalf("DistinctRows subset: %v", err)
	}
	if subset != 2 {
		t.Fatalf("subset DistinctRows = %d, want 2", subset)
	}
}

func TestDistinctRows_UnknownColumn(t *testing.T) {
	t.Parallel()

	tbl, _ := New([]Column{{Name: "a", Type: Text, Values: []any{"x"}}})
	if _, err := tbl.DistinctRows([]string{"missing"}, nil); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "hello"},
		{"int64", int64(-42), "-42"},
		{"float64", 1234.56, "1234.56"},
		{"whole float", 2000.0, "2000"},
		{"date", d, "2024-03-01"},
		{"null marker", nil, "\x00"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Canonical(tt.in); got != tt.want {
				t.Fatalf("Canonical(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProject_PreservesOrder(t *testing.T) {
	t.Parallel()

	tbl, _ := New([]Column{
		{Name: "a", Type: Text, Values: []any{"1"}},
		{Name: "b", Type: Text, Values: []any{"2"}},
		{Name: "c", Type: Text, Values: []any{"3"}},
	})

	p, err := tbl.Project([]string{"c", "a"})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if p.NumCols() != 2 || p.Cols[0].Name != "c" || p.Cols[1].Name != "a" {
		t.Fatalf("Project returned wrong columns: %v", p.Names())
	}
}
