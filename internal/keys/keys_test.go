package keys

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"tabular/internal/table"
)

func mustTable(t *testing.T, cols []table.Column) *table.Table {
	t.Helper()
	tab, err := table.New(cols)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tab
}

func testParams() Params {
	p := DefaultParams()
	p.SampleSize = 4
	p.rng = rand.New(rand.NewSource(1))
	return p
}

func TestFindRanked_SingleColumnShortCircuit(t *testing.T) {
	t.Parallel()

	tab := mustTable(t, []table.Column{
		{Name: "product_id", Type: table.Integer, Values: []any{int64(1), int64(2), int64(3), int64(4), int64(5)}},
		{Name: "product_name", Type: table.Text, Values: []any{"a", "a", "b", "b", "b"}},
		{Name: "region", Type: table.Categorical, Values: []any{"n", "n", "s", "s", "n"}},
	})

	got, err := FindRanked(tab, testParams())
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want exactly 1", len(got))
	}
	if !reflect.DeepEqual(got[0].Columns, []string{"product_id"}) {
		t.Fatalf("candidate = %v, want [product_id]", got[0].Columns)
	}
}

func TestFindRanked_PrefersBestScoredSingleColumn(t *testing.T) {
	t.Parallel()

	// Both columns are unique. The id-bearing short name must win.
	tab := mustTable(t, []table.Column{
		{Name: "a_very_long_descriptive_label", Type: table.Text, Values: []any{"w", "x", "y", "z"}},
		{Name: "inv_id", Type: table.Integer, Values: []any{int64(1), int64(2), int64(3), int64(4)}},
	})

	got, err := FindRanked(tab, testParams())
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	if len(got) != 1 || got[0].Columns[0] != "inv_id" {
		t.Fatalf("got %v, want single candidate inv_id", got)
	}
}

func TestFindRanked_MultiColumn(t *testing.T) {
	t.Parallel()

	// No column is unique alone; (store, day) is.
	tab := mustTable(t, []table.Column{
		{Name: "store", Type: table.Text, Values: []any{"a", "a", "b", "b"}},
		{Name: "day", Type: table.Text, Values: []any{"mon", "tue", "mon", "tue"}},
		{Name: "qty", Type: table.Integer, Values: []any{int64(1), int64(1), int64(1), int64(1)}},
	})

	got, err := FindRanked(tab, testParams())
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no candidates found")
	}
	if !reflect.DeepEqual(got[0].Columns, []string{"store", "day"}) {
		t.Fatalf("best candidate = %v, want [store day]", got[0].Columns)
	}
	for _, c := range got {
		n, err := tab.DistinctRows(c.Columns, nil)
		if err != nil {
			t.Fatalf("DistinctRows: %v", err)
		}
		if n != tab.NumRows() {
			t.Errorf("candidate %v is not unique over the full table", c.Columns)
		}
	}
}

func TestFindRanked_SampleFalsePositiveRejected(t *testing.T) {
	t.Parallel()

	// The first four rows of code are distinct, so a sample of four can
	// screen it in, but the full table has a duplicate. Only the
	// (code, seq) pair survives confirmation.
	tab := mustTable(t, []table.Column{
		{Name: "code", Type: table.Text, Values: []any{"a", "b", "c", "d", "a"}},
		{Name: "seq", Type: table.Integer, Values: []any{int64(1), int64(1), int64(1), int64(1), int64(2)}},
	})

	got, err := FindRanked(tab, testParams())
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0].Columns, []string{"code", "seq"}) {
		t.Fatalf("got %v, want [[code seq]]", got)
	}
}

func TestFindRanked_FractionalFloatsExcluded(t *testing.T) {
	t.Parallel()

	tab := mustTable(t, []table.Column{
		{Name: "noise", Type: table.Float, Values: []any{1.1, 2.2, 3.3, 4.4}},
		{Name: "grp", Type: table.Text, Values: []any{"a", "a", "b", "b"}},
	})

	got, err := FindRanked(tab, testParams())
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	for _, c := range got {
		for _, name := range c.Columns {
			if name == "noise" {
				t.Fatalf("fractional float column used in candidate %v", c.Columns)
			}
		}
	}
}

func TestFindRanked_IntegralFloatsEligible(t *testing.T) {
	t.Parallel()

	tab := mustTable(t, []table.Column{
		{Name: "acct_number", Type: table.Float, Values: []any{1.0, 2.0, 3.0, 4.0}},
		{Name: "grp", Type: table.Text, Values: []any{"a", "a", "b", "b"}},
	})

	got, err := FindRanked(tab, testParams())
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	if len(got) != 1 || got[0].Columns[0] != "acct_number" {
		t.Fatalf("got %v, want single candidate acct_number", got)
	}
}

func TestFindRanked_NoEligibleColumns(t *testing.T) {
	t.Parallel()

	tab := mustTable(t, []table.Column{
		{Name: "price", Type: table.Float, Values: []any{1.5, 2.5, 3.5}},
	})

	got, err := FindRanked(tab, testParams())
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want no candidates", got)
	}
}

func TestFindRanked_ParamValidation(t *testing.T) {
	t.Parallel()

	tab := mustTable(t, []table.Column{
		{Name: "id", Type: table.Integer, Values: []any{int64(1)}},
	})

	for _, tc := range []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero candidates", func(p *Params) { p.NCandidates = 0 }},
		{"negative key size", func(p *Params) { p.MaxKeySize = -1 }},
		{"zero sample", func(p *Params) { p.SampleSize = 0 }},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := testParams()
			tc.mutate(&p)
			if _, err := FindRanked(tab, p); err == nil {
				t.Fatal("expected a parameter error")
			}
		})
	}
}

func TestFindRanked_CandidateCap(t *testing.T) {
	t.Parallel()

	// Four pairwise-unique columns give six valid pairs.
	tab := mustTable(t, []table.Column{
		{Name: "a", Type: table.Text, Values: []any{"1", "1", "2", "2"}},
		{Name: "b", Type: table.Text, Values: []any{"1", "2", "1", "2"}},
		{Name: "c", Type: table.Text, Values: []any{"x", "y", "y", "x"}},
		{Name: "d", Type: table.Text, Values: []any{"p", "q", "q", "p"}},
	})

	p := testParams()
	p.NCandidates = 2
	got, err := FindRanked(tab, p)
	if err != nil {
		t.Fatalf("FindRanked: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cols []string
		want int
	}{
		{[]string{"id"}, 10 + 18},
		{[]string{"invoice_number"}, 10 + 6},
		{[]string{"region"}, 14},
		{[]string{"a_name_much_longer_than_twenty_chars"}, 0},
		{[]string{"id", "code"}, 10 + 18 + 10 + 16},
	}
	for _, tc := range tests {
		if got := score(tc.cols, DefaultPatterns); got != tc.want {
			t.Errorf("score(%v) = %d, want %d", tc.cols, got, tc.want)
		}
	}
}

func TestFindRanked_Parallel(t *testing.T) {
	t.Parallel()

	cols := []table.Column{
		{Name: "a", Type: table.Text, Values: []any{"1", "1", "2", "2"}},
		{Name: "b", Type: table.Text, Values: []any{"1", "2", "1", "2"}},
		{Name: "c", Type: table.Text, Values: []any{"x", "y", "y", "x"}},
	}
	tab := mustTable(t, cols)

	seq := testParams()
	par := testParams()
	par.Workers = 4

	want, err := FindRanked(tab, seq)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	got, err := FindRanked(tab, par)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parallel result differs:\ngot  %v\nwant %v", got, want)
	}
}

func TestCombinations(t *testing.T) {
	t.Parallel()

	var got []string
	for combo := range combinations(4, 2) {
		parts := make([]string, len(combo))
		for i, v := range combo {
			parts[i] = string(rune('0' + v))
		}
		got = append(got, strings.Join(parts, ""))
	}
	want := []string{"01", "02", "03", "12", "13", "23"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("combinations = %v, want %v", got, want)
	}
}
