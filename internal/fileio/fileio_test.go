package fileio

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"tabular/internal/table"
)

func TestSniffFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want string
	}{
		{"json array", `[{"a":1}]`, "json"},
		{"json object", `{"a":1}`, "json"},
		{"html", `<html><table></table></html>`, "html"},
		{"csv", "a,b\n1,2\n", "csv"},
		{"parquet magic", "PAR1xxxx", "parquet"},
		{"empty", "", "csv"},
		{"leading whitespace json", "  \n\t[1]", "json"},
	}
	for _, tc := range tests {
		if got := sniffFormat([]byte(tc.data)); got != tc.want {
			t.Errorf("%s: sniffFormat = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	t.Parallel()

	got := uniqueNames([]string{"id", "name", "id", "", "", "id"})
	want := []string{"id", "name", "id_2", "column", "column_2", "id_3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestStem(t *testing.T) {
	t.Parallel()

	if got := Stem("/data/sources/invoices.csv"); got != "invoices" {
		t.Fatalf("Stem = %q", got)
	}
	if got := Stem("plain"); got != "plain" {
		t.Fatalf("Stem = %q", got)
	}
}

func TestListReadable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.json", "skip.txt", "c.parquet", "d.xlsx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := ListReadable(dir)
	if err != nil {
		t.Fatalf("ListReadable: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "c.parquet"),
		filepath.Join(dir, "d.xlsx"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	data := []byte("id,name,amount\n1, Bob ,10\n2,,20\nbroken row\n3,Eve,30\n")
	got, err := readCSVBytes("test.csv", data)
	if err != nil {
		t.Fatalf("readCSVBytes: %v", err)
	}

	if !reflect.DeepEqual(got.Names(), []string{"id", "name", "amount"}) {
		t.Fatalf("names = %v", got.Names())
	}
	// The misaligned row is skipped, empty cells are null, and outer
	// whitespace is trimmed at read time.
	if got.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", got.NumRows())
	}
	name, _ := got.Col("name")
	if !reflect.DeepEqual(name.Values, []any{"Bob", nil, "Eve"}) {
		t.Fatalf("name values = %v", name.Values)
	}
	for _, c := range got.Cols {
		if c.Type != table.Text {
			t.Errorf("column %s type = %v, want Text", c.Name, c.Type)
		}
	}
}

func TestReadCSV_Empty(t *testing.T) {
	t.Parallel()

	got, err := readCSVBytes("empty.csv", []byte("  \n"))
	if err != nil {
		t.Fatalf("readCSVBytes: %v", err)
	}
	if got.NumCols() != 0 {
		t.Fatalf("cols = %d, want 0", got.NumCols())
	}
}

func TestReadJSON_Array(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"id": 1, "name": "Bob", "addr": {"city": "Oslo"}},
		{"id": 2, "name": null, "extra": true}
	]`)
	got, err := readJSONBytes("test.json", data)
	if err != nil {
		t.Fatalf("readJSONBytes: %v", err)
	}

	want := []string{"addr.city", "extra", "id", "name"}
	if !reflect.DeepEqual(got.Names(), want) {
		t.Fatalf("names = %v, want %v", got.Names(), want)
	}

	id, _ := got.Col("id")
	if !reflect.DeepEqual(id.Values, []any{"1", "2"}) {
		t.Fatalf("id values = %v", id.Values)
	}
	name, _ := got.Col("name")
	if !reflect.DeepEqual(name.Values, []any{"Bob", nil}) {
		t.Fatalf("name values = %v", name.Values)
	}
	extra, _ := got.Col("extra")
	if !reflect.DeepEqual(extra.Values, []any{nil, "true"}) {
		t.Fatalf("extra values = %v", extra.Values)
	}
}

func TestReadJSON_Envelope(t *testing.T) {
	t.Parallel()

	data := []byte(`{"count": 2, "items": [{"a": "x"}, {"a": "y"}]}`)
	got, err := readJSONBytes("test.json", data)
	if err != nil {
		t.Fatalf("readJSONBytes: %v", err)
	}
	a, ok := got.Col("a")
	if !ok {
		t.Fatalf("missing column a, names = %v", got.Names())
	}
	if !reflect.DeepEqual(a.Values, []any{"x", "y"}) {
		t.Fatalf("a values = %v", a.Values)
	}
}

func TestReadJSON_NDJSON(t *testing.T) {
	t.Parallel()

	data := []byte("{\"a\": \"1\"}\n{\"a\": \"2\"}\n{\"a\": \"3\"}\n")
	got, err := readJSONBytes("test.json", data)
	if err != nil {
		t.Fatalf("readJSONBytes: %v", err)
	}
	if got.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", got.NumRows())
	}
}

func TestReadJSON_ScalarRoot(t *testing.T) {
	t.Parallel()

	if _, err := readJSONBytes("test.json", []byte(`42`)); err == nil {
		t.Fatal("expected error for scalar root")
	}
}

func TestReadHTML(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<table>
		<tr><th>Invoice No</th><th>Total</th></tr>
		<tr><td>100</td><td>9.99</td></tr>
		<tr><td>101</td><td></td></tr>
		<tr><td>oddball</td></tr>
	</table>
	<table><tr><th>ignored</th></tr></table>
	</body></html>`

	got, err := readHTMLBytes("test.html", []byte(html))
	if err != nil {
		t.Fatalf("readHTMLBytes: %v", err)
	}
	if !reflect.DeepEqual(got.Names(), []string{"Invoice No", "Total"}) {
		t.Fatalf("names = %v", got.Names())
	}
	total, _ := got.Col("Total")
	if !reflect.DeepEqual(total.Values, []any{"9.99", nil}) {
		t.Fatalf("total values = %v", total.Values)
	}
}

func TestReadHTML_NoTable(t *testing.T) {
	t.Parallel()

	if _, err := readHTMLBytes("test.html", []byte("<html><p>hi</p></html>")); err == nil {
		t.Fatal("expected error when no table element exists")
	}
}

func TestExcelRoundTrip(t *testing.T) {
	t.Parallel()

	in, err := table.New([]table.Column{
		{Name: "id", Type: table.Integer, Bits: 64, Values: []any{int64(1), int64(2)}},
		{Name: "name", Type: table.Text, Values: []any{"Bob", nil}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteExcel(in, path); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}

	got, err := ReadExcel(path)
	if err != nil {
		t.Fatalf("ReadExcel: %v", err)
	}
	if !reflect.DeepEqual(got.Names(), []string{"id", "name"}) {
		t.Fatalf("names = %v", got.Names())
	}
	if got.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", got.NumRows())
	}
	name, _ := got.Col("name")
	if !reflect.DeepEqual(name.Values, []any{"Bob", nil}) {
		t.Fatalf("name values = %v", name.Values)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	t.Parallel()

	in, err := table.New([]table.Column{
		{Name: "id", Type: table.Integer, Bits: 16, Values: []any{int64(1), int64(2), nil}},
		{Name: "price", Type: table.Float, Bits: 64, Values: []any{1.5, nil, 3.25}},
		{Name: "day", Type: table.Date, Values: []any{date(2024, 1, 2), date(2024, 2, 3), nil}},
		{Name: "region", Type: table.Categorical, Values: []any{"n", "s", "n"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.parquet")
	if err := WriteParquet(in, path); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	got, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet: %v", err)
	}

	id, _ := got.Col("id")
	if id.Type != table.Integer || id.Bits != 16 {
		t.Errorf("id = %v/%d, want Integer/16", id.Type, id.Bits)
	}
	if !reflect.DeepEqual(id.Values, []any{int64(1), int64(2), nil}) {
		t.Errorf("id values = %v", id.Values)
	}

	price, _ := got.Col("price")
	if price.Type != table.Float {
		t.Errorf("price type = %v, want Float", price.Type)
	}
	if !reflect.DeepEqual(price.Values, []any{1.5, nil, 3.25}) {
		t.Errorf("price values = %v", price.Values)
	}

	day, _ := got.Col("day")
	if day.Type != table.Date {
		t.Errorf("day type = %v, want Date", day.Type)
	}
	if d0, ok := day.Values[0].(time.Time); !ok || !d0.Equal(date(2024, 1, 2)) {
		t.Errorf("day[0] = %v, want %v", day.Values[0], date(2024, 1, 2))
	}
	if day.Values[2] != nil {
		t.Errorf("day[2] = %v, want nil", day.Values[2])
	}

	// Categorical is stored as string and comes back Text.
	region, _ := got.Col("region")
	if region.Type != table.Text {
		t.Errorf("region type = %v, want Text", region.Type)
	}
	if !reflect.DeepEqual(region.Values, []any{"n", "s", "n"}) {
		t.Errorf("region values = %v", region.Values)
	}
}

func TestReadDispatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// A JSON body behind an unknown extension exercises the sniffer.
	path := filepath.Join(dir, "data.dump")
	if err := os.WriteFile(path, []byte(`[{"a":"1"},{"a":"2"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", got.NumRows())
	}

	if _, err := Read(filepath.Join(dir, "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
