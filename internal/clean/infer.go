package clean

import (
	"math"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"tabular/internal/table"
)

// Options tunes the inference heuristics.
type Options struct {
	// CategoricalMaxRatio is the distinct/rows threshold below which a
	// Text column is compacted to Categorical. The default 0.5 follows
	// the ratio-based policy; set to 0 to disable compaction.
	CategoricalMaxRatio float64

	// Workers bounds the per-column worker pool. Zero means GOMAXPROCS.
	// Columns are independent within a run, so parallel evaluation is
	// safe as long as all workers observe the same pre-pass snapshot.
	Workers int
}

// DefaultOptions returns the tuning used by NormalizeAndInfer.
func DefaultOptions() Options {
	return Options{CategoricalMaxRatio: 0.5}
}

// dateLayout is the single strict pattern accepted by the date pass.
const dateLayout = "2006-01-02"

var (
	// plainNumber accepts base-10 numbers with an optional sign and an
	// optional decimal point. Deliberately narrower than ParseFloat,
	// which would also admit exponents, hex, and Inf/NaN.
	plainNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

	// parenNegative matches accounting-style negatives: "(1,234.56)".
	parenNegative = regexp.MustCompile(`^\s*\(([0-9,.]+)\)\s*$`)
)

// currencyChars are stripped (together with commas and whitespace)
// before the currency passes attempt numeric conversion.
const currencyChars = "$¢£¥€₹₽¤"

func stripCurrency(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || strings.ContainsRune(currencyChars, r) {
			return -1
		}
		return r
	}, s)
}

// parsePlain parses a plain base-10 number (optional sign, optional
// decimal point). All numeric passes share this definition, so the
// wider ParseFloat grammar (exponents, hex, Inf/NaN) never leaks in.
func parsePlain(s string) (float64, bool) {
	if !plainNumber.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// InferTypes re-derives a better semantic type per column by running the
// heuristic passes in a fixed order:
//
//  1. plain numeric          Text -> Float
//  2. parenthesized negative Text -> Float (accounting negatives)
//  3. currency-symbol strip  Text -> Float
//  4. whole-float collapse   Float -> Integer
//  5. strict date parse      Text/Categorical -> Date
//  6. categorical compaction Text -> Categorical
//  7. numeric width shrink   storage metadata only
//
// A pass claims a column only when EVERY non-null value converts
// losslessly; a single unparseable value disqualifies the whole column
// for that pass and it falls through unchanged. Row identity is never
// altered, only the stored representation.
//
// Columns are independent of each other, so each column runs its pass
// sequence on a worker snapshot of the input.
func InferTypes(t *table.Table, opts Options) *table.Table {
	nRows := t.NumRows()
	cols := make([]table.Column, len(t.Cols))

	mapColumns(t.Cols, opts.Workers, func(i int, c table.Column) {
		cols[i] = inferColumn(c, nRows, opts)
	})

	return &table.Table{Cols: cols}
}

func inferColumn(c table.Column, nRows int, opts Options) table.Column {
	// Passes 1-3: numeric conversions for Text columns.
	if c.Type == table.Text {
		if vals, ok := castPlainNumeric(c.Values); ok {
			c.Type = table.Float
			c.Values = vals
		} else if vals, ok := castParenNegative(c.Values); ok {
			c.Type = table.Float
			c.Values = vals
		} else if vals, ok := castCurrency(c.Values); ok {
			c.Type = table.Float
			c.Values = vals
		}
	}

	// Pass 4: collapse whole-valued floats to integers.
	if c.Type == table.Float {
		if vals, ok := castWholeFloat(c.Values); ok {
			c.Type = table.Integer
			c.Values = vals
		}
	}

	// Pass 5: strict fixed-format dates.
	if c.Type == table.Text || c.Type == table.Categorical {
		if vals, ok := castDate(c.Values); ok {
			c.Type = table.Date
			c.Values = vals
		}
	}

	// Pass 6: categorical compaction for low-cardinality text.
	if c.Type == table.Text && opts.CategoricalMaxRatio > 0 && nRows > 0 {
		if isLowCardinality(c.Values, nRows, opts.CategoricalMaxRatio) {
			c.Type = table.Categorical
		}
	}

	// Pass 7: width shrink (storage optimization, not a semantic change).
	switch c.Type {
	case table.Integer:
		c.Bits = intBits(c.Values)
	case table.Float:
		c.Bits = floatBits(c.Values)
	}

	return c
}

// castPlainNumeric converts a column where every non-null value is a
// plain base-10 number. Returns ok=false when any value fails, or when
// the column has no non-null values at all (an empty cast proves
// nothing about the column).
func castPlainNumeric(values []any) ([]any, bool) {
	return castAll(values, func(s string) (any, bool) {
		f, ok := parsePlain(s)
		if !ok {
			return nil, false
		}
		return f, true
	})
}

// castParenNegative handles accounting-style columns: it only fires when
// at least one value is parenthesized, and converts parenthesized values
// to negated numbers after stripping currency symbols, commas, and
// whitespace from every value.
func castParenNegative(values []any) ([]any, bool) {
	anyParen := false
	for _, v := range values {
		if s, ok := v.(string); ok && parenNegative.MatchString(s) {
			anyParen = true
			break
		}
	}
	if !anyParen {
		return nil, false
	}

	return castAll(values, func(s string) (any, bool) {
		neg := false
		if m := parenNegative.FindStringSubmatch(s); m != nil {
			neg = true
			s = m[1]
		}
		f, ok := parsePlain(stripCurrency(s))
		if !ok {
			return nil, false
		}
		if neg {
			f = -f
		}
		return f, true
	})
}

// castCurrency converts a column where stripping currency symbols,
// commas, and whitespace leaves every value numeric.
func castCurrency(values []any) ([]any, bool) {
	return castAll(values, func(s string) (any, bool) {
		f, ok := parsePlain(stripCurrency(s))
		if !ok {
			return nil, false
		}
		return f, true
	})
}

func castWholeFloat(values []any) ([]any, bool) {
	out := make([]any, len(values))
	seen := false
	for i, v := range values {
		if table.IsNull(v) {
			continue
		}
		f, ok := v.(float64)
		if !ok || f != math.Floor(f) || math.IsInf(f, 0) {
			return nil, false
		}
		if f > math.MaxInt64 || f < math.MinInt64 {
			return nil, false
		}
		seen = true
		out[i] = int64(f)
	}
	return out, seen
}

func castDate(values []any) ([]any, bool) {
	return castAll(values, func(s string) (any, bool) {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, false
		}
		return d, true
	})
}

// castAll applies conv to every non-null string value. It enforces the
// all-or-nothing rule: one failure disqualifies the whole column.
func castAll(values []any, conv func(string) (any, bool)) ([]any, bool) {
	out := make([]any, len(values))
	seen := false
	for i, v := range values {
		if table.IsNull(v) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		c, ok := conv(s)
		if !ok {
			return nil, false
		}
		seen = true
		out[i] = c
	}
	return out, seen
}

func isLowCardinality(values []any, nRows int, maxRatio float64) bool {
	distinct := make(map[string]struct{}, 64)
	for _, v := range values {
		if s, ok := v.(string); ok {
			distinct[s] = struct{}{}
		}
	}
	return float64(len(distinct))/float64(nRows) < maxRatio
}

func intBits(values []any) int {
	var lo, hi int64
	for _, v := range values {
		if n, ok := v.(int64); ok {
			if n < lo {
				lo = n
			}
			if n > hi {
				hi = n
			}
		}
	}
	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return 8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return 16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return 32
	default:
		return 64
	}
}

func floatBits(values []any) int {
	for _, v := range values {
		if f, ok := v.(float64); ok {
			if float64(float32(f)) != f {
				return 64
			}
		}
	}
	return 32
}

// mapColumns runs fn over every column using a bounded worker pool.
// Results land in fixed slots, so the output order is deterministic
// regardless of scheduling.
func mapColumns(cols []table.Column, workers int, fn func(i int, c table.Column)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(cols) {
		workers = len(cols)
	}
	if workers <= 1 {
		for i, c := range cols {
			fn(i, c)
		}
		return
	}

	idx := make(chan int, len(cols))
	for i := range cols {
		idx <- i
	}
	close(idx)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i, cols[i])
			}
		}()
	}
	wg.Wait()
}
