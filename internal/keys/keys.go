// Package keys discovers small column sets whose joint values uniquely
// identify every row of a table, ranked by a column-name preference
// score. Uniqueness is screened on a row sample first and confirmed on
// the full table only for candidates that survive the screen.
package keys

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"tabular/internal/table"
)

// DefaultPatterns are the column-name substrings that mark a column as
// a likely key. Matching is case-insensitive.
var DefaultPatterns = []string{"id", "key", "number", "code", "invoice", "document"}

// Params controls the search. All counts must be positive.
type Params struct {
	// NCandidates caps how many candidates are returned.
	NCandidates int
	// MaxKeySize bounds the number of columns per candidate. The
	// search is combinatorial in this value, keep it small.
	MaxKeySize int
	// SampleSize is the number of rows used for the cheap uniqueness
	// screen, clamped to the row count.
	SampleSize int
	// PreferPatterns overrides DefaultPatterns when non-nil.
	PreferPatterns []string
	// Workers bounds parallel full-table confirms. Zero means
	// sequential.
	Workers int

	// rng lets tests fix the row sample.
	rng *rand.Rand
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{NCandidates: 5, MaxKeySize: 4, SampleSize: 1000}
}

func (p Params) validate() error {
	if p.NCandidates <= 0 {
		return fmt.Errorf("keys: NCandidates must be positive, got %d", p.NCandidates)
	}
	if p.MaxKeySize <= 0 {
		return fmt.Errorf("keys: MaxKeySize must be positive, got %d", p.MaxKeySize)
	}
	if p.SampleSize <= 0 {
		return fmt.Errorf("keys: SampleSize must be positive, got %d", p.SampleSize)
	}
	return nil
}

func (p Params) patterns() []string {
	if p.PreferPatterns != nil {
		return p.PreferPatterns
	}
	return DefaultPatterns
}

// Candidate is an ordered set of column names whose joint values are
// distinct on every row of the table it was found in.
type Candidate struct {
	Columns []string
	Score   int
}

// FindRanked returns up to p.NCandidates key candidates, best-scored
// first. A single-column key, when one exists, is always returned alone:
// the multi-column search never runs in that case. A table with no
// eligible columns yields an empty slice, not an error.
func FindRanked(t *table.Table, p Params) ([]Candidate, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	eligible := eligibleColumns(t)
	if len(eligible) == 0 || t.NumRows() == 0 {
		return nil, nil
	}

	sample := sampleRows(t.NumRows(), p.SampleSize, p.rng)

	if c, ok, err := singleColumn(t, eligible, sample, p); err != nil {
		return nil, err
	} else if ok {
		return []Candidate{c}, nil
	}

	return multiColumn(t, eligible, sample, p)
}

// eligibleColumns drops fractional Float columns. Floating noise makes
// such columns look unique without identifying anything.
func eligibleColumns(t *table.Table) []string {
	var names []string
	for _, c := range t.Cols {
		if c.Type == table.Float && !allIntegral(c.Values) {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

func allIntegral(values []any) bool {
	for _, v := range values {
		f, ok := v.(float64)
		if !ok {
			continue
		}
		if f != math.Floor(f) {
			return false
		}
	}
	return true
}

// sampleRows draws min(want, n) row indices uniformly without
// replacement.
func sampleRows(n, want int, rng *rand.Rand) []int {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if want > n {
		want = n
	}
	return rng.Perm(n)[:want]
}

// singleColumn looks for a one-column key. Columns that are distinct on
// the sample are confirmed against the full table in score order, and
// the first confirmed one wins.
func singleColumn(t *table.Table, eligible []string, sample []int, p Params) (Candidate, bool, error) {
	var hits []Candidate
	for _, name := range eligible {
		n, err := t.DistinctRows([]string{name}, sample)
		if err != nil {
			return Candidate{}, false, err
		}
		if n == len(sample) {
			hits = append(hits, Candidate{Columns: []string{name}, Score: score([]string{name}, p.patterns())})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	for _, c := range hits {
		n, err := t.DistinctRows(c.Columns, nil)
		if err != nil {
			return Candidate{}, false, err
		}
		if n == t.NumRows() {
			return c, true, nil
		}
	}
	return Candidate{}, false, nil
}

// multiColumn enumerates column combinations of ascending size. Each
// size level is screened on the sample, confirmed in parallel against
// the full table, then scored and sorted before the next level starts.
func multiColumn(t *table.Table, eligible []string, sample []int, p Params) ([]Candidate, error) {
	var out []Candidate
	for k := 2; k <= p.MaxKeySize && k <= len(eligible); k++ {
		var screened [][]string
		for combo := range combinations(len(eligible), k) {
			cols := pick(eligible, combo)
			n, err := t.DistinctRows(cols, sample)
			if err != nil {
				return nil, err
			}
			if n == len(sample) {
				screened = append(screened, cols)
			}
		}

		confirmed, err := confirmAll(t, screened, p.Workers)
		if err != nil {
			return nil, err
		}

		level := make([]Candidate, 0, len(confirmed))
		for _, cols := range confirmed {
			level = append(level, Candidate{Columns: cols, Score: score(cols, p.patterns())})
		}
		sort.SliceStable(level, func(i, j int) bool { return level[i].Score > level[j].Score })

		out = append(out, level...)
		if len(out) >= p.NCandidates {
			return out[:p.NCandidates], nil
		}
	}
	return out, nil
}

// confirmAll runs full-table uniqueness checks for the screened
// combinations, at most workers at a time, and returns the survivors in
// their original enumeration order.
func confirmAll(t *table.Table, screened [][]string, workers int) ([][]string, error) {
	if workers <= 1 || len(screened) <= 1 {
		var out [][]string
		for _, cols := range screened {
			n, err := t.DistinctRows(cols, nil)
			if err != nil {
				return nil, err
			}
			if n == t.NumRows() {
				out = append(out, cols)
			}
		}
		return out, nil
	}

	ok := make([]bool, len(screened))
	errs := make([]error, len(screened))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				n, err := t.DistinctRows(screened[i], nil)
				if err != nil {
					errs[i] = err
					continue
				}
				ok[i] = n == t.NumRows()
			}
		}()
	}
	for i := range screened {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var out [][]string
	for i, cols := range screened {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if ok[i] {
			out = append(out, cols)
		}
	}
	return out, nil
}

// score sums per-column bonuses: +10 for a preferred-substring match
// and up to +20 for short names.
func score(cols []string, patterns []string) int {
	total := 0
	for _, name := range cols {
		lower := strings.ToLower(name)
		for _, pat := range patterns {
			if strings.Contains(lower, pat) {
				total += 10
				break
			}
		}
		if bonus := 20 - len(name); bonus > 0 {
			total += bonus
		}
	}
	return total
}

// combinations yields every k-subset of [0,n) as ascending index
// slices, in lexicographic order. The yielded slice is reused between
// iterations.
func combinations(n, k int) func(yield func([]int) bool) {
	return func(yield func([]int) bool) {
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			if !yield(idx) {
				return
			}
			i := k - 1
			for i >= 0 && idx[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}

func pick(names []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = names[j]
	}
	return out
}
