// Command inspect probes a single data file: it normalizes and types
// the table, then prints a per-column profile and the ranked composite
// key candidates.
//
// Supported input formats are detected from the extension, falling
// back to a content sniff: CSV, JSON, parquet, xlsx, and HTML tables.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"tabular/internal/clean"
	"tabular/internal/fileio"
	"tabular/internal/insights"
	"tabular/internal/keys"
)

func main() {
	var (
		// flagFile is the path of the dataset to probe.
		flagFile = flag.String("file", "", "path of the source file (csv, json, parquet, xlsx, html)")

		// flagMaxKey bounds the column combinations tried during key
		// discovery. The search is combinatorial in this value.
		flagMaxKey = flag.Int("max-key-size", 4, "largest column combination to try")

		// flagCandidates caps how many ranked candidates are printed.
		flagCandidates = flag.Int("candidates", 5, "number of ranked key candidates to print")

		// flagSample is the row sample size for the cheap uniqueness
		// screen; survivors are confirmed on the full table.
		flagSample = flag.Int("sample", 1000, "row sample size for the uniqueness screen")
	)
	flag.Parse()

	if strings.TrimSpace(*flagFile) == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		flag.Usage()
		os.Exit(2)
	}

	params := keys.DefaultParams()
	params.MaxKeySize = *flagMaxKey
	params.NCandidates = *flagCandidates
	params.SampleSize = *flagSample

	if err := inspect(*flagFile, params, os.Stdout); err != nil {
		log.Fatalf("inspect: %v", err)
	}
}

// inspect reads, normalizes and profiles one file and writes the
// human-readable summary to w.
func inspect(path string, params keys.Params, w io.Writer) error {
	raw, err := fileio.Read(path)
	if err != nil {
		return err
	}
	tbl := clean.NormalizeAndInfer(raw)

	fmt.Fprintf(w, "file: %s\n", filepath.Base(path))
	fmt.Fprintf(w, "rows: %d  columns: %d\n\n", tbl.NumRows(), tbl.NumCols())

	if tbl.NumCols() == 0 {
		fmt.Fprintln(w, "no usable columns after normalization")
		return nil
	}

	writeProfiles(w, insights.Profile(tbl))

	cands, err := keys.FindRanked(tbl, params)
	if err != nil {
		return err
	}
	writeCandidates(w, cands)
	return nil
}

func writeProfiles(w io.Writer, profiles []insights.ColumnProfile) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "column\ttype\tcount\tnulls\tdistinct\tdetails")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			p.Name, p.Dtype, p.Count, p.Nulls, p.Distinct, profileDetails(p))
	}
	tw.Flush()
}

// profileDetails renders the type-specific part of a column profile:
// numeric range and mean, or the date span.
func profileDetails(p insights.ColumnProfile) string {
	if p.Earliest != "" {
		return fmt.Sprintf("earliest=%s latest=%s", p.Earliest, p.Latest)
	}
	if p.Min == nil {
		return ""
	}
	return fmt.Sprintf("min=%s max=%s mean=%s",
		formatNum(*p.Min), formatNum(*p.Max), formatNum(*p.Mean))
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func writeCandidates(w io.Writer, cands []keys.Candidate) {
	if len(cands) == 0 {
		fmt.Fprintln(w, "\nkey candidates: none")
		return
	}
	fmt.Fprintln(w, "\nkey candidates:")
	for i, c := range cands {
		fmt.Fprintf(w, "  %d. [%s] score=%d\n", i+1, strings.Join(c.Columns, ", "), c.Score)
	}
}
