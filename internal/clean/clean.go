package clean

import "tabular/internal/table"

// NormalizeAndInfer runs the full cleaning pipeline in its fixed order:
// sanitize column names, normalize contents, re-infer types. The
// composition is idempotent: running it on its own output is a no-op.
func NormalizeAndInfer(t *table.Table) *table.Table {
	return NormalizeAndInferOpts(t, DefaultOptions())
}

// NormalizeAndInferOpts is NormalizeAndInfer with explicit tuning.
func NormalizeAndInferOpts(t *table.Table, opts Options) *table.Table {
	return InferTypes(NormalizeContents(SanitizeColumns(t)), opts)
}
