// Package stage manages the staging area: the directory of normalized
// parquet files that downstream analysis reads instead of the raw
// sources. All functions take the configuration explicitly; there is no
// process-global state.
package stage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"tabular/internal/clean"
	"tabular/internal/config"
	"tabular/internal/fileio"
	"tabular/internal/metrics"
)

// Logger is the minimal logging interface used by the staging pass.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func logf(l Logger) func(format string, v ...any) {
	if l == nil {
		return log.New(discardWriter{}, "", 0).Printf
	}
	return l.Printf
}

// Ensure creates the sources, staging and output directories if they
// do not exist yet.
func Ensure(cfg config.Config) error {
	for _, dir := range []string{cfg.SourcesDir, cfg.StagingDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("stage: ensure %s: %w", dir, err)
		}
	}
	return nil
}

// Reset removes every staged parquet file, leaving the directory in
// place. Files of other types are not touched.
func Reset(cfg config.Config) error {
	if err := Ensure(cfg); err != nil {
		return err
	}
	entries, err := os.ReadDir(cfg.StagingDir)
	if err != nil {
		return fmt.Errorf("stage: reset: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".parquet" {
			continue
		}
		if err := os.Remove(filepath.Join(cfg.StagingDir, e.Name())); err != nil {
			return fmt.Errorf("stage: reset: %w", err)
		}
	}
	return nil
}

// Refresh rebuilds the staging area from scratch: it clears staged
// parquet files, then reads every readable source file, normalizes and
// types it, and writes it to staging as <stem>.parquet.
//
// A source file that fails to read or convert is logged and skipped;
// the remaining files still stage. The returned slice holds the staged
// parquet paths in source order.
func Refresh(cfg config.Config, l Logger) ([]string, error) {
	lg := logf(l)

	if err := Reset(cfg); err != nil {
		return nil, err
	}
	sources, err := fileio.ListReadable(cfg.SourcesDir)
	if err != nil {
		return nil, fmt.Errorf("stage: refresh: %w", err)
	}

	staged := make([]string, 0, len(sources))
	for _, src := range sources {
		start := time.Now()
		out, err := stageOne(cfg, src)
		if err != nil {
			lg("stage=refresh file=%s err=%v", filepath.Base(src), err)
			metrics.IncCounter("tabular_files_total", 1, metrics.Labels{"status": "error"})
			metrics.ObserveHistogram("tabular_stage_duration_seconds", time.Since(start).Seconds(),
				metrics.Labels{"step": "stage_file", "status": "error"})
			continue
		}
		lg("stage=refresh file=%s ok duration=%s", filepath.Base(src), time.Since(start).Truncate(time.Millisecond))
		metrics.IncCounter("tabular_files_total", 1, metrics.Labels{"status": "ok"})
		metrics.ObserveHistogram("tabular_stage_duration_seconds", time.Since(start).Seconds(),
			metrics.Labels{"step": "stage_file", "status": "ok"})
		staged = append(staged, out)
	}
	return staged, nil
}

func stageOne(cfg config.Config, src string) (string, error) {
	raw, err := fileio.Read(src)
	if err != nil {
		return "", err
	}
	cleaned := clean.NormalizeAndInfer(raw)
	if cleaned.NumCols() == 0 {
		return "", fmt.Errorf("no usable columns after normalization")
	}
	metrics.IncCounter("tabular_rows_total", float64(cleaned.NumRows()),
		metrics.Labels{"file": filepath.Base(src)})

	out := filepath.Join(cfg.StagingDir, fileio.Stem(src)+".parquet")
	if err := fileio.WriteParquet(cleaned, out); err != nil {
		return "", err
	}
	return out, nil
}

// Staged lists the staged parquet files in name order.
func Staged(cfg config.Config) ([]string, error) {
	entries, err := os.ReadDir(cfg.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("stage: list: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".parquet" {
			continue
		}
		out = append(out, filepath.Join(cfg.StagingDir, e.Name()))
	}
	return out, nil
}
