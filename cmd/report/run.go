package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tabular/internal/config"
	"tabular/internal/fileio"
	"tabular/internal/insights"
	"tabular/internal/keys"
	"tabular/internal/metrics"
	"tabular/internal/report"
	"tabular/internal/stage"
	"tabular/internal/storage"
	"tabular/internal/table"
)

// pipeline is the production runner: stage, analyze, write outputs,
// optionally export to a database.
type pipeline struct {
	Logger *log.Logger

	// KeyParams overrides the defaults when non-zero.
	KeyParams keys.Params

	// openRepo is a test seam; nil means the storage factory.
	openRepo func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
}

func (p *pipeline) Run(ctx context.Context, cfg config.Config) error {
	var lg stage.Logger
	if p.Logger != nil {
		lg = p.Logger
	}
	staged, err := stage.Refresh(cfg, lg)
	if err != nil {
		return err
	}
	if err := clearOutputs(cfg.OutputDir); err != nil {
		return err
	}

	var repo storage.Repository
	if cfg.Storage.Kind != "" {
		open := p.openRepo
		if open == nil {
			open = storage.New
		}
		repo, err = open(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer repo.Close()
	}

	params := p.KeyParams
	if params.NCandidates == 0 {
		params = keys.DefaultParams()
	}

	for _, path := range staged {
		start := time.Now()
		err := p.analyzeOne(ctx, cfg, repo, path, params)
		status := "ok"
		if err != nil {
			status = "error"
			p.logf("stage=analyze file=%s err=%v", filepath.Base(path), err)
		} else {
			p.logf("stage=analyze file=%s ok duration=%s", filepath.Base(path), time.Since(start).Truncate(time.Millisecond))
		}
		metrics.ObserveHistogram("tabular_stage_duration_seconds", time.Since(start).Seconds(),
			metrics.Labels{"step": "analyze", "status": status})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) analyzeOne(ctx context.Context, cfg config.Config, repo storage.Repository, path string, params keys.Params) error {
	tbl, err := fileio.ReadParquet(path)
	if err != nil {
		return err
	}
	base := filepath.Base(path)
	stem := fileio.Stem(path)

	cands, err := keys.FindRanked(tbl, params)
	if err != nil {
		return fmt.Errorf("find keys in %s: %w", base, err)
	}
	metrics.IncCounter("tabular_keys_candidates", float64(len(cands)), metrics.Labels{"file": base})

	rep := report.Build(base, tbl, cands)
	if err := rep.WriteJSON(filepath.Join(cfg.OutputDir, "Report_"+stem+".json")); err != nil {
		return err
	}

	desc, err := insights.Describe(tbl)
	if err != nil {
		return fmt.Errorf("describe %s: %w", base, err)
	}
	sheets := []fileio.Sheet{{Name: "data", Table: tbl}, {Name: "describe", Table: desc}}
	if err := fileio.WriteExcelSheets(filepath.Join(cfg.OutputDir, "Table_"+stem+".xlsx"), sheets); err != nil {
		return fmt.Errorf("write excel for %s: %w", base, err)
	}

	if repo != nil {
		return exportTable(ctx, repo, cfg.Storage.TablePrefix+stem, tbl)
	}
	return nil
}

func exportTable(ctx context.Context, repo storage.Repository, name string, tbl *table.Table) error {
	spec, err := storage.SpecFromTable(name, tbl)
	if err != nil {
		return err
	}
	if err := repo.EnsureTable(ctx, spec); err != nil {
		return fmt.Errorf("ensure table %s: %w", name, err)
	}
	columns, rows := storage.RowsFromTable(tbl)
	if _, err := repo.InsertRows(ctx, name, columns, rows); err != nil {
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	return nil
}

// clearOutputs removes previously generated reports and tables so a
// rerun never leaves stale files for sources that disappeared.
func clearOutputs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("clear outputs: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasPrefix(name, "Report_") || strings.HasPrefix(name, "Table_")) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("clear outputs: %w", err)
		}
	}
	return nil
}

func (p *pipeline) logf(format string, v ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, v...)
	}
}
