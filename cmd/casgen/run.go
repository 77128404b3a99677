package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	_ "modernc.org/sqlite"

	"github.com/syssam/casgen/compiler/doc"
	"github.com/syssam/casgen/compiler/gen"
	"github.com/syssam/casgen/compiler/gen/sql"
	"github.com/syssam/casgen/compiler/load"
	"github.com/syssam/casgen/dialect"
	dsql "github.com/syssam/casgen/dialect/sql"
	"github.com/syssam/casgen/runtime"
)

// debounce groups the burst of events an editor emits on save.
const debounce = 100 * time.Millisecond

// run generates the package described by o, then its docs and install
// when requested.
func run(ctx context.Context, o *options, log *slog.Logger) error {
	start := time.Now()
	s, err := load.LoadFile(o.Schema)
	if err != nil {
		return err
	}
	cfg, err := gen.NewConfig(
		gen.WithTarget(o.Target),
		gen.WithPackage(o.Package),
		gen.WithHeader(o.Header),
		gen.WithFormat(o.Format),
		gen.WithLogger(log),
	)
	if err != nil {
		return err
	}
	g, err := gen.NewGraph(cfg, s)
	if err != nil {
		return err
	}
	if err := sql.Generate(ctx, g); err != nil {
		return err
	}
	log.InfoContext(ctx, "generated", "target", o.Target, "package", o.Package, "entities", len(g.Nodes), "elapsed", time.Since(start).Round(time.Millisecond))
	if o.Docs != "" {
		if err := doc.Write(o.Docs, doc.DefaultName, s); err != nil {
			return err
		}
		log.InfoContext(ctx, "wrote docs", "dir", o.Docs)
	}
	if o.Install != "" {
		if err := install(ctx, o.Install, g.Install, log); err != nil {
			return err
		}
	}
	return nil
}

// install applies the install statements to the SQLite database at dsn.
func install(ctx context.Context, dsn string, stmts []string, log *slog.Logger) error {
	drv, err := dsql.Open(dialect.SQLite, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", dsn, err)
	}
	defer func() { _ = drv.Close() }()
	stats := dsql.NewStatsDriver(dsql.NewDebugDriver(drv, log),
		dsql.WithSlowQueryHook(func(ctx context.Context, query string, _ []any, d time.Duration) {
			log.WarnContext(ctx, "slow statement", "duration", d, "query", query)
		}),
	)
	if err := runtime.Install(ctx, stats, stmts); err != nil {
		return err
	}
	log.InfoContext(ctx, "installed", "dsn", dsn, "stats", stats.QueryStats().Stats())
	return nil
}

// watchSchema runs o, then runs it again each time the description file
// changes, until ctx is done. Failed runs are logged and do not stop the
// watch.
func watchSchema(ctx context.Context, o *options, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	// Editors often replace the file, so the directory is watched.
	path := filepath.Clean(o.Schema)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	regenerate := func() {
		if err := run(ctx, o, log); err != nil {
			log.ErrorContext(ctx, "generation failed", "err", err)
		}
	}
	regenerate()
	log.InfoContext(ctx, "watching", "schema", path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				log.DebugContext(ctx, "schema changed", "op", event.Op.String())
				timer.Reset(debounce)
			}
		case <-timer.C:
			regenerate()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WarnContext(ctx, "error watching schema", "err", err)
		}
	}
}
