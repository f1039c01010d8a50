package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/mini-rodalies-3d/ril100/internal/config"
	"github.com/mini-rodalies-3d/ril100/internal/db"
	"github.com/mini-rodalies-3d/ril100/internal/handlers"
	"github.com/mini-rodalies-3d/ril100/internal/logging"
	"github.com/mini-rodalies-3d/ril100/internal/models"
	"github.com/mini-rodalies-3d/ril100/internal/search"
	"github.com/mini-rodalies-3d/ril100/internal/static"
)

type options struct {
	query   string
	all     bool
	json    bool
	columns bool
}

func main() {
	var opts options
	flag.StringVar(&opts.query, "q", "", "Search query (code or name, empty lists everything)")
	flag.BoolVar(&opts.all, "all", false, "Print every match instead of the first page")
	flag.BoolVar(&opts.json, "json", false, "Print results as JSON")
	flag.BoolVar(&opts.columns, "columns", false, "Print the dataset columns and exit")
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Results go to stdout, so logs go to stderr.
	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, w io.Writer) error {
	store, err := db.Open(ctx, cfg.CacheBackend, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}

	var snapshots static.SnapshotStore
	if store != nil {
		defer store.Close()
		snapshots = store
	}

	loader := static.NewLoader(cfg, snapshots, nil)
	result, err := loader.Load(ctx)
	// The store must outlive the background write-back.
	defer loader.Wait()
	if err != nil {
		return err
	}

	if opts.columns {
		for _, c := range result.Columns {
			fmt.Fprintln(w, c)
		}
		return nil
	}

	ds, err := search.NewDataset(result.Records)
	if err != nil {
		return err
	}
	res := ds.Search(opts.query, opts.all)

	if opts.json {
		return printJSON(w, opts.query, res)
	}
	return printTable(w, res)
}

func printJSON(w io.Writer, query string, res search.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(handlers.SearchResponse{
		Query:     query,
		Entries:   models.NewEntries(res.Entries),
		Count:     len(res.Entries),
		Total:     res.Total,
		Remaining: res.Remaining(),
	})
}

func printTable(w io.Writer, res search.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tTYPE\t")
	for _, e := range res.Entries {
		marker := ""
		if e.IsInactive {
			marker = "(inactive)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Code, e.LongName, e.TypeShort, marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if n := res.Remaining(); n > 0 {
		fmt.Fprintf(w, "… %d more entries (use -all)\n", n)
	}
	return nil
}
