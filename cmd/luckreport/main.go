// Package main provides a CLI that computes a luck report over stored rolls,
// read from PostgreSQL or from a YAML/JSON record file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rollkeeper/internal/config"
	"github.com/cory-johannsen/rollkeeper/internal/luck"
	"github.com/cory-johannsen/rollkeeper/internal/observability"
	"github.com/cory-johannsen/rollkeeper/internal/storage/postgres"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, time.Now))
}

type options struct {
	configPath   string
	input        string
	entityID     int64
	collectionID int64
	minDice      int
	day          string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("luckreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.configPath, "config", "", "path to configuration file (defaults and ROLLKEEPER_* env when empty)")
	fs.StringVar(&o.input, "input", "", "read records from a .yaml/.yml/.json file instead of the database")
	fs.Int64Var(&o.entityID, "entity", 0, "restrict the report to one entity")
	fs.Int64Var(&o.collectionID, "collection", 0, "restrict the report to one collection")
	fs.IntVar(&o.minDice, "min-dice", -1, "minimum dice rolled for luckiest/least lucky (-1 = analytics.min_dice_rolled)")
	fs.StringVar(&o.day, "day", "", "calendar day (YYYY-MM-DD) for the daily luckiest entry; empty = today")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if o.entityID != 0 && o.collectionID != 0 {
		return options{}, errors.New("-entity and -collection are mutually exclusive")
	}
	return o, nil
}

func (o options) scope() (luck.Scope, error) {
	switch {
	case o.entityID != 0:
		return luck.ForEntity(o.entityID)
	case o.collectionID != 0:
		return luck.ForCollection(o.collectionID)
	default:
		return luck.Global(), nil
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadDefaults()
	}
	return config.Load(path)
}

// readRecordFile decodes a record fixture, choosing the codec by extension.
func readRecordFile(path string) ([]luck.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return luck.ReadRecordsYAML(f)
	case ".json":
		return luck.ReadRecordsJSON(f)
	default:
		return nil, fmt.Errorf("unsupported record file extension %q", filepath.Ext(path))
	}
}

func loadRecords(ctx context.Context, o options, cfg config.Config, scope luck.Scope) ([]luck.Record, error) {
	if o.input != "" {
		records, err := readRecordFile(o.input)
		if err != nil {
			return nil, err
		}
		return scope.Filter(records), nil
	}

	pool, err := postgres.Open(ctx, cfg.Database, postgres.DefaultHealthTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	return pool.Rolls().List(ctx, scope)
}

func run(args []string, stdout, stderr io.Writer, now func() time.Time) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	scope, err := o.scope()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "loading config: %v\n", err)
		return 2
	}
	logger, err := observability.NewLogger(cfg.Logging, "luckreport")
	if err != nil {
		fmt.Fprintf(stderr, "initializing logger: %v\n", err)
		return 2
	}
	defer func() { _ = observability.Sync(logger) }()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		logger.Error("resolving timezone", zap.Error(err))
		return 2
	}
	day := now().In(loc)
	if o.day != "" {
		day, err = time.ParseInLocation(time.DateOnly, o.day, loc)
		if err != nil {
			fmt.Fprintf(stderr, "parsing -day: %v\n", err)
			return 2
		}
	}
	minDice := o.minDice
	if minDice < 0 {
		minDice = cfg.Analytics.MinDiceRolled
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	records, err := loadRecords(ctx, o, cfg, scope)
	if err != nil {
		logger.Error("loading records", zap.Stringer("scope", scope), zap.Error(err))
		return 2
	}

	ds := luck.Load(records)
	luck.LogSkips(logger, ds.Skips())

	report := BuildReport(ds, ReportParams{
		ID:          uuid.New(),
		GeneratedAt: now(),
		Scope:       scope,
		MinDice:     minDice,
		Day:         day,
		Location:    loc,
	})
	logger.Info("luck report built",
		zap.String("report_id", report.ID.String()),
		zap.Stringer("scope", scope),
		zap.Int("records", report.RecordCount),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(stderr, "encoding report: %v\n", err)
		return 2
	}
	return 0
}
