// Package main provides a CLI that evaluates dice formulas and optionally
// stores the results.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rollkeeper/internal/config"
	"github.com/cory-johannsen/rollkeeper/internal/dice"
	"github.com/cory-johannsen/rollkeeper/internal/observability"
	"github.com/cory-johannsen/rollkeeper/internal/storage/postgres"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options are the parsed command-line flags.
type options struct {
	configPath string
	store      bool
	entityID   int64
	text       bool
	formulas   []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("roll", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.configPath, "config", "", "path to configuration file (defaults and ROLLKEEPER_* env when empty)")
	fs.BoolVar(&o.store, "store", false, "persist each roll to the database")
	fs.Int64Var(&o.entityID, "entity", 0, "entity ID to attribute stored rolls to (0 = none)")
	fs.BoolVar(&o.text, "text", false, "print the audit line instead of JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: roll [flags] FORMULA...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	o.formulas = fs.Args()
	if len(o.formulas) == 0 {
		fs.Usage()
		return options{}, errors.New("at least one formula is required")
	}
	if o.entityID < 0 {
		return options{}, fmt.Errorf("-entity must be >= 0, got %d", o.entityID)
	}
	return o, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadDefaults()
	}
	return config.Load(path)
}

// run evaluates every formula in order and stops at the first rejected one.
//
// Postcondition: returns 0 when every formula evaluated (and was stored, with
// -store), 1 on a rejected formula, 2 on a usage or infrastructure error.
func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "loading config: %v\n", err)
		return 2
	}

	logger, err := observability.NewLogger(cfg.Logging, "roll")
	if err != nil {
		fmt.Fprintf(stderr, "initializing logger: %v\n", err)
		return 2
	}
	defer func() { _ = observability.Sync(logger) }()

	src, err := cfg.Dice.NewSource()
	if err != nil {
		fmt.Fprintf(stderr, "building dice source: %v\n", err)
		return 2
	}
	roller := dice.NewLoggedRoller(src, logger)

	var repo *postgres.RollRepository
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if o.store {
		pool, err := postgres.Open(ctx, cfg.Database, postgres.DefaultHealthTimeout)
		if err != nil {
			logger.Error("connecting to database", zap.Error(err))
			return 2
		}
		defer pool.Close()
		repo = pool.Rolls()
	}

	enc := json.NewEncoder(stdout)
	for _, formula := range o.formulas {
		result, err := roller.Evaluate(formula)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}

		if repo != nil {
			rec, err := repo.Create(ctx, o.entityID, result)
			if err != nil {
				logger.Error("storing roll", zap.String("formula", formula), zap.Error(err))
				return 2
			}
			logger.Info("roll stored", zap.Int64("roll_id", rec.ID), zap.Int64("entity_id", rec.EntityID))
		}

		if o.text {
			fmt.Fprintln(stdout, result.String())
			continue
		}
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "encoding result: %v\n", err)
			return 2
		}
	}
	return 0
}
