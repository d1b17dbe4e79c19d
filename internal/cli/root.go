// Package cli implements the sheetplan command line.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SheetPlan/internal/config"
	"github.com/piwi3910/SheetPlan/internal/engine"
	"github.com/piwi3910/SheetPlan/internal/logger"
	"github.com/piwi3910/SheetPlan/internal/model"
	"github.com/piwi3910/SheetPlan/internal/planning"
	"github.com/piwi3910/SheetPlan/internal/store"
)

// app carries global flags and the loaded config to every command.
type app struct {
	configPath string
	dbPath     string
	jsonOutput bool

	cfg config.Config
	out io.Writer
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sheetplan",
		Short: "Sheet layout optimization and production planning",
		Long: `sheetplan works out how many blanks fit on a stock sheet, ranks the stock
sizes of a material for a job, and records the production plan through
draft, planned and applied.

Environment Variables:
  SHEETPLAN_DB_PATH             SQLite database path
  SHEETPLAN_RANK_WORKERS        Parallel stock size evaluations (0 = all CPUs)
  SHEETPLAN_MATERIAL_UNIT_COST  Fallback price per sheet
  SHEETPLAN_REPORT_DIR          Default directory for exported files
  LOG_LEVEL, LOG_FORMAT         Logging (debug|info|warn|error, text|json)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.sheetplan/config.json)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides SHEETPLAN_DB_PATH)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output JSON instead of human-readable text")

	root.AddCommand(
		newLayoutCmd(a),
		newRankCmd(a),
		newWastageCmd(a),
		newCostCmd(a),
		newMigrateCmd(a),
		newJobCmd(a),
		newPlanCmd(a),
		newCatalogCmd(a),
		newReportCmd(a),
	)
	return root
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return NewRootCmd().ExecuteContext(ctx)
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrIncompatible):
		return 2
	case errors.Is(err, model.ErrConflict):
		return 3
	case errors.Is(err, model.ErrPreconditionFailed),
		errors.Is(err, model.ErrJustificationRequired),
		errors.Is(err, model.ErrConfirmationRequired),
		errors.Is(err, model.ErrInsufficientStock),
		errors.Is(err, model.ErrNoViableCandidate):
		return 4
	case errors.Is(err, model.ErrNotFound):
		return 5
	default:
		return 1
	}
}

func (a *app) init(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	return nil
}

// openStore opens and migrates the configured database.
func (a *app) openStore() (*store.Store, func(), error) {
	if a.cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.New(db), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	_ = db.Close()
}

func (a *app) ranker() *engine.Ranker {
	return engine.NewRanker(a.cfg.RankWorkers)
}

// service opens the store and wires a planning service on top of it.
func (a *app) service() (*planning.Service, *store.Store, func(), error) {
	st, closeFn, err := a.openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	unitCost, err := a.cfg.UnitCost()
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return planning.NewService(st, a.ranker(), unitCost), st, closeFn, nil
}

// reportPath places a bare file name in the configured report directory.
func (a *app) reportPath(name string) (string, error) {
	if name == "" || filepath.Dir(name) != "." || filepath.IsAbs(name) {
		return name, nil
	}
	if err := os.MkdirAll(a.cfg.ReportDir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	return filepath.Join(a.cfg.ReportDir, name), nil
}
