package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"gohypo/adapters/export/console"
	"gohypo/adapters/export/xlsx"
	"gohypo/adapters/input/local"
	rngadapter "gohypo/adapters/rng"
	storagelocal "gohypo/adapters/storage/local"
	storagepostgres "gohypo/adapters/storage/postgres"
	"gohypo/adapters/storage/s3"
	"gohypo/app"
	"gohypo/domain/bias"
	"gohypo/internal"
	"gohypo/internal/config"
	"gohypo/internal/errors"
	"gohypo/ports"
)

var logger = internal.NewDefaultLogger()

func main() {
	rootCmd := &cobra.Command{
		Use:   "bias-engine",
		Short: "Corporate favoritism bias analysis engine",
	}

	rootCmd.AddCommand(newAnalyzeCmd(), newVerifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var date, storageMode, outputMode, historyDB string
	var verbose, exportXLSX bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the bias analysis engine for one date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				return fmt.Errorf("--date is required")
			}
			return runAnalyze(cmd.Context(), date, storageMode, outputMode, historyDB, verbose, exportXLSX)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "analysis date, YYYYMMDD (required)")
	cmd.MarkFlagRequired("date")
	cmd.Flags().StringVar(&storageMode, "storage-mode", "", "auto|local|s3 (defaults to STORAGE_MODE env, then auto)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "verbose logging")
	cmd.Flags().StringVar(&outputMode, "output-mode", "auto", "auto|json|console")
	cmd.Flags().BoolVar(&exportXLSX, "export-xlsx", false, "also write a flattened per-entity xlsx export")
	cmd.Flags().StringVar(&historyDB, "history-db", "", "postgres DSN for recording run history (defaults to BIAS_HISTORY_DB_DSN env)")

	return cmd
}

func newVerifyCmd() *cobra.Command {
	var date, storageMode string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-check universal invariants against an existing result file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				return fmt.Errorf("--date is required")
			}
			return runVerify(cmd.Context(), date, storageMode)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "analysis date, YYYYMMDD (required)")
	cmd.MarkFlagRequired("date")
	cmd.Flags().StringVar(&storageMode, "storage-mode", "", "auto|local|s3")

	return cmd
}

func runAnalyze(ctx context.Context, date, storageModeFlag, outputMode, historyDBFlag string, verbose, exportXLSX bool) error {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mode := resolveStorageMode(storageModeFlag, cfg.Storage.Mode)
	logger.Info("starting analysis for %s (storage=%s)", date, mode)

	loader := local.New(cfg.Storage.DataRoot)
	sink := buildSink(mode, cfg)

	orchestrator := &app.Orchestrator{
		Input:   loader,
		Sink:    sink,
		RNG:     rngadapter.New(),
		Seed:    cfg.Engine.Seed,
		Version: cfg.Engine.AnalysisVersion,
	}
	if exportXLSX {
		orchestrator.Exporters = map[string]func(*bias.Result) ([]byte, error){
			"bias_analysis_results.xlsx": xlsx.Export,
		}
	}

	dsn := historyDBFlag
	if dsn == "" {
		dsn = cfg.History.DSN
	}
	if dsn != "" {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return errors.DatabaseError("failed to connect to history database: " + err.Error())
		}
		defer db.Close()
		historyRepo := storagepostgres.New(db)
		if err := historyRepo.Migrate(ctx); err != nil {
			return err
		}
		orchestrator.HistoryRepo = historyRepo
	}

	if verbose {
		logger.Debug("orchestrator configured: seed=%d version=%s history_db=%t export_xlsx=%t",
			cfg.Engine.Seed, cfg.Engine.AnalysisVersion, dsn != "", exportXLSX)
	}

	result, err := orchestrator.Run(ctx, date)
	if err != nil {
		logger.Error("analysis failed for %s: %v", date, err)
		return err
	}
	logger.Info("analysis complete for %s: execution_count=%d reliability=%s",
		date, result.Metadata.ExecutionCount, result.Metadata.ReliabilityLevel)

	switch resolveOutputMode(outputMode) {
	case "console":
		report, err := console.Render(result)
		if err != nil {
			return err
		}
		fmt.Println(report)
	case "json":
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
	}
	return nil
}

func runVerify(ctx context.Context, date, storageModeFlag string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	_ = resolveStorageMode(storageModeFlag, cfg.Storage.Mode)

	loader := storagelocal.New(cfg.Storage.DataRoot)
	result, err := loader.ReadResult(ctx, date)
	if err != nil {
		return err
	}

	issues := app.VerifyInvariants(result)
	if len(issues) == 0 {
		fmt.Printf("%s: all invariants hold\n", date)
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintln(os.Stderr, issue)
	}
	return errors.ValidationError(fmt.Sprintf("%d invariant violations found", len(issues)))
}

func resolveStorageMode(flag, envDefault string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("STORAGE_MODE"); v != "" {
		return v
	}
	if envDefault != "" {
		return envDefault
	}
	return "auto"
}

func resolveOutputMode(mode string) string {
	if mode == "" {
		return "auto"
	}
	return mode
}

func buildSink(mode string, cfg *config.Config) ports.ResultSink {
	if mode == "s3" {
		return s3.New(cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
	}
	return storagelocal.New(cfg.Storage.DataRoot)
}
