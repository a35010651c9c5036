// cmd/cleanse/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cafedata/cleanse/pkg/audit"
	"github.com/cafedata/cleanse/pkg/cleaner"
	"github.com/cafedata/cleanse/pkg/config"
	"github.com/cafedata/cleanse/pkg/dataset"
	"github.com/cafedata/cleanse/pkg/model"
	"github.com/cafedata/cleanse/pkg/report"
	"github.com/cafedata/cleanse/pkg/scanner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cleanse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	rows, err := dataset.Load(cfg.InputPath)
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		zap.String("path", cfg.InputPath),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(model.Columns)))

	diag := scanner.NewScanner(logger).Scan(rows)

	c, err := cleaner.New(model.DefaultMenu(), logger)
	if err != nil {
		return err
	}
	cleaned, repairLog := c.Clean(rows)

	summary := report.NewBuilder(logger).Build(repairLog, cleaned)

	if err := dataset.WriteCleaned(cfg.CleanedPath, cleaned); err != nil {
		return err
	}
	if err := dataset.WriteDiagnostics(cfg.DiagnosticsPath, diag); err != nil {
		return err
	}
	if err := dataset.WriteSummary(cfg.SummaryPath, summary); err != nil {
		return err
	}
	logger.Info("Outputs written",
		zap.String("cleaned", cfg.CleanedPath),
		zap.String("diagnostics", cfg.DiagnosticsPath),
		zap.String("summary", cfg.SummaryPath))

	if cfg.AuditEnabled() {
		if err := recordAudit(cfg, logger, repairLog); err != nil {
			return err
		}
	}

	logger.Info("Run complete",
		zap.String("runID", repairLog.RunID),
		zap.Int("finalRows", repairLog.FinalRows),
		zap.Float64("retentionRate", repairLog.RetentionRate))
	return nil
}

func recordAudit(cfg *config.Config, logger *zap.Logger, repairLog *model.RepairLog) error {
	ctx := context.Background()
	recorder, err := audit.NewRecorder(ctx, cfg.AuditDatabaseURL, logger)
	if err != nil {
		return err
	}
	defer recorder.Close()
	return recorder.Record(ctx, repairLog.Operations)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}
