// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"

	"go.uber.org/zap"

	"github.com/cafedata/cleanse/pkg/model"
)

// Stage is one ordered repair step. Apply consumes the dataset state left by
// the previous stage and returns the next state, recording its effect into
// the shared log. Stages never fail on malformed input; malformed values
// degrade to null.
type Stage interface {
	Name() string
	Apply(rows []model.Row, log *model.RepairLog) []model.Row
}

// Cleaner runs the eight-stage repair pipeline over an in-memory dataset.
// The price table is owned by the cleaner for the duration of a run and is
// treated as ground truth over any input value.
type Cleaner struct {
	menu   *model.PriceTable
	logger *zap.Logger
	stages []Stage
}

// New creates a Cleaner with the standard stage ordering. Stage order
// matters: later stages depend on the normalization done by earlier ones.
func New(menu *model.PriceTable, logger *zap.Logger) (*Cleaner, error) {
	if menu == nil {
		return nil, errors.New("price table cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	c := &Cleaner{
		menu:   menu,
		logger: logger.Named("cleaner"),
	}
	c.stages = []Stage{
		&sentinelStage{},
		&transactionIDStage{},
		&itemStage{menu: menu},
		&quantityStage{},
		&priceStage{menu: menu},
		&totalStage{},
		&categoricalStage{},
		&dateStage{},
	}
	return c, nil
}

// Clean runs every stage in order and returns the cleaned dataset together
// with the finalized repair log. The input slice is not modified; each stage
// builds a fresh snapshot.
func (c *Cleaner) Clean(rows []model.Row) ([]model.Row, *model.RepairLog) {
	log := model.NewRepairLog(len(rows))

	current := make([]model.Row, len(rows))
	for i, row := range rows {
		current[i] = row.Clone()
	}

	for i, stage := range c.stages {
		before := len(current)
		current = stage.Apply(current, log)
		c.logger.Info("Stage complete",
			zap.Int("stage", i+1),
			zap.String("name", stage.Name()),
			zap.Int("rowsIn", before),
			zap.Int("rowsOut", len(current)))
	}

	log.Finalize(len(current))
	c.logger.Info("Cleaning complete",
		zap.String("runID", log.RunID),
		zap.Int("initialRows", log.InitialRows),
		zap.Int("finalRows", log.FinalRows),
		zap.Float64("retentionRate", log.RetentionRate))
	return current, log
}
