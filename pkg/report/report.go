// pkg/report/report.go
package report

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cafedata/cleanse/pkg/model"
)

// Summary is the machine-readable account of one cleaning run. Every section
// is present even when empty; counts zero-fill rather than disappear.
type Summary struct {
	RunID                  string                  `json:"run_id"`
	InitialRows            int                     `json:"initial_rows"`
	FinalRows              int                     `json:"final_rows"`
	RowsRemoved            int                     `json:"rows_removed"`
	RetentionRate          float64                 `json:"retention_rate"`
	SentinelsNormalized    map[string]int          `json:"sentinels_normalized"`
	RowsRemovedByOperation map[string]int          `json:"rows_removed_by_operation"`
	ValuesImputedByField   map[string]int          `json:"values_imputed_by_field"`
	ImputationValues       map[string]string       `json:"imputation_values"`
	ItemsInferred          []model.PriceDetail     `json:"items_inferred"`
	PriceFills             []model.PriceDetail     `json:"price_fills"`
	PriceCorrections       []model.PriceDetail     `json:"price_corrections"`
	PriceCorrectionCount   int                     `json:"price_correction_count"`
	QuantityRepairs        int                     `json:"quantity_repairs"`
	QuantityFallback       float64                 `json:"quantity_fallback"`
	TotalsRecomputed       int                     `json:"totals_recomputed"`
	DatesParsed            bool                    `json:"dates_parsed"`
	FinalQuality           FinalQuality            `json:"final_quality"`
}

// FinalQuality profiles the cleaned dataset: what is still missing per
// column, and the distinct values the categorical columns ended up with.
type FinalQuality struct {
	MissingByColumn   map[string]int      `json:"missing_by_column"`
	CategoricalValues map[string][]string `json:"categorical_values"`
}

// categoricalColumns are profiled in the final-quality section.
var categoricalColumns = []string{model.ColItem, model.ColPaymentMethod, model.ColLocation}

// Builder aggregates a finalized repair log into a Summary. Pure
// aggregation; no decision logic.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a Builder. A nil logger falls back to a no-op logger.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger.Named("report")}
}

// Build produces the run summary from the repair log and the cleaned rows.
func (b *Builder) Build(log *model.RepairLog, cleaned []model.Row) Summary {
	s := Summary{
		RunID:                  log.RunID,
		InitialRows:            log.InitialRows,
		FinalRows:              log.FinalRows,
		RowsRemoved:            log.RowsRemoved(),
		RetentionRate:          log.RetentionRate,
		SentinelsNormalized:    copyCounts(log.SentinelsNormalized),
		RowsRemovedByOperation: copyCounts(log.RowsRemovedByOperation),
		ValuesImputedByField:   copyCounts(log.ValuesImputedByField),
		ImputationValues:       copyValues(log.ImputationValues),
		ItemsInferred:          emptyIfNil(log.ItemsInferred),
		PriceFills:             emptyIfNil(log.PriceFills),
		PriceCorrections:       emptyIfNil(log.PriceCorrections),
		PriceCorrectionCount:   log.PriceCorrectionCount(),
		QuantityRepairs:        log.QuantityRepairs,
		QuantityFallback:       log.QuantityFallback,
		TotalsRecomputed:       log.TotalsRecomputed,
		DatesParsed:            log.DatesParsed,
		FinalQuality:           buildFinalQuality(cleaned),
	}

	b.logger.Info("Report built",
		zap.String("runID", s.RunID),
		zap.Int("rowsRemoved", s.RowsRemoved),
		zap.Float64("retentionRate", s.RetentionRate))
	return s
}

func buildFinalQuality(rows []model.Row) FinalQuality {
	fq := FinalQuality{
		MissingByColumn:   make(map[string]int, len(model.Columns)),
		CategoricalValues: make(map[string][]string, len(categoricalColumns)),
	}
	for _, col := range model.Columns {
		fq.MissingByColumn[col] = 0
	}
	for _, row := range rows {
		for _, col := range model.Columns {
			if row[col] == nil {
				fq.MissingByColumn[col]++
			}
		}
	}
	for _, col := range categoricalColumns {
		seen := make(map[string]struct{})
		values := []string{}
		for _, row := range rows {
			if row[col] == nil {
				continue
			}
			v := model.AsString(row[col])
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		sort.Strings(values)
		fq.CategoricalValues[col] = values
	}
	return fq
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func emptyIfNil(in []model.PriceDetail) []model.PriceDetail {
	if in == nil {
		return []model.PriceDetail{}
	}
	return in
}
