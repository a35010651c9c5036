// pkg/model/repair.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Repair operation identifiers, used both in the run log and in the audit
// sink's cleaning_operation column.
const (
	OpSentinelNormalization = "sentinel_normalization"
	OpRowRemoval            = "row_removal"
	OpItemInference         = "item_inference"
	OpQuantityRepair        = "quantity_repair"
	OpPriceFill             = "price_fill"
	OpPriceCorrection       = "price_correction"
	OpTotalRecompute        = "total_recompute"
	OpCategoricalFill       = "categorical_fill"
)

// Row-removal reasons, keyed in RowsRemovedByOperation.
const (
	ReasonMissingTransactionID   = "missing_transaction_id"
	ReasonUnresolvableItem       = "unresolvable_item"
	ReasonMissingTransactionDate = "missing_transaction_date"
)

// RepairOperation records a single cell-level repair. It is the unit the
// audit sink persists.
type RepairOperation struct {
	RunID         string      `db:"run_id" json:"run_id"`
	ColumnName    string      `db:"column_name" json:"column"`
	RowIdentifier string      `db:"row_identifier" json:"row_id"`
	OriginalValue interface{} `db:"original_value" json:"original_value"`
	NewValue      string      `db:"new_value" json:"new_value"`
	Operation     string      `db:"operation" json:"operation"`
	Reason        string      `db:"reason" json:"reason"`
	RepairedAt    time.Time   `db:"repaired_at" json:"repaired_at"`
}

// PriceDetail is a per-item breakdown of price fills, corrections or item
// inferences: which item, the canonical price applied, how many rows.
type PriceDetail struct {
	Item  string  `json:"item"`
	Price float64 `json:"price"`
	Count int     `json:"count"`
}

// RepairLog is the append-only record of one pipeline run. It is created once
// per run, populated incrementally by the stages, and finalized after the
// last stage completes.
type RepairLog struct {
	RunID                  string
	StartedAt              time.Time
	InitialRows            int
	FinalRows              int
	RetentionRate          float64
	SentinelsNormalized    map[string]int
	RowsRemovedByOperation map[string]int
	ValuesImputedByField   map[string]int
	ImputationValues       map[string]string
	ItemsInferred          []PriceDetail
	PriceFills             []PriceDetail
	PriceCorrections       []PriceDetail
	QuantityRepairs        int
	QuantityFallback       float64
	TotalsRecomputed       int
	DatesParsed            bool
	Operations             []RepairOperation

	finalized bool
}

// NewRepairLog creates a log for a run over initialRows input rows.
func NewRepairLog(initialRows int) *RepairLog {
	return &RepairLog{
		RunID:                  uuid.New().String(),
		StartedAt:              time.Now(),
		InitialRows:            initialRows,
		SentinelsNormalized:    make(map[string]int),
		RowsRemovedByOperation: make(map[string]int),
		ValuesImputedByField:   make(map[string]int),
		ImputationValues:       make(map[string]string),
		DatesParsed:            true,
	}
}

// AddSentinel counts one normalized sentinel of the given kind.
func (l *RepairLog) AddSentinel(kind string) {
	l.SentinelsNormalized[kind]++
}

// AddRemoved counts rows dropped for a reason.
func (l *RepairLog) AddRemoved(reason string, count int) {
	if count == 0 {
		return
	}
	l.RowsRemovedByOperation[reason] += count
}

// AddImputed counts imputations on a field and remembers the value used.
func (l *RepairLog) AddImputed(field string, count int, value string) {
	if count == 0 {
		return
	}
	l.ValuesImputedByField[field] += count
	l.ImputationValues[field] = value
}

// PriceCorrectionCount sums the per-item correction counts.
func (l *RepairLog) PriceCorrectionCount() int {
	n := 0
	for _, d := range l.PriceCorrections {
		n += d.Count
	}
	return n
}

// RowsRemoved sums rows dropped across all reasons.
func (l *RepairLog) RowsRemoved() int {
	n := 0
	for _, c := range l.RowsRemovedByOperation {
		n += c
	}
	return n
}

// Record appends a cell-level operation, stamping it with the run identity.
func (l *RepairLog) Record(op RepairOperation) {
	op.RunID = l.RunID
	op.RepairedAt = time.Now()
	l.Operations = append(l.Operations, op)
}

// Finalize sets the final row count and computes the retention rate. It is
// idempotent; later calls are no-ops.
func (l *RepairLog) Finalize(finalRows int) {
	if l.finalized {
		return
	}
	l.FinalRows = finalRows
	if l.InitialRows > 0 {
		l.RetentionRate = float64(finalRows) / float64(l.InitialRows) * 100
	}
	l.finalized = true
}

// Finalized reports whether Finalize has run.
func (l *RepairLog) Finalized() bool {
	return l.finalized
}

// addDetail increments the count for an item in a PriceDetail list, keeping
// first-seen order.
func addDetail(details []PriceDetail, item string, price float64) []PriceDetail {
	for i := range details {
		if details[i].Item == item {
			details[i].Count++
			return details
		}
	}
	return append(details, PriceDetail{Item: item, Price: price, Count: 1})
}

// AddItemInferred counts one item inferred from its price.
func (l *RepairLog) AddItemInferred(item string, price float64) {
	l.ItemsInferred = addDetail(l.ItemsInferred, item, price)
}

// AddPriceFill counts one null price filled from the reference table.
func (l *RepairLog) AddPriceFill(item string, price float64) {
	l.PriceFills = addDetail(l.PriceFills, item, price)
}

// AddPriceCorrection counts one price overwritten with the reference value.
func (l *RepairLog) AddPriceCorrection(item string, price float64) {
	l.PriceCorrections = addDetail(l.PriceCorrections, item, price)
}
