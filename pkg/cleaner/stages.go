// pkg/cleaner/stages.go
package cleaner

import (
	"strconv"
	"time"

	"github.com/cafedata/cleanse/pkg/model"
)

// quantityFallback replaces quantities that are missing, unparseable or
// non-positive.
const quantityFallback = 1.0

// rowID extracts the transaction ID for audit records. Rows reaching stages
// past transaction-ID enforcement always have one.
func rowID(row model.Row) string {
	return model.AsString(row[model.ColTransactionID])
}

// Stage 1: sentinelStage replaces every occurrence of the empty string,
// ERROR and UNKNOWN across all columns with a true null, counting each
// sentinel kind globally.
type sentinelStage struct{}

func (s *sentinelStage) Name() string { return "sentinel_normalization" }

func (s *sentinelStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	for _, row := range rows {
		for _, col := range model.Columns {
			kind, ok := model.SentinelKind(row[col])
			if !ok {
				continue
			}
			row[col] = nil
			log.AddSentinel(kind)
		}
	}
	return rows
}

// Stage 2: transactionIDStage drops every row without a transaction ID. The
// ID is the one field that is never imputed.
type transactionIDStage struct{}

func (s *transactionIDStage) Name() string { return "transaction_id_enforcement" }

func (s *transactionIDStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	kept := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if row[model.ColTransactionID] == nil {
			continue
		}
		kept = append(kept, row)
	}
	log.AddRemoved(model.ReasonMissingTransactionID, len(rows)-len(kept))
	return kept
}

// Stage 3: itemStage infers missing items by reverse price lookup, then
// drops rows whose item is still missing. When two menu items share a price
// the first item in table order wins.
type itemStage struct {
	menu *model.PriceTable
}

func (s *itemStage) Name() string { return "item_resolution" }

func (s *itemStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	for _, row := range rows {
		if row[model.ColItem] != nil {
			continue
		}
		price, ok := model.AsFloat(row[model.ColPricePerUnit])
		if !ok {
			continue
		}
		item, ok := s.menu.ItemFor(price)
		if !ok {
			continue
		}
		row[model.ColItem] = item
		log.AddItemInferred(item, price)
		log.Record(model.RepairOperation{
			ColumnName:    model.ColItem,
			RowIdentifier: rowID(row),
			OriginalValue: nil,
			NewValue:      item,
			Operation:     model.OpItemInference,
			Reason:        "price_matches_menu",
		})
	}

	kept := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if row[model.ColItem] == nil {
			continue
		}
		kept = append(kept, row)
	}
	log.AddRemoved(model.ReasonUnresolvableItem, len(rows)-len(kept))
	return kept
}

// Stage 4: quantityStage parses quantities; anything unparseable or <= 0 is
// forcibly set to the fallback constant.
type quantityStage struct{}

func (s *quantityStage) Name() string { return "quantity_repair" }

func (s *quantityStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	log.QuantityFallback = quantityFallback
	for _, row := range rows {
		qty, ok := model.AsFloat(row[model.ColQuantity])
		if ok && qty > 0 {
			row[model.ColQuantity] = qty
			continue
		}
		original := row[model.ColQuantity]
		row[model.ColQuantity] = quantityFallback
		log.QuantityRepairs++
		log.Record(model.RepairOperation{
			ColumnName:    model.ColQuantity,
			RowIdentifier: rowID(row),
			OriginalValue: original,
			NewValue:      strconv.FormatFloat(quantityFallback, 'g', -1, 64),
			Operation:     model.OpQuantityRepair,
			Reason:        "invalid_quantity",
		})
	}
	return rows
}

// Stage 5: priceStage fills missing prices from the reference table, then
// overwrites any price that differs from the table (exact inequality). The
// table is trusted over every input value.
type priceStage struct {
	menu *model.PriceTable
}

func (s *priceStage) Name() string { return "price_repair" }

func (s *priceStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	filled := 0
	for _, row := range rows {
		item := model.AsString(row[model.ColItem])

		price, ok := model.AsFloat(row[model.ColPricePerUnit])
		if !ok {
			row[model.ColPricePerUnit] = nil
			menuPrice, inMenu := s.menu.Price(item)
			if !inMenu {
				continue
			}
			row[model.ColPricePerUnit] = menuPrice
			filled++
			log.AddPriceFill(item, menuPrice)
			log.Record(model.RepairOperation{
				ColumnName:    model.ColPricePerUnit,
				RowIdentifier: rowID(row),
				OriginalValue: nil,
				NewValue:      strconv.FormatFloat(menuPrice, 'g', -1, 64),
				Operation:     model.OpPriceFill,
				Reason:        "missing_price",
			})
			continue
		}

		row[model.ColPricePerUnit] = price
		menuPrice, inMenu := s.menu.Price(item)
		if !inMenu || price == menuPrice {
			continue
		}
		row[model.ColPricePerUnit] = menuPrice
		log.AddPriceCorrection(item, menuPrice)
		log.Record(model.RepairOperation{
			ColumnName:    model.ColPricePerUnit,
			RowIdentifier: rowID(row),
			OriginalValue: price,
			NewValue:      strconv.FormatFloat(menuPrice, 'g', -1, 64),
			Operation:     model.OpPriceCorrection,
			Reason:        "disagrees_with_menu",
		})
	}
	log.AddImputed(model.ColPricePerUnit, filled, "menu")
	return rows
}

// Stage 6: totalStage unconditionally recomputes total spent as
// quantity * price for every surviving row. The recorded value is never
// trusted. Rows whose price is still null get a null total.
type totalStage struct{}

func (s *totalStage) Name() string { return "total_recomputation" }

func (s *totalStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	for _, row := range rows {
		qty, qtyOK := model.AsFloat(row[model.ColQuantity])
		price, priceOK := model.AsFloat(row[model.ColPricePerUnit])
		if !qtyOK || !priceOK {
			row[model.ColTotalSpent] = nil
			continue
		}
		row[model.ColTotalSpent] = qty * price
	}
	log.TotalsRecomputed = len(rows)
	return rows
}

// Stage 7: categoricalStage fills null payment methods and locations with
// the modal non-null value of the column. Ties break to the value seen
// first; the defaults apply only when a column has no non-null values at
// all.
type categoricalStage struct{}

func (s *categoricalStage) Name() string { return "categorical_fill" }

func (s *categoricalStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	s.fill(rows, log, model.ColPaymentMethod, "Cash")
	s.fill(rows, log, model.ColLocation, "In-store")
	return rows
}

func (s *categoricalStage) fill(rows []model.Row, log *model.RepairLog, col, fallback string) {
	counts := make(map[string]int)
	var order []string
	nulls := 0
	for _, row := range rows {
		v := row[col]
		if v == nil {
			nulls++
			continue
		}
		val := model.AsString(v)
		if counts[val] == 0 {
			order = append(order, val)
		}
		counts[val]++
	}
	if nulls == 0 {
		return
	}

	mode := fallback
	best := 0
	for _, val := range order {
		if counts[val] > best {
			mode = val
			best = counts[val]
		}
	}

	for _, row := range rows {
		if row[col] != nil {
			continue
		}
		row[col] = mode
		log.Record(model.RepairOperation{
			ColumnName:    col,
			RowIdentifier: rowID(row),
			OriginalValue: nil,
			NewValue:      mode,
			Operation:     model.OpCategoricalFill,
			Reason:        "modal_imputation",
		})
	}
	log.AddImputed(col, nulls, mode)
}

// Stage 8: dateStage drops rows without a transaction date, then converts
// the whole column to structured dates. If any surviving date fails to
// parse, the entire column is left as raw text and the run is flagged
// rather than aborted.
type dateStage struct{}

func (s *dateStage) Name() string { return "date_finalization" }

func (s *dateStage) Apply(rows []model.Row, log *model.RepairLog) []model.Row {
	kept := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if row[model.ColTransactionDate] == nil {
			continue
		}
		kept = append(kept, row)
	}
	log.AddRemoved(model.ReasonMissingTransactionDate, len(rows)-len(kept))

	parsed := make([]time.Time, len(kept))
	for i, row := range kept {
		t, ok := model.AsTime(row[model.ColTransactionDate])
		if !ok {
			log.DatesParsed = false
			return kept
		}
		parsed[i] = t
	}
	for i, row := range kept {
		row[model.ColTransactionDate] = parsed[i]
	}
	log.DatesParsed = true
	return kept
}
