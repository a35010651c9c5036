// pkg/model/menu.go
package model

// PriceTable is the immutable item -> canonical unit price reference used to
// infer missing items and to correct prices. It keeps an explicit item order
// so reverse lookups are deterministic: when two items share a price, the
// first item in table order wins.
type PriceTable struct {
	items  []string
	prices map[string]float64
}

// NewPriceTable builds a table from item/price pairs in the given order.
// Duplicate items keep the first price seen.
func NewPriceTable(items []string, prices map[string]float64) *PriceTable {
	t := &PriceTable{
		items:  make([]string, 0, len(items)),
		prices: make(map[string]float64, len(items)),
	}
	for _, item := range items {
		if _, ok := t.prices[item]; ok {
			continue
		}
		price, ok := prices[item]
		if !ok {
			continue
		}
		t.items = append(t.items, item)
		t.prices[item] = price
	}
	return t
}

// DefaultMenu returns the canonical cafe menu price table.
func DefaultMenu() *PriceTable {
	return NewPriceTable(
		[]string{"Coffee", "Tea", "Sandwich", "Salad", "Cake", "Cookie", "Smoothie", "Juice"},
		map[string]float64{
			"Coffee":   2.0,
			"Tea":      1.5,
			"Sandwich": 4.0,
			"Salad":    5.0,
			"Cake":     3.0,
			"Cookie":   1.0,
			"Smoothie": 4.0,
			"Juice":    3.0,
		},
	)
}

// Items returns the item names in table order. The slice is a copy.
func (t *PriceTable) Items() []string {
	out := make([]string, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of entries.
func (t *PriceTable) Len() int {
	return len(t.items)
}

// Price returns the canonical unit price for an item.
func (t *PriceTable) Price(item string) (float64, bool) {
	price, ok := t.prices[item]
	return price, ok
}

// ItemFor reverse-looks-up an item by exact price match. When several items
// share the price the first one in table order is returned.
func (t *PriceTable) ItemFor(price float64) (string, bool) {
	for _, item := range t.items {
		if t.prices[item] == price {
			return item, true
		}
	}
	return "", false
}
