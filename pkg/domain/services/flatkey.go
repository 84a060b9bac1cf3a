package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/balance/pkg/domain/entities"
)

// KeyReport records how flattened keys were resolved
type KeyReport struct {
	// Skipped holds keys with no underscore; their values are dropped.
	Skipped []string `json:"skipped,omitempty"`
	// Heuristic holds keys that matched no known product/period pair and were
	// split with the underscore heuristic.
	Heuristic []string `json:"heuristic,omitempty"`
	// Ambiguous holds keys with more than one valid product/period split.
	Ambiguous []string `json:"ambiguous,omitempty"`
	// Unmatched holds keys whose split names a product or period outside the
	// given lists; their values are dropped.
	Unmatched []string `json:"unmatched,omitempty"`
}

// SkippedCount returns the number of keys without an underscore
func (r KeyReport) SkippedCount() int {
	return len(r.Skipped)
}

// Empty reports whether every key resolved to a single known pair
func (r KeyReport) Empty() bool {
	return len(r.Skipped) == 0 && len(r.Heuristic) == 0 && len(r.Ambiguous) == 0 && len(r.Unmatched) == 0
}

// Merge appends another report's entries
func (r *KeyReport) Merge(other KeyReport) {
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Heuristic = append(r.Heuristic, other.Heuristic...)
	r.Ambiguous = append(r.Ambiguous, other.Ambiguous...)
	r.Unmatched = append(r.Unmatched, other.Unmatched...)
}

// KeyResolution is how a single flattened key was split
type KeyResolution int

const (
	KeySkipped KeyResolution = iota
	KeyMatched
	KeyAmbiguous
	KeyHeuristic
)

func (r KeyResolution) String() string {
	switch r {
	case KeySkipped:
		return "skipped"
	case KeyMatched:
		return "matched"
	case KeyAmbiguous:
		return "ambiguous"
	case KeyHeuristic:
		return "heuristic"
	default:
		return "unknown"
	}
}

// KeyIndex holds the known identifiers used to confirm candidate splits
type KeyIndex struct {
	products map[entities.ProductID]bool
	periods  map[entities.PeriodID]bool
}

// NewKeyIndex builds an index over known products and periods. With either
// list empty, every key falls through to the heuristic.
func NewKeyIndex(products []entities.ProductID, periods []entities.PeriodID) *KeyIndex {
	idx := &KeyIndex{
		products: make(map[entities.ProductID]bool, len(products)),
		periods:  make(map[entities.PeriodID]bool, len(periods)),
	}
	for _, p := range products {
		idx.products[p] = true
	}
	for _, t := range periods {
		idx.periods[t] = true
	}
	return idx
}

// ParseFlatKey splits a "<product>_<period>" key.
//
// Every underscore position is tried from the left; the first split naming a
// known product and a known period wins. When none does, the key is split the
// established way: the product is the text before the first underscore joined
// to the next segment, and the period is whatever follows that segment (or the
// segment itself when nothing follows). Keys without an underscore are skipped.
func (idx *KeyIndex) ParseFlatKey(key string) (entities.ProductPeriod, KeyResolution) {
	if !strings.Contains(key, "_") {
		return entities.ProductPeriod{}, KeySkipped
	}

	var (
		match   entities.ProductPeriod
		matches int
	)
	if len(idx.products) > 0 && len(idx.periods) > 0 {
		for i := 0; i < len(key); i++ {
			if key[i] != '_' {
				continue
			}
			product, period := entities.ProductID(key[:i]), entities.PeriodID(key[i+1:])
			if idx.products[product] && idx.periods[period] {
				if matches == 0 {
					match = entities.ProductPeriod{Product: product, Period: period}
				}
				matches++
			}
		}
	}
	switch {
	case matches == 1:
		return match, KeyMatched
	case matches > 1:
		return match, KeyAmbiguous
	}

	head, rest, _ := strings.Cut(key, "_")
	segment, tail, found := strings.Cut(rest, "_")
	period := rest
	if found {
		period = tail
	}
	return entities.ProductPeriod{
		Product: entities.ProductID(head + "_" + segment),
		Period:  entities.PeriodID(period),
	}, KeyHeuristic
}

// Admits reports whether pair fits the index. An empty list admits anything.
func (idx *KeyIndex) Admits(pair entities.ProductPeriod) bool {
	if len(idx.products) > 0 && !idx.products[pair.Product] {
		return false
	}
	if len(idx.periods) > 0 && !idx.periods[pair.Period] {
		return false
	}
	return true
}

// UnflattenKeys rebuilds a (product, period) table from flattened keys. Keys
// are processed in sorted order so reports are stable; when two keys resolve to
// the same pair the later key wins. Heuristic splits naming a product or period
// outside a non-empty list are reported as unmatched and left out of the table.
func UnflattenKeys(flat map[string]float64, products []entities.ProductID, periods []entities.PeriodID) (entities.PeriodTable, KeyReport) {
	idx := NewKeyIndex(products, periods)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := make(entities.PeriodTable, len(flat))
	var report KeyReport
	for _, key := range keys {
		pair, resolution := idx.ParseFlatKey(key)
		switch resolution {
		case KeySkipped:
			report.Skipped = append(report.Skipped, key)
			continue
		case KeyAmbiguous:
			report.Ambiguous = append(report.Ambiguous, key)
		case KeyHeuristic:
			if !idx.Admits(pair) {
				report.Unmatched = append(report.Unmatched, key)
				continue
			}
			report.Heuristic = append(report.Heuristic, key)
		}
		table[pair] = flat[key]
	}
	return table, report
}

// FlattenKeys encodes a table with "<product>_<period>" keys
func FlattenKeys(table entities.PeriodTable) map[string]float64 {
	flat := make(map[string]float64, len(table))
	for k, v := range table {
		flat[FlatKey(k)] = v
	}
	return flat
}

// FlatKey encodes a single pair
func FlatKey(k entities.ProductPeriod) string {
	return fmt.Sprintf("%s_%s", k.Product, k.Period)
}
