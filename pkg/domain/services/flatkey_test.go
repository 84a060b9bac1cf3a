package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/vsinha/balance/pkg/domain/entities"
)

func TestParseFlatKey(t *testing.T) {
	idx := NewKeyIndex(
		[]entities.ProductID{"Product_A", "X", "Raw_Steel_Bar"},
		[]entities.PeriodID{"Jan", "T1", "2025_Q1"},
	)

	tests := []struct {
		name        string
		key         string
		wantProduct entities.ProductID
		wantPeriod  entities.PeriodID
		want        KeyResolution
	}{
		{name: "listed_single_underscore_product", key: "Product_A_Jan", wantProduct: "Product_A", wantPeriod: "Jan", want: KeyMatched},
		{name: "listed_plain_product", key: "X_T1", wantProduct: "X", wantPeriod: "T1", want: KeyMatched},
		{name: "listed_underscores_on_both_sides", key: "Raw_Steel_Bar_2025_Q1", wantProduct: "Raw_Steel_Bar", wantPeriod: "2025_Q1", want: KeyMatched},
		{name: "unlisted_falls_back_to_heuristic", key: "Gadget_B_Feb", wantProduct: "Gadget_B", wantPeriod: "Feb", want: KeyHeuristic},
		{name: "heuristic_single_underscore", key: "Y_T2", wantProduct: "Y_T2", wantPeriod: "T2", want: KeyHeuristic},
		{name: "heuristic_misparses_deep_names", key: "Raw_Steel_Bar_2026_Q1", wantProduct: "Raw_Steel", wantPeriod: "Bar_2026_Q1", want: KeyHeuristic},
		{name: "no_underscore_is_skipped", key: "ProductAJan", want: KeySkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, resolution := idx.ParseFlatKey(tt.key)
			assert.Equal(t, tt.want, resolution)
			if tt.want == KeySkipped {
				return
			}
			assert.Equal(t, tt.wantProduct, pair.Product)
			assert.Equal(t, tt.wantPeriod, pair.Period)
		})
	}
}

func TestParseFlatKey_AmbiguousSplitTakesLeftmost(t *testing.T) {
	idx := NewKeyIndex(
		[]entities.ProductID{"A", "A_B"},
		[]entities.PeriodID{"B_C", "C"},
	)

	pair, resolution := idx.ParseFlatKey("A_B_C")
	assert.Equal(t, KeyAmbiguous, resolution)
	assert.Equal(t, entities.ProductPeriod{Product: "A", Period: "B_C"}, pair)
}

func TestUnflattenKeys_ReportsSkippedAndUnmatchedKeys(t *testing.T) {
	flat := map[string]float64{
		"Product_A_Jan": 250,
		"Product_A_Feb": 300,
		"JanTotal":      999,
		"Other_B_Mar":   5,
	}

	table, report := UnflattenKeys(flat,
		[]entities.ProductID{"Product_A"},
		[]entities.PeriodID{"Jan", "Feb"})

	want := entities.PeriodTable{
		{Product: "Product_A", Period: "Jan"}: 250,
		{Product: "Product_A", Period: "Feb"}: 300,
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("UnflattenKeys() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"JanTotal"}, report.Skipped)
	assert.Equal(t, 1, report.SkippedCount())
	assert.Equal(t, []string{"Other_B_Mar"}, report.Unmatched)
	assert.Empty(t, report.Heuristic)
	assert.Empty(t, report.Ambiguous)
	assert.False(t, report.Empty())
}

func TestUnflattenKeys_UnknownProductDropped(t *testing.T) {
	table, report := UnflattenKeys(
		map[string]float64{"Product_A_Jan": 100, "Product_C_Jan": 5},
		[]entities.ProductID{"Product_A"},
		[]entities.PeriodID{"Jan"})

	assert.Equal(t, entities.PeriodTable{{Product: "Product_A", Period: "Jan"}: 100}, table)
	assert.Equal(t, []string{"Product_C_Jan"}, report.Unmatched)
	assert.Zero(t, report.SkippedCount())
}

func TestUnflattenKeys_PartialListsFilterHeuristicSplits(t *testing.T) {
	flat := map[string]float64{"Widget_A_Jan": 1, "Gadget_B_Jan": 2}

	t.Run("products_only", func(t *testing.T) {
		table, report := UnflattenKeys(flat, []entities.ProductID{"Widget_A"}, nil)
		assert.Equal(t, entities.PeriodTable{{Product: "Widget_A", Period: "Jan"}: 1}, table)
		assert.Equal(t, []string{"Widget_A_Jan"}, report.Heuristic)
		assert.Equal(t, []string{"Gadget_B_Jan"}, report.Unmatched)
	})

	t.Run("no_lists", func(t *testing.T) {
		table, report := UnflattenKeys(flat, nil, nil)
		assert.Len(t, table, 2)
		assert.Equal(t, []string{"Gadget_B_Jan", "Widget_A_Jan"}, report.Heuristic)
		assert.Empty(t, report.Unmatched)
	})
}

func TestKeyIndex_Admits(t *testing.T) {
	idx := NewKeyIndex([]entities.ProductID{"A"}, []entities.PeriodID{"Jan"})
	assert.True(t, idx.Admits(entities.ProductPeriod{Product: "A", Period: "Jan"}))
	assert.False(t, idx.Admits(entities.ProductPeriod{Product: "B", Period: "Jan"}))
	assert.False(t, idx.Admits(entities.ProductPeriod{Product: "A", Period: "Feb"}))
	assert.True(t, NewKeyIndex(nil, nil).Admits(entities.ProductPeriod{Product: "B", Period: "Feb"}))
}

func TestFlattenUnflatten_RoundTrip(t *testing.T) {
	original := entities.PeriodTable{
		{Product: "Widget_A", Period: "Jan"}: 10,
		{Product: "Widget_A", Period: "Feb"}: 20,
		{Product: "Widget_B", Period: "Jan"}: 0,
		{Product: "Widget_B", Period: "Feb"}: 7.25,
	}
	products := []entities.ProductID{"Widget_A", "Widget_B"}
	periods := []entities.PeriodID{"Jan", "Feb"}

	t.Run("with_identifier_lists", func(t *testing.T) {
		got, report := UnflattenKeys(FlattenKeys(original), products, periods)
		if diff := cmp.Diff(original, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
		assert.Empty(t, report.Heuristic)
	})

	t.Run("heuristic_only", func(t *testing.T) {
		got, report := UnflattenKeys(FlattenKeys(original), nil, nil)
		if diff := cmp.Diff(original, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
		assert.Len(t, report.Heuristic, 4)
		assert.Zero(t, report.SkippedCount())
	})
}

func TestKeyReport_Merge(t *testing.T) {
	report := KeyReport{Skipped: []string{"a"}}
	report.Merge(KeyReport{Skipped: []string{"b"}, Heuristic: []string{"c_d"}, Ambiguous: []string{"e_f"}, Unmatched: []string{"g_h"}})

	assert.Equal(t, []string{"a", "b"}, report.Skipped)
	assert.Equal(t, []string{"c_d"}, report.Heuristic)
	assert.Equal(t, []string{"e_f"}, report.Ambiguous)
	assert.Equal(t, []string{"g_h"}, report.Unmatched)
	assert.True(t, KeyReport{}.Empty())
	assert.Equal(t, "X_T1", FlatKey(entities.ProductPeriod{Product: "X", Period: "T1"}))
}
