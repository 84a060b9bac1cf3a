package csv

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/vsinha/balance/pkg/domain/entities"
	"github.com/vsinha/balance/pkg/domain/services"
)

var (
	pairHeader = []string{"product", "period", "quantity"}
	flatHeader = []string{"key", "quantity"}
)

// Loader handles loading (product, period) tables from CSV files
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a new CSV loader reading from fs
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

// LoadTable loads a per-product, per-period table. Two layouts are accepted:
// "product,period,quantity" rows, and "key,quantity" rows whose keys are
// flattened "<product>_<period>" strings resolved against the known identifiers.
func (l *Loader) LoadTable(filename string, products []entities.ProductID, periods []entities.PeriodID) (entities.PeriodTable, services.KeyReport, error) {
	records, err := l.readRecords(filename)
	if err != nil {
		return nil, services.KeyReport{}, err
	}

	header := records[0]
	switch {
	case validateHeader(header, pairHeader):
		table, err := parsePairRows(filename, records[1:])
		return table, services.KeyReport{}, err
	case validateHeader(header, flatHeader):
		flat, err := parseFlatRows(filename, records[1:])
		if err != nil {
			return nil, services.KeyReport{}, err
		}
		table, report := services.UnflattenKeys(flat, products, periods)
		return table, report, nil
	default:
		return nil, services.KeyReport{}, fmt.Errorf("%s header mismatch. Expected: %v or %v, Got: %v", filename, pairHeader, flatHeader, header)
	}
}

func (l *Loader) readRecords(filename string) ([][]string, error) {
	file, err := l.fs.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filename)
	}
	return records, nil
}

func parsePairRows(filename string, rows [][]string) (entities.PeriodTable, error) {
	table := make(entities.PeriodTable, len(rows))
	for i, record := range rows {
		if len(record) != len(pairHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(pairHeader), len(record))
		}

		product := strings.TrimSpace(record[0])
		period := strings.TrimSpace(record[1])
		if product == "" || period == "" {
			return nil, fmt.Errorf("%s row %d: product and period cannot be empty", filename, i+2)
		}
		qty, err := parseQuantity(record[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", filename, i+2, err)
		}

		key := entities.ProductPeriod{Product: entities.ProductID(product), Period: entities.PeriodID(period)}
		if _, dup := table[key]; dup {
			return nil, fmt.Errorf("%s row %d: duplicate entry for %s", filename, i+2, key)
		}
		table[key] = qty
	}
	return table, nil
}

func parseFlatRows(filename string, rows [][]string) (map[string]float64, error) {
	flat := make(map[string]float64, len(rows))
	for i, record := range rows {
		if len(record) != len(flatHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(flatHeader), len(record))
		}
		qty, err := parseQuantity(record[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", filename, i+2, err)
		}
		flat[strings.TrimSpace(record[0])] = qty
	}
	return flat, nil
}

// Helper functions for parsing CSV records

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseQuantity(s string) (float64, error) {
	qty, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return qty, nil
}
