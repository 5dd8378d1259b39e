package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront-checkout/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

var requiredColumns = []string{"sku", "name", "price"}

// CSVImporter reads a product catalog CSV and upserts each row by SKU.
//
// Recognised columns: sku, name, description, price, image, active. Prices
// accept either "8.99" or "8,99". A missing or empty active column means the
// product is sold.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      zerolog.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger zerolog.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger.With().Str("component", "importer").Logger(),
	}
}

// Run parses CSV rows and upserts products. It stops at the first bad row and
// reports how many products were saved before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		saved, err := i.productRepo.Upsert(ctx, p)
		if err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", p.SKU, err)
		}
		i.logger.Debug().Str("sku", saved.SKU).Str("price", saved.Price.StringFixed(2)).Msg("product imported")
		imported++
	}

	i.logger.Info().Int("products", imported).Msg("import finished")
	return imported, nil
}

func parseRow(record []string, index map[string]int) (domain.Product, error) {
	p := domain.Product{
		SKU:         pick(record, index, "sku"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Image:       pick(record, index, "image"),
		Active:      true,
	}
	if p.SKU == "" || p.Name == "" {
		return p, fmt.Errorf("%w: sku and name are required", domain.ErrValidation)
	}

	rawPrice := strings.Replace(pick(record, index, "price"), ",", ".", 1)
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return p, fmt.Errorf("%w: invalid price %q for %s", domain.ErrValidation, rawPrice, p.SKU)
	}
	if price.IsNegative() {
		return p, fmt.Errorf("%w: negative price for %s", domain.ErrValidation, p.SKU)
	}
	p.Price = price.Round(2)

	if raw := pick(record, index, "active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return p, fmt.Errorf("%w: invalid active flag %q for %s", domain.ErrValidation, raw, p.SKU)
		}
		p.Active = active
	}
	return p, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
