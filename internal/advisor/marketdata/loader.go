// internal/advisor/marketdata/loader.go
package marketdata

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"

	apperrors "agrichain/internal/common/errors"
	"agrichain/internal/models"
)

// PriceLoader reads the mandi price history once at startup. Any failure is
// a DATA_LOAD_FAILED error and must stop the process.
type PriceLoader interface {
	Load(ctx context.Context) ([]models.CommodityPriceRecord, error)
}

// AGMARKNET date layouts seen in exports, day first.
var dateLayouts = []string{"02/01/2006", "2/1/2006", "2006-01-02", "02-01-2006", "02-Jan-2006"}

var requiredPriceColumns = []string{"state", "district", "market", "commodity", "arrival_date", "modal_price"}

// ---------- CSV ----------

type CSVLoader struct {
	Path string
}

func (l CSVLoader) Load(_ context.Context) ([]models.CommodityPriceRecord, error) {
	rows, err := readCSV(l.Path)
	if err != nil {
		return nil, apperrors.NewDataLoadFailedError(l.Path, err)
	}
	return parsePriceRows(l.Path, rows)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// ---------- XLSX ----------

type XLSXLoader struct {
	Path  string
	Sheet string // first sheet when empty
}

func (l XLSXLoader) Load(_ context.Context) ([]models.CommodityPriceRecord, error) {
	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		return nil, apperrors.NewDataLoadFailedError(l.Path, err)
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewDataLoadFailedError(l.Path, err)
	}
	return parsePriceRows(l.Path+"#"+sheet, rows)
}

// ---------- PostgreSQL ----------

type PostgresLoader struct {
	DB    *sql.DB
	Table string
}

func (l PostgresLoader) Load(ctx context.Context) ([]models.CommodityPriceRecord, error) {
	source := "postgres:" + l.Table
	query := fmt.Sprintf(
		`SELECT state, district, market, commodity, arrival_date, modal_price, arrivals FROM %s ORDER BY arrival_date`,
		pq.QuoteIdentifier(l.Table),
	)

	rows, err := l.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewDataLoadFailedError(source, err)
	}
	defer rows.Close()

	var out []models.CommodityPriceRecord
	for rows.Next() {
		var (
			rec      models.CommodityPriceRecord
			arrivals sql.NullFloat64
		)
		if err := rows.Scan(&rec.State, &rec.District, &rec.Market, &rec.Commodity, &rec.Date, &rec.Price, &arrivals); err != nil {
			return nil, apperrors.NewDataLoadFailedError(source, err)
		}
		if rec.Price <= 0 {
			return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("non-positive modal price for %s at %s", rec.Commodity, rec.Market))
		}
		if arrivals.Valid {
			v := arrivals.Float64
			rec.Volume = &v
		}
		rec.Date = dateOnly(rec.Date)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataLoadFailedError(source, err)
	}
	if len(out) == 0 {
		return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("no price rows"))
	}
	return out, nil
}

// ---------- shared row parsing ----------

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	h = strings.ToLower(h)
	h = strings.ReplaceAll(h, "_x0020_", "_")
	return strings.Join(strings.Fields(strings.ReplaceAll(h, "_", " ")), "_")
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func parsePriceRows(source string, rows [][]string) ([]models.CommodityPriceRecord, error) {
	if len(rows) < 2 {
		return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("no price rows"))
	}

	idx := headerIndex(rows[0])
	for _, col := range requiredPriceColumns {
		if _, ok := idx[col]; !ok {
			return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("missing column %q", col))
		}
	}
	arrivalsCol, hasArrivals := idx["arrivals"]
	if !hasArrivals {
		arrivalsCol, hasArrivals = idx["arrivals_in_tonnes"]
	}

	out := make([]models.CommodityPriceRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}
		get := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := models.CommodityPriceRecord{
			State:     get("state"),
			District:  get("district"),
			Market:    get("market"),
			Commodity: get("commodity"),
		}
		if rec.Market == "" || rec.Commodity == "" {
			return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("line %d: market and commodity are required", line))
		}

		date, err := parseDate(get("arrival_date"))
		if err != nil {
			return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("line %d: %w", line, err))
		}
		rec.Date = date

		price, err := strconv.ParseFloat(get("modal_price"), 64)
		if err != nil || price <= 0 {
			return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("line %d: invalid modal price %q", line, get("modal_price")))
		}
		rec.Price = price

		if hasArrivals && arrivalsCol < len(row) {
			if raw := strings.TrimSpace(row[arrivalsCol]); raw != "" {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("line %d: invalid arrivals %q", line, raw))
				}
				rec.Volume = &v
			}
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		return nil, apperrors.NewDataLoadFailedError(source, fmt.Errorf("no price rows"))
	}
	return out, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised arrival date %q", raw)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
