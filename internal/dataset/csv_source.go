package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chrisdamba/orderly/internal/models"
)

// CSVSource reads the dataset from a CSV file with a header row. Columns are
// matched by name, unknown columns are ignored and absent ones read as missing.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Load(ctx context.Context) ([]models.RawOrderRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", s.Path, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

func ReadCSV(ctx context.Context, r io.Reader) ([]models.RawOrderRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	var records []models.RawOrderRecord
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		records = append(records, models.RawOrderRecord{
			Distance:           field(ColumnDistance),
			OrderPlacedAt:      field(ColumnOrderPlacedAt),
			Rating:             parseOptional(field(ColumnRating)),
			KPTDurationMinutes: parseOptional(field(ColumnKPTDuration)),
			RiderWaitMinutes:   parseOptional(field(ColumnRiderWaitTime)),
			OrderReadyMarked:   field(ColumnOrderReadyMarked),
			OrderStatus:        field(ColumnOrderStatus),
		})
	}
	return records, nil
}

// parseOptional returns nil for blank or non-numeric cells.
func parseOptional(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// WriteCSV writes records with the dataset header, leaving missing numbers blank.
func WriteCSV(w io.Writer, records []models.RawOrderRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Distance,
			r.OrderPlacedAt,
			formatOptional(r.Rating),
			formatOptional(r.KPTDurationMinutes),
			formatOptional(r.RiderWaitMinutes),
			r.OrderReadyMarked,
			r.OrderStatus,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
