package dataset

import (
	"context"
	"fmt"

	"github.com/chrisdamba/orderly/internal/models"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// ParquetSource reads the dataset from a parquet file written with the
// RawOrderRecord schema.
type ParquetSource struct {
	Path string
}

func NewParquetSource(path string) *ParquetSource {
	return &ParquetSource{Path: path}
}

func (s *ParquetSource) Load(ctx context.Context) ([]models.RawOrderRecord, error) {
	fr, err := local.NewLocalFileReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", s.Path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(models.RawOrderRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create ParquetReader: %w", err)
	}
	defer pr.ReadStop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := make([]models.RawOrderRecord, int(pr.GetNumRows()))
	if len(records) == 0 {
		return nil, nil
	}
	if err := pr.Read(&records); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", s.Path, err)
	}
	return records, nil
}

// WriteParquet stores records at path in the layout ParquetSource reads.
func WriteParquet(path string, records []models.RawOrderRecord) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create local file writer: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(models.RawOrderRecord), 4)
	if err != nil {
		return fmt.Errorf("failed to create ParquetWriter: %w", err)
	}
	for i := range records {
		if err := pw.Write(records[i]); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}
