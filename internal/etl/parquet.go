package etl

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

// CaptureRow is one captured invocation, flattened for Athena. Column names
// match the Glue table declared in captureColumns.
type CaptureRow struct {
	EventID       string  `parquet:"name=event_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	InferenceID   string  `parquet:"name=inference_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	InferenceTime string  `parquet:"name=inference_time, type=BYTE_ARRAY, convertedtype=UTF8"`
	EndpointName  string  `parquet:"name=endpoint_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	VariantName   string  `parquet:"name=variant_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	InputCSV      string  `parquet:"name=input_csv, type=BYTE_ARRAY, convertedtype=UTF8"`
	OutputRaw     string  `parquet:"name=output_raw, type=BYTE_ARRAY, convertedtype=UTF8"`
	Rings         int64   `parquet:"name=rings, type=INT64"`
	AgeYears      float64 `parquet:"name=age_years, type=DOUBLE"`
}

// WriteParquet writes rows to a local file.
func WriteParquet(path string, rows []CaptureRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("parquet file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(CaptureRow), 1)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = 0 // uncompressed

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return fmt.Errorf("parquet write row %s: %w", row.EventID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet write stop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}
	return nil
}

// encodeParquet renders rows through a scratch file in the temp dir, which is
// the only writable path inside Lambda.
func encodeParquet(rows []CaptureRow) ([]byte, error) {
	path := filepath.Join(os.TempDir(), "capture_"+randHex(8)+".parquet")
	defer func() { _ = os.Remove(path) }()

	if err := WriteParquet(path, rows); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parquet tmp: %w", err)
	}
	return data, nil
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
