package columnar

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ContentType is stored alongside every Parquet object.
const ContentType = "application/vnd.apache.parquet"

// Encode writes rows as one snappy-compressed Parquet file. The schema comes
// from the parquet struct tags of T.
func Encode[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return nil, fmt.Errorf("write parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads every row of a Parquet file into T.
func Decode[T any](data []byte) ([]T, error) {
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
