package innout

import (
	"bytes"
	"context"
	"errors"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

// encodeParquet encodes the given table into an in-memory parquet file.
func encodeParquet(tbl arrow.Table) ([]byte, error) {
	if tbl == nil {
		return nil, errors.New("cannot encode nil table")
	}

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithAllocator(memory.DefaultAllocator))
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	if err := pqarrow.WriteTable(tbl, &buf, parquet.DefaultMaxRowGroupLen, props, arrProps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeParquet decodes the given parquet file into a table.
//
// The caller owns the returned table and must release it.
func decodeParquet(ctx context.Context, data []byte) (arrow.Table, error) {
	mem := memory.DefaultAllocator
	return pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
}
