package innout

import (
	"github.com/apache/arrow/go/v17/arrow"
)

// ContentType is the wire format of a DataFrame payload.
type ContentType string

const (
	// ContentTypeParquet encodes the table as an in-memory parquet file.
	ContentTypeParquet ContentType = "parquet"
)

// Payload is the data written by an Insertion. It is either a DataFrame or Records.
type Payload interface {
	// readAsDataFrame is sent as the read_data_as_dataframe query parameter.
	readAsDataFrame() bool
}

// DataFrame is a tabular payload.
type DataFrame struct {
	// Table holds the rows to write.
	Table arrow.Table
	// ContentType is the encoding of the table on the wire. It is required;
	// only ContentTypeParquet is supported.
	ContentType ContentType
}

// Records is a payload of structured records, serialized as JSON.
//
// Value can be anything encoding/json accepts, typically a slice of maps or structs.
type Records struct {
	Value any
}

var (
	_ Payload = (*DataFrame)(nil)
	_ Payload = (*Records)(nil)
)

func (*DataFrame) readAsDataFrame() bool { return true }

func (*Records) readAsDataFrame() bool { return false }
