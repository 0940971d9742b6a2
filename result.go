/*
 * Copyright 2024 The in-n-out Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package innout

import (
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// Response is the answer of the service to a write.
type Response struct {
	// Text is the response body.
	Text string
	// StatusCode is the HTTP status code.
	StatusCode int
}

// OK returns true if the status code is 2xx.
func (r *Response) OK() bool {
	return isStatusCodeValid(r.StatusCode)
}

// Err returns a *RemoteError if the status code is not 2xx, nil otherwise.
func (r *Response) Err() error {
	return checkStatusCode(r.StatusCode, r.Text)
}

// Value stores the contents of a single cell of a read result.
type Value any

// ReadResult is the answer of the service to a read.
type ReadResult struct {
	// Table holds the decoded rows. It is nil unless the status code is 2xx.
	Table arrow.Table
	// Text is the response body when the status code is not 2xx.
	Text string
	// StatusCode is the HTTP status code.
	StatusCode int
}

// OK returns true if the status code is 2xx.
func (r *ReadResult) OK() bool {
	return isStatusCodeValid(r.StatusCode)
}

// Err returns a *RemoteError if the status code is not 2xx, nil otherwise.
func (r *ReadResult) Err() error {
	return checkStatusCode(r.StatusCode, r.Text)
}

// Release releases the table, if any.
func (r *ReadResult) Release() {
	if r.Table != nil {
		r.Table.Release()
	}
}

// ToValues reads the table and returns the rows as a 2D array of values,
// i.e., rows of value lists. Nulls are returned as nil.
func (r *ReadResult) ToValues() ([][]Value, error) {
	if r.Table == nil {
		return nil, errors.New("result has no table")
	}

	rows := make([][]Value, 0, r.Table.NumRows())
	if r.Table.NumRows() == 0 {
		return rows, nil
	}

	tr := array.NewTableReader(r.Table, r.Table.NumRows())
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			values := make([]Value, 0, rec.NumCols())
			for _, col := range rec.Columns() {
				v, err := cellValue(col, row)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			rows = append(rows, values)
		}
	}
	return rows, nil
}

func cellValue(col arrow.Array, row int) (Value, error) {
	if col.IsNull(row) {
		return nil, nil
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(row), nil
	case *array.LargeString:
		return a.Value(row), nil
	case *array.Binary:
		return a.Value(row), nil
	case *array.Boolean:
		return a.Value(row), nil
	case *array.Int8:
		return int64(a.Value(row)), nil
	case *array.Int16:
		return int64(a.Value(row)), nil
	case *array.Int32:
		return int64(a.Value(row)), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Uint8:
		return uint64(a.Value(row)), nil
	case *array.Uint16:
		return uint64(a.Value(row)), nil
	case *array.Uint32:
		return uint64(a.Value(row)), nil
	case *array.Uint64:
		return a.Value(row), nil
	case *array.Float32:
		return float64(a.Value(row)), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(row).ToTime(unit), nil
	case *array.Date32:
		return a.Value(row).ToTime(), nil
	case *array.Date64:
		return a.Value(row).ToTime(), nil
	default:
		return nil, fmt.Errorf("unsupported column type: %s", col.DataType())
	}
}
