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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// DefaultChunkSize is the read size used to consume a streamed ingest response.
const DefaultChunkSize = 1048

// Ingestion reads data out of the service through the /ingest endpoint.
type Ingestion struct {
	c *Client

	params any

	// Limit caps the number of rows read. NoLimit by default.
	Limit int
	// Stream reads the response body incrementally in ChunkSize pieces
	// instead of in one go. The result is the same either way.
	Stream bool
	// ChunkSize is the read size when Stream is set. DefaultChunkSize by default.
	ChunkSize int
}

// Ingestion creates a new Ingestion with the given connector parameters.
//
// The parameters are opaque to the client and sent as the JSON request body,
// e.g., a map naming the database type, table and credentials.
func (c *Client) Ingestion(params any) *Ingestion {
	return &Ingestion{
		c:         c,
		params:    params,
		Limit:     NoLimit,
		ChunkSize: DefaultChunkSize,
	}
}

// Read sends the ingestion request and decodes the parquet response.
//
// For a 2xx answer, the ReadResult holds the decoded table, which the caller
// must release. For any other status, it holds the response text and no table.
// Transport failures are returned as errors wrapping ErrConnectionFailure.
func (i *Ingestion) Read(ctx context.Context) (*ReadResult, error) {
	u, err := i.c.endpoint("/ingest")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Add("limit", strconv.Itoa(i.Limit))
	u.RawQuery = q.Encode()

	body, err := json.Marshal(i.params)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/octet-stream")

	i.c.logger.Debug("reading data", "limit", i.Limit, "stream", i.Stream)

	resp, err := i.c.http.Post(ctx, u, header, body)
	if err != nil {
		if ctx.Err() == nil && isConnectionError(err) {
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
		}
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)

	var data []byte
	if i.Stream {
		data, err = readChunked(resp.Body, i.ChunkSize)
	} else {
		data, err = io.ReadAll(resp.Body)
	}
	if err != nil {
		return nil, err
	}

	if !isStatusCodeValid(resp.StatusCode) {
		return &ReadResult{Text: string(data), StatusCode: resp.StatusCode}, nil
	}

	tbl, err := decodeParquet(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("decode parquet response: %w", err)
	}
	i.c.logger.Debug("read data", "rows", tbl.NumRows(), "bytes", len(data))
	return &ReadResult{Table: tbl, StatusCode: resp.StatusCode}, nil
}

// readChunked consumes r in reads of at most chunkSize bytes until EOF.
func readChunked(r io.Reader, chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	for {
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
