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
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
)

// NoLimit disables the row cap of an Insertion or Ingestion.
const NoLimit = -1

// AssetConflict is the policy applied when the target table already exists.
type AssetConflict string

const (
	// AssetConflictAppend writes into the existing table.
	AssetConflictAppend AssetConflict = "append"
	// AssetConflictFail rejects the write if the table exists.
	AssetConflictFail AssetConflict = "fail"
)

// DataConflict is the policy applied when a row conflicts with an existing one,
// as determined by DataConflictProperties.
type DataConflict string

const (
	// DataConflictAppend writes the row regardless.
	DataConflictAppend DataConflict = "append"
	// DataConflictFail rejects the write.
	DataConflictFail DataConflict = "fail"
	// DataConflictIgnore skips the conflicting row.
	DataConflictIgnore DataConflict = "ignore"
	// DataConflictReplace overwrites the existing row.
	DataConflictReplace DataConflict = "replace"
)

const uploadFileName = "upload_file"

// insertionParams is the JSON document sent as the insertion_params form field.
// Unset values are omitted rather than sent as null.
type insertionParams struct {
	DatabaseName           string        `json:"database_name,omitempty"`
	TableName              string        `json:"table_name"`
	DatabaseType           string        `json:"database_type"`
	OnDataConflict         DataConflict  `json:"on_data_conflict,omitempty"`
	OnAssetConflict        AssetConflict `json:"on_asset_conflict,omitempty"`
	Username               string        `json:"username,omitempty"`
	Password               string        `json:"password,omitempty"`
	Port                   int           `json:"port,omitempty"`
	Host                   string        `json:"host,omitempty"`
	DatasetName            string        `json:"dataset_name,omitempty"`
	DataConflictProperties *[]string     `json:"data_conflict_properties,omitempty"`
}

// Insertion writes data into a Table through the /insert endpoint.
type Insertion struct {
	c     *Client
	table *Table

	// Limit caps the number of rows written. NoLimit by default.
	Limit int
	// OnAssetConflict is AssetConflictAppend by default.
	OnAssetConflict AssetConflict
	// OnDataConflict is DataConflictFail by default.
	OnDataConflict DataConflict
	// DataConflictProperties lists the fields that identify a row when
	// detecting data conflicts.
	//
	// This is optional and may be nil, in which case it is not sent. An empty,
	// non-nil slice is sent as [].
	DataConflictProperties []string
}

// Insertion creates a new Insertion into this table.
func (t *Table) Insertion() *Insertion {
	return &Insertion{
		c:               t.c,
		table:           t,
		Limit:           NoLimit,
		OnAssetConflict: AssetConflictAppend,
		OnDataConflict:  DataConflictFail,
	}
}

// Insertion is a shortcut for c.Table(tableName, databaseType).Insertion().
func (c *Client) Insertion(tableName, databaseType string) *Insertion {
	return c.Table(tableName, databaseType).Insertion()
}

// Table returns the destination of this insertion.
func (i *Insertion) Table() *Table {
	return i.table
}

// Write sends the payload to the service.
//
// Argument errors (ErrInvalidArgument, ErrNotImplemented) are returned before
// any request is made. If the service cannot be reached, Write returns a
// Response with status 503 and a message carrying the underlying error, and a
// nil error. Otherwise the service's answer is returned as is, whatever its
// status; use Response.Err to turn a non-2xx answer into an error.
func (i *Insertion) Write(ctx context.Context, data Payload) (*Response, error) {
	if i.table.Table == "" || i.table.DatabaseType == "" {
		return nil, fmt.Errorf("%w: table name and database type are required", ErrInvalidArgument)
	}

	file, err := encodePayload(data)
	if err != nil {
		return nil, err
	}

	body, contentType, err := i.multipartBody(file)
	if err != nil {
		return nil, err
	}

	u, err := i.c.endpoint("/insert")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Add("limit", strconv.Itoa(i.Limit))
	q.Add("read_data_as_dataframe", formatBool(data.readAsDataFrame()))
	u.RawQuery = q.Encode()

	i.c.logger.Debug("writing data",
		"table", i.table.Identifier(),
		"content_type", file.contentType,
		"bytes", len(file.body))

	header := http.Header{}
	header.Set("Content-Type", contentType)
	resp, err := i.c.http.Post(ctx, u, header, body)
	if err != nil {
		if ctx.Err() == nil && isConnectionError(err) {
			i.c.logger.Warn("failed to connect to in-n-out", "table", i.table.Identifier(), "error", err)
			return &Response{
				Text:       fmt.Sprintf("Failed to connect to API. Is API healthy? Full details: %v", err),
				StatusCode: http.StatusServiceUnavailable,
			}, nil
		}
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{Text: string(text), StatusCode: resp.StatusCode}, nil
}

func (i *Insertion) params() *insertionParams {
	t := i.table
	var conflictProperties *[]string
	if i.DataConflictProperties != nil {
		props := i.DataConflictProperties
		conflictProperties = &props
	}
	return &insertionParams{
		DatabaseName:           t.DatabaseName,
		TableName:              t.Table,
		DatabaseType:           t.DatabaseType,
		OnDataConflict:         i.OnDataConflict,
		OnAssetConflict:        i.OnAssetConflict,
		Username:               t.Username,
		Password:               t.Password,
		Port:                   t.Port,
		Host:                   t.Host,
		DatasetName:            t.DatasetName,
		DataConflictProperties: conflictProperties,
	}
}

type filePart struct {
	contentType string
	body        []byte
}

func encodePayload(data Payload) (*filePart, error) {
	switch p := data.(type) {
	case *DataFrame:
		if p == nil {
			return nil, fmt.Errorf("%w: nil data frame", ErrInvalidArgument)
		}
		return encodeDataFrame(p)
	case *Records:
		if p == nil {
			return nil, fmt.Errorf("%w: nil records", ErrInvalidArgument)
		}
		body, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		return &filePart{contentType: "application/json", body: body}, nil
	case nil:
		return nil, fmt.Errorf("%w: nil payload", ErrInvalidArgument)
	default:
		return nil, fmt.Errorf("%w: unsupported payload %T", ErrInvalidArgument, data)
	}
}

func encodeDataFrame(df *DataFrame) (*filePart, error) {
	switch df.ContentType {
	case "":
		return nil, fmt.Errorf("%w: a data frame requires a content type", ErrInvalidArgument)
	case ContentTypeParquet:
		if df.Table == nil {
			return nil, fmt.Errorf("%w: nil table", ErrInvalidArgument)
		}
		body, err := encodeParquet(df.Table)
		if err != nil {
			return nil, err
		}
		return &filePart{contentType: "application/octet-stream", body: body}, nil
	default:
		return nil, fmt.Errorf("%w: data frame content type %q, only %q is supported",
			ErrNotImplemented, df.ContentType, ContentTypeParquet)
	}
}

// multipartBody builds the /insert form: the insertion_params field and the file part.
func (i *Insertion) multipartBody(file *filePart) ([]byte, string, error) {
	params, err := json.Marshal(i.params())
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	if err := writer.WriteField("insertion_params", string(params)); err != nil {
		return nil, "", err
	}

	mh := make(textproto.MIMEHeader)
	mh.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, uploadFileName))
	mh.Set("Content-Type", file.contentType)
	part, err := writer.CreatePart(mh)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.body); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// formatBool spells booleans the way the service parses its query parameters.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
