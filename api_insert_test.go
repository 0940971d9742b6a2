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

package innout_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gkampitakis/go-snaps/snaps"
	innout "github.com/in-n-out/in-n-out-sdk/go"
	"github.com/stretchr/testify/require"
)

func TestWriteDataFrameRequiresContentType(t *testing.T) {
	srv, requests := newMockServer(t, http.StatusOK, nil)
	c := NewClient(t, srv.URL)

	_, err := c.Insertion(RandomName(t), "pg").Write(context.Background(), &innout.DataFrame{
		Table: makeTable(t, 3),
	})
	require.ErrorIs(t, err, innout.ErrInvalidArgument)
	require.Empty(t, requests)
}

func TestWriteDataFrameUnsupportedContentType(t *testing.T) {
	srv, requests := newMockServer(t, http.StatusOK, nil)
	c := NewClient(t, srv.URL)

	for _, contentType := range []innout.ContentType{"csv", "json", "arrow", "PARQUET"} {
		_, err := c.Insertion(RandomName(t), "pg").Write(context.Background(), &innout.DataFrame{
			Table:       makeTable(t, 3),
			ContentType: contentType,
		})
		require.ErrorIs(t, err, innout.ErrNotImplemented, "content type %s", contentType)
	}
	require.Empty(t, requests)
}

func TestWriteInvalidPayload(t *testing.T) {
	srv, requests := newMockServer(t, http.StatusOK, nil)
	c := NewClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.Insertion(RandomName(t), "pg").Write(ctx, nil)
	require.ErrorIs(t, err, innout.ErrInvalidArgument)

	_, err = c.Insertion(RandomName(t), "pg").Write(ctx, &innout.DataFrame{ContentType: innout.ContentTypeParquet})
	require.ErrorIs(t, err, innout.ErrInvalidArgument)

	_, err = c.Insertion("", "pg").Write(ctx, &innout.Records{Value: []any{}})
	require.ErrorIs(t, err, innout.ErrInvalidArgument)

	require.Empty(t, requests)
}

func TestWriteDataFrame(t *testing.T) {
	srv, requests := newMockServer(t, http.StatusCreated, []byte("inserted"))
	c := NewClient(t, srv.URL)

	tbl := c.Table(RandomName(t), "pg")
	tbl.DatabaseName = "postgres"
	tbl.Username = "postgres"
	tbl.Password = "postgres"
	tbl.Host = "localhost"
	tbl.Port = 5432
	ins := tbl.Insertion()
	ins.OnAssetConflict = innout.AssetConflictFail
	ins.OnDataConflict = innout.DataConflictReplace

	data := makeTable(t, 16)
	resp, err := ins.Write(context.Background(), &innout.DataFrame{
		Table:       data,
		ContentType: innout.ContentTypeParquet,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "inserted", resp.Text)
	require.True(t, resp.OK())
	require.NoError(t, resp.Err())

	req := <-requests
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/insert", req.Path)
	require.Equal(t, "-1", req.Query.Get("limit"))
	require.Equal(t, "True", req.Query.Get("read_data_as_dataframe"))

	form := multipartForm(t, req)
	file, fh := formFile(t, form)
	require.Equal(t, "upload_file", fh.Filename)
	require.Equal(t, "application/octet-stream", fh.Header.Get("Content-Type"))
	requireTableEqual(t, data, decodeParquet(t, file))

	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(form.Value["insertion_params"][0]), &params))
	require.Equal(t, map[string]any{
		"database_name":     "postgres",
		"table_name":        tbl.Table,
		"database_type":     "pg",
		"on_data_conflict":  "replace",
		"on_asset_conflict": "fail",
		"username":          "postgres",
		"password":          "postgres",
		"port":              float64(5432),
		"host":              "localhost",
	}, params)
}

func TestWriteRecords(t *testing.T) {
	srv, requests := newMockServer(t, http.StatusOK, []byte("ok"))
	c := NewClient(t, srv.URL)

	records := make([]map[string]any, 0, 4)
	for i := 0; i < 4; i++ {
		records = append(records, map[string]any{
			"iCalUID": gofakeit.UUID(),
			"summary": gofakeit.Word(),
			"start":   map[string]any{"date": gofakeit.Date().Format("2006-01-02")},
		})
	}

	ins := c.Insertion(gofakeit.Email(), "google_calendar")
	ins.Limit = 10
	ins.OnDataConflict = innout.DataConflictIgnore
	ins.DataConflictProperties = []string{"iCalUID"}
	resp, err := ins.Write(context.Background(), &innout.Records{Value: records})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := <-requests
	require.Equal(t, "10", req.Query.Get("limit"))
	require.Equal(t, "False", req.Query.Get("read_data_as_dataframe"))

	form := multipartForm(t, req)
	file, fh := formFile(t, form)
	require.Equal(t, "application/json", fh.Header.Get("Content-Type"))
	expected, err := json.Marshal(records)
	require.NoError(t, err)
	require.JSONEq(t, string(expected), string(file))

	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(form.Value["insertion_params"][0]), &params))
	require.Equal(t, []any{"iCalUID"}, params["data_conflict_properties"])
	require.Equal(t, "ignore", params["on_data_conflict"])
}

func TestWriteOmitsUnsetParams(t *testing.T) {
	srv, requests := newMockServer(t, http.StatusOK, nil)
	c := NewClient(t, srv.URL)

	_, err := c.Insertion("events", "pg").Write(context.Background(), &innout.Records{Value: []any{}})
	require.NoError(t, err)

	form := multipartForm(t, <-requests)
	params := form.Value["insertion_params"][0]

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(params), &decoded))
	for _, key := range []string{
		"database_name", "dataset_name", "username", "password",
		"host", "port", "data_conflict_properties",
	} {
		require.NotContains(t, decoded, key)
	}
	require.NotContains(t, params, "null")
	snaps.MatchSnapshot(t, params)
}

func TestWriteRemoteError(t *testing.T) {
	srv, _ := newMockServer(t, http.StatusConflict, []byte(`{"detail":"table exists"}`))
	c := NewClient(t, srv.URL)

	ins := c.Insertion(RandomName(t), "pg")
	ins.OnAssetConflict = innout.AssetConflictFail
	resp, err := ins.Write(context.Background(), &innout.Records{Value: []any{map[string]int{"a": 1}}})
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, `{"detail":"table exists"}`, resp.Text)
	require.False(t, resp.OK())

	var remote *innout.RemoteError
	require.True(t, errors.As(resp.Err(), &remote))
	require.Equal(t, http.StatusConflict, remote.StatusCode)
}

func TestWriteConnectionRefused(t *testing.T) {
	c := NewClient(t, closedEndpoint())

	resp, err := c.Insertion(RandomName(t), "pg").Write(context.Background(), &innout.DataFrame{
		Table:       makeTable(t, 1),
		ContentType: innout.ContentTypeParquet,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Contains(t, resp.Text, "Failed to connect to API. Is API healthy? Full details:")
	require.Contains(t, resp.Text, "connection refused")
}

func TestWriteCancelled(t *testing.T) {
	c := NewClient(t, closedEndpoint())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Insertion(RandomName(t), "pg").Write(ctx, &innout.Records{Value: []any{}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteConnectionDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	t.Cleanup(srv.Close)
	c := NewClient(t, srv.URL)

	resp, err := c.Insertion(RandomName(t), "pg").Write(context.Background(), &innout.DataFrame{
		Table:       makeTable(t, 1),
		ContentType: innout.ContentTypeParquet,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Contains(t, resp.Text, "Failed to connect to API. Is API healthy? Full details:")
}

func TestWriteEmptyConflictProperties(t *testing.T) {
	srv, requests := newMockServer(t, http.StatusOK, nil)
	c := NewClient(t, srv.URL)

	ins := c.Insertion("events", "pg")
	ins.DataConflictProperties = []string{}
	_, err := ins.Write(context.Background(), &innout.Records{Value: []any{}})
	require.NoError(t, err)

	var params map[string]any
	form := multipartForm(t, <-requests)
	require.NoError(t, json.Unmarshal([]byte(form.Value["insertion_params"][0]), &params))
	require.Contains(t, params, "data_conflict_properties")
	require.Equal(t, []any{}, params["data_conflict_properties"])
}
