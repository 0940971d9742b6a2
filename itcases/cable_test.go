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

package itcases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertionCable(t *testing.T) {
	c := NewClient(t)
	defer c.Close()

	ctx := context.Background()
	tbl := NewPostgresTable(t, c)
	schema := makeSchema()

	cable := c.InsertionCable(tbl.Insertion(), schema)
	// immediately flush
	cable.BatchSize = 0
	cable.Start(ctx)

	for i := int64(0); i < 3; i++ {
		rec := makeRecord(schema, i*10, 10)
		require.NoError(t, <-cable.Send(rec))
		rec.Release()
	}
	cable.Close()

	result, err := c.Ingestion(IngestionParams(tbl)).Read(ctx)
	require.NoError(t, err)
	defer result.Release()
	require.NoError(t, result.Err())
	require.Equal(t, int64(30), result.Table.NumRows())
}
