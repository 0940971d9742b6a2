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

/*
Package innout provides a lightweight client for the in-n-out data gateway, which writes data into
and reads data out of databases and third-party services through one HTTP API.

# Client

Use NewClient to create a client. This is the major entrance to construct structs for interacting with in-n-out:

	client := innout.NewClient(&innout.Config{
		Endpoint: "http://<in-n-out-host>:<in-n-out-port>",
	})
	defer client.Close()

	healthy, err := client.HealthCheck(ctx)

LoadConfig reads the endpoint from the IN_N_OUT_URL environment variable (or a .env file).

# Write Data

Describe the destination with a Table, then write an arrow table as parquet, or any
JSON-serializable records:

	tbl := client.Table("events", "pg")
	tbl.DatabaseName = "postgres"
	tbl.Username, tbl.Password = "postgres", "postgres"

	ins := tbl.Insertion()
	ins.OnDataConflict = innout.DataConflictReplace
	resp, err := ins.Write(ctx, &innout.DataFrame{
		Table:       records,
		ContentType: innout.ContentTypeParquet,
	})
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

Use an InsertionCable to batch many small arrow records into fewer uploads.

# Read Data

Create an Ingestion with the connector parameters and read the result as an arrow table:

	in := client.Ingestion(map[string]any{
		"database_type": "pg",
		"table_name":    "events",
	})
	result, err := in.Read(ctx)
	if err != nil {
		return err
	}
	defer result.Release()
	values, err := result.ToValues()
*/
package innout
