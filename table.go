package innout

import (
	"bytes"
)

// Table is a write destination: a table (or calendar, sheet, ...) reachable
// through one of the service's connectors.
type Table struct {
	c *Client

	// Table is the name of the table.
	Table string
	// DatabaseType selects the connector on the service side, e.g., "pg" or
	// "google_calendar".
	DatabaseType string
	// DatabaseName is the name of the database.
	//
	// This is optional and may be empty.
	DatabaseName string
	// DatasetName is the name of the dataset, for connectors that group
	// tables into datasets.
	//
	// This is optional and may be empty.
	DatasetName string

	// Username, Password, Host and Port are passed through to the connector.
	// Empty or zero values are not sent.
	Username string
	Password string
	Host     string
	Port     int
}

// Table creates a new Table with the given name and connector type.
func (c *Client) Table(tableName, databaseType string) *Table {
	return &Table{
		c:            c,
		Table:        tableName,
		DatabaseType: databaseType,
	}
}

// Identifier returns a human-readable name of the destination for logging,
// like "pg:postgres.public_data".
func (t *Table) Identifier() string {
	var b bytes.Buffer
	b.WriteString(t.DatabaseType)
	b.WriteByte(':')
	if t.DatabaseName != "" {
		b.WriteString(t.DatabaseName)
		b.WriteByte('.')
	}
	if t.DatasetName != "" {
		b.WriteString(t.DatasetName)
		b.WriteByte('.')
	}
	b.WriteString(t.Table)
	return b.String()
}
