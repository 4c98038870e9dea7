// ABOUTME: SQL statements for the SQLite favicon cache
// ABOUTME: Renders every query against a validated table name with positional parameters only

package sqlite

import (
	"fmt"
	"regexp"
)

// DefaultTable is used when Options.Table is empty
const DefaultTable = "favicon_cache"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,63}$`)

// statements holds the rendered SQL for one cache table. Keys, values and
// timestamps always travel as parameters; only the table name is spliced in.
type statements struct {
	schema       string
	get          string
	set          string
	delete       string
	clear        string
	cleanup      string
	count        string
	countExpired string
}

func newStatements(table string) (*statements, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q: want letters, digits and underscores, at most 64 characters", table)
	}

	return &statements{
		schema: fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				key TEXT PRIMARY KEY,
				value BLOB NOT NULL,
				expiry INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_%[1]s_expiry ON %[1]s(expiry);`, table),
		get:          fmt.Sprintf("SELECT value FROM %s WHERE key = ? AND expiry > ?", table),
		set:          fmt.Sprintf("INSERT OR REPLACE INTO %s (key, value, expiry) VALUES (?, ?, ?)", table),
		delete:       fmt.Sprintf("DELETE FROM %s WHERE key = ?", table),
		clear:        fmt.Sprintf("DELETE FROM %s", table),
		cleanup:      fmt.Sprintf("DELETE FROM %s WHERE expiry <= ?", table),
		count:        fmt.Sprintf("SELECT COUNT(*) FROM %s", table),
		countExpired: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE expiry <= ?", table),
	}, nil
}
