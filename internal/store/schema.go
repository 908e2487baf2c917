package store

import "strings"

// SplitStatements breaks a schema file into individual statements.
func SplitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
