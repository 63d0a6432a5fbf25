package oramcp

import "fmt"

// Guidance returned by the oracle_query_assistant tool. Static text,
// no database access.
const selectGuidance = `How to query this Oracle database safely:

1. Explore first. Call list_tables to see what tables exist, then
   describe_table to learn a table's columns and types before writing
   a SELECT against it.

2. Only SELECT statements are accepted. DML (INSERT, UPDATE, DELETE,
   MERGE), DDL (CREATE, ALTER, DROP, TRUNCATE), and transaction
   control (COMMIT, ROLLBACK, SAVEPOINT) are rejected before reaching
   the database. Submit exactly one statement; a trailing semicolon is
   fine.

3. Use bind parameters for every user-derived value. Write :name
   placeholders in the SQL and pass the values in params, e.g.
     query:  SELECT * FROM employees WHERE last_name = :ln
     params: {"ln": "O'Brien"}
   Never splice values into the statement text.

4. Results are bounded. At most max_rows rows are fetched (default 10)
   and the formatted text is capped at max_length characters (default
   1000). Raise them explicitly when you need more, or narrow the
   query with WHERE / FETCH FIRST n ROWS ONLY.

5. Oracle notes: unquoted identifiers are stored uppercase; use the
   DUAL table for expression-only queries (SELECT 1 FROM dual); dates
   render as YYYY-MM-DD HH24:MI:SS.`

// QueryAssistant returns static guidance for composing queries.
// queryType selects the guidance topic; only "select" exists today.
func (p *OracleMcp) QueryAssistant(queryType string) (string, error) {
	switch queryType {
	case "", "select":
		return selectGuidance, nil
	default:
		return "", fmt.Errorf("unknown query_type: %q (supported: select)", queryType)
	}
}
