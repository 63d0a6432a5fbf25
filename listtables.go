package oramcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/bind"
	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/format"
)

const defaultListTablesRows = 50

// Oracle-maintained schemas excluded from all_objects listings unless
// include_system_tables is set.
var systemSchemas = []string{
	"SYS", "SYSTEM", "OUTLN", "XDB", "CTXSYS", "MDSYS", "ORDSYS",
	"ORDDATA", "DBSNMP", "APPQOSSYS", "AUDSYS", "GSMADMIN_INTERNAL",
	"WMSYS", "LBACSYS", "OLAPSYS", "DVSYS", "OJVMSYS",
}

// buildListTablesSQL assembles the catalog query from fixed fragments.
// User-supplied values (name pattern, owner) only ever travel as bind
// parameters; nothing from the request is spliced into the statement
// text. Returns the SQL and the named bind values it expects.
func buildListTablesSQL(input ListTablesInput) (string, map[string]any, error) {
	params := map[string]any{}
	var b strings.Builder

	if input.UseAllTables {
		if input.Owner == "" {
			return "", nil, fmt.Errorf("owner is required when use_all_tables is set")
		}
		if !identRe.MatchString(input.Owner) {
			return "", nil, fmt.Errorf("invalid owner: %q", input.Owner)
		}
		b.WriteString("SELECT owner, object_name AS table_name, created, status\n")
		b.WriteString("FROM all_objects\n")
		b.WriteString("WHERE object_type = 'TABLE'\n")
		b.WriteString("  AND owner = :owner\n")
		params["owner"] = strings.ToUpper(input.Owner)
		if !input.IncludeSystemTables {
			b.WriteString("  AND owner NOT IN ('" + strings.Join(systemSchemas, "', '") + "')\n")
		}
	} else {
		if input.Owner != "" {
			return "", nil, fmt.Errorf("owner is only valid with use_all_tables")
		}
		b.WriteString("SELECT object_name AS table_name, created, status\n")
		b.WriteString("FROM user_objects\n")
		b.WriteString("WHERE object_type = 'TABLE'\n")
	}

	// Recyclebin leftovers carry BIN$ names.
	if !input.IncludeSystemTables {
		b.WriteString("  AND object_name NOT LIKE 'BIN$%'\n")
	}

	if input.NamePattern != "" {
		b.WriteString("  AND object_name LIKE :name_pattern\n")
		params["name_pattern"] = strings.ToUpper(input.NamePattern)
	}

	switch strings.ToUpper(input.OrderBy) {
	case "", OrderByTableName:
		b.WriteString("ORDER BY object_name")
	case OrderByCreated:
		b.WriteString("ORDER BY created DESC, object_name")
	default:
		return "", nil, fmt.Errorf("invalid order_by: %q (must be %s or %s)", input.OrderBy, OrderByTableName, OrderByCreated)
	}

	return b.String(), params, nil
}

// ListTables lists tables visible to the session, formatted as record
// blocks. The statement text is fixed — user input reaches the database
// only through bind parameters — so it bypasses the SELECT-only gate
// but still passes through the bind sanitizer, the bounded executor,
// and the formatter.
func (p *OracleMcp) ListTables(ctx context.Context, input ListTablesInput) (string, error) {
	startTime := time.Now()

	// 1. Acquire semaphore
	select {
	case p.semaphore <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("ListTables: failed to acquire query slot: all %d connection slots are in use, context cancelled while waiting: %w", cap(p.semaphore), ctx.Err())
	}
	defer func() { <-p.semaphore }()

	// 2. Resolve the row cap
	maxRows, err := clampLimit(input.MaxRows, defaultListTablesRows, p.config.Query.MaxRows, "max_rows")
	if err != nil {
		return "", err
	}

	// 3. Build the statement and sanitize the bind values
	sqlText, params, err := buildListTablesSQL(input)
	if err != nil {
		return "", &ValidationError{Reason: err.Error()}
	}
	args, err := bind.Named(sqlText, params)
	if err != nil {
		return "", &ValidationError{Reason: err.Error()}
	}

	// 4. Apply configurable timeout
	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.ListTablesTimeoutSeconds)*time.Second)
	defer cancel()

	// 5. Execute bounded and format
	rs, err := p.runBounded(queryCtx, sqlText, args, maxRows)
	if err != nil {
		if queryCtx.Err() == context.DeadlineExceeded {
			return "", &TimeoutError{Budget: time.Duration(p.config.Query.ListTablesTimeoutSeconds) * time.Second}
		}
		return "", fmt.Errorf("ListTables query failed: %w", err)
	}
	rendered := format.Render(rs, p.config.Query.MaxResultLength)

	p.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("table_count", rendered.RowsFetched).
		Bool("all_tables", input.UseAllTables).
		Msg("ListTables executed")

	return rendered.Text, nil
}
