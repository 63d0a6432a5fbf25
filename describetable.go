package oramcp

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/format"
)

// identRe matches unquoted Oracle identifiers: letter first, then
// letters, digits, _, $, #. Length cap matches Oracle's 128-byte limit.
var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]{0,127}$`)

const describeColumnsSQL = `
SELECT
    c.column_name,
    c.data_type,
    c.data_length,
    c.data_precision,
    c.data_scale,
    c.nullable,
    m.comments
FROM user_tab_columns c
LEFT JOIN user_col_comments m
    ON m.table_name = c.table_name
   AND m.column_name = c.column_name
WHERE c.table_name = :table_name
ORDER BY c.column_id`

// DescribeTable returns the column layout of a table owned by the
// session user: name, rendered type, nullability, and column comment.
// The table name is validated as a bare identifier and uppercased; the
// catalog query itself is fixed text with a single bind.
func (p *OracleMcp) DescribeTable(ctx context.Context, input DescribeTableInput) (string, error) {
	startTime := time.Now()

	table := strings.TrimSpace(input.Table)
	if table == "" {
		return "", &ValidationError{Reason: "table_name is required"}
	}
	if !identRe.MatchString(table) {
		return "", &ValidationError{Reason: fmt.Sprintf("invalid table name: %q", table)}
	}
	table = strings.ToUpper(table)

	// 1. Acquire semaphore
	select {
	case p.semaphore <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("DescribeTable: failed to acquire query slot: all %d connection slots are in use, context cancelled while waiting: %w", cap(p.semaphore), ctx.Err())
	}
	defer func() { <-p.semaphore }()

	// 2. Apply configurable timeout
	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.DescribeTableTimeoutSeconds)*time.Second)
	defer cancel()

	// 3. Fetch column metadata
	rows, err := p.db.QueryContext(queryCtx, describeColumnsSQL, sql.Named("table_name", table))
	if err != nil {
		if queryCtx.Err() == context.DeadlineExceeded {
			return "", &TimeoutError{Budget: time.Duration(p.config.Query.DescribeTableTimeoutSeconds) * time.Second}
		}
		return "", fmt.Errorf("DescribeTable query failed: %w", err)
	}
	defer rows.Close()

	rs := format.ResultSet{
		Columns: []string{"COLUMN_NAME", "DATA_TYPE", "NULLABLE", "COMMENTS"},
	}
	for rows.Next() {
		var (
			name, dataType, nullable string
			dataLength               int64
			precision, scale         sql.NullInt64
			comments                 sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &dataLength, &precision, &scale, &nullable, &comments); err != nil {
			return "", fmt.Errorf("DescribeTable scan failed: %w", err)
		}

		var comment any
		if comments.Valid {
			comment = comments.String
		}
		rs.Rows = append(rs.Rows, []any{
			name,
			renderColumnType(dataType, dataLength, precision, scale),
			renderNullable(nullable),
			comment,
		})
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("DescribeTable rows error: %w", err)
	}

	if len(rs.Rows) == 0 {
		return "", fmt.Errorf("table not found: %s", table)
	}

	rendered := format.Render(rs, p.config.Query.MaxResultLength)

	p.logger.Info().
		Str("table", table).
		Dur("duration", time.Since(startTime)).
		Int("column_count", len(rs.Rows)).
		Msg("DescribeTable executed")

	return "Table: " + table + "\n\n" + rendered.Text, nil
}

// renderColumnType composes the type the way DESCRIBE shows it:
// NUMBER(p,s) when precision is declared, length suffix for character
// and raw types, the raw catalog type otherwise (DATE, CLOB,
// TIMESTAMP(6) already carry what they need).
func renderColumnType(dataType string, dataLength int64, precision, scale sql.NullInt64) string {
	switch dataType {
	case "NUMBER", "FLOAT":
		if !precision.Valid {
			return dataType
		}
		if scale.Valid && scale.Int64 != 0 {
			return fmt.Sprintf("%s(%d,%d)", dataType, precision.Int64, scale.Int64)
		}
		return fmt.Sprintf("%s(%d)", dataType, precision.Int64)
	case "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR", "RAW":
		return fmt.Sprintf("%s(%d)", dataType, dataLength)
	default:
		return dataType
	}
}

func renderNullable(flag string) string {
	if flag == "N" {
		return "NOT NULL"
	}
	return "NULL"
}
