package oramcp_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	oramcp "github.com/kutsushitaneko/mcp-server-for-oracle-database"
)

// --- Happy path ---

func TestQueryBasicSelect(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM employees")).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).
			AddRow(int64(1), "Alice").
			AddRow(int64(2), "Bob"))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT id, name FROM employees"})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if output.RowsFetched != 2 || output.RowsShown != 2 {
		t.Fatalf("expected 2/2 rows, got shown=%d fetched=%d", output.RowsShown, output.RowsFetched)
	}
	for _, want := range []string{"row 1", "ID:", "NAME:", "Alice", "Bob", "rows shown: 2 / rows fetched: 2"} {
		if !strings.Contains(output.Result, want) {
			t.Errorf("result missing %q:\n%s", want, output.Result)
		}
	}
	if output.RowLimitHit {
		t.Error("RowLimitHit should be false when all rows fit")
	}
	expectationsMet(t, mock)
}

func TestQueryTrailingSemicolonAllowed(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	// The terminator is stripped before execution — Oracle rejects it.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM dual") + "$").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT 1 FROM dual;"})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryNamedParams(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	query := "SELECT first_name FROM employees WHERE last_name = :ln"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(sql.Named("ln", "O'Brien")).
		WillReturnRows(sqlmock.NewRows([]string{"FIRST_NAME"}).AddRow("Miles"))

	output := p.Query(context.Background(), oramcp.QueryInput{
		SQL:    query,
		Params: map[string]any{"ln": "O'Brien"},
	})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if !strings.Contains(output.Result, "Miles") {
		t.Fatalf("result missing bound row:\n%s", output.Result)
	}
	expectationsMet(t, mock)
}

func TestQueryPositionalParams(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	query := "SELECT name FROM departments WHERE id = :1"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"NAME"}).AddRow("Engineering"))

	output := p.Query(context.Background(), oramcp.QueryInput{
		SQL:       query,
		ParamList: []any{int64(5)},
	})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryNullDistinctFromEmptyString(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT a, b FROM t")).
		WillReturnRows(sqlmock.NewRows([]string{"A", "B"}).AddRow(nil, ""))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT a, b FROM t"})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if !strings.Contains(output.Result, "A:\nNULL\n") {
		t.Errorf("NULL cell should render as the NULL token:\n%s", output.Result)
	}
	if !strings.Contains(output.Result, "B:\n\n") {
		t.Errorf("empty string cell should render empty, not as NULL:\n%s", output.Result)
	}
	expectationsMet(t, mock)
}

// --- Rejections (statement never reaches the database) ---

func TestQueryRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sql     string
		wantErr string
	}{
		{"delete", "DELETE FROM employees", "only SELECT statements are permitted"},
		{"insert", "INSERT INTO t VALUES (1)", "only SELECT statements are permitted"},
		{"with_cte", "WITH x AS (SELECT 1 FROM dual) SELECT * FROM x", "only SELECT statements are permitted"},
		{"multi_statement", "SELECT 1 FROM dual; DROP TABLE employees", "multiple statements are not permitted"},
		{"select_into", "SELECT id INTO v_id FROM employees", "SELECT INTO is not permitted"},
		{"union_all", "SELECT a FROM t UNION ALL SELECT b FROM u", "UNION ALL is not permitted"},
		{"for_update", "SELECT id FROM employees FOR UPDATE", "disallowed keyword: UPDATE"},
		{"empty", "   ", "only SELECT statements are permitted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, mock := newMockInstance(t, defaultConfig())

			output := p.Query(context.Background(), oramcp.QueryInput{SQL: tt.sql})
			if output.Error == "" {
				t.Fatalf("expected rejection for %q", tt.sql)
			}
			if !strings.Contains(output.Error, "query validation failed") {
				t.Errorf("expected validation error, got: %s", output.Error)
			}
			if !strings.Contains(output.Error, tt.wantErr) {
				t.Errorf("expected error containing %q, got: %s", tt.wantErr, output.Error)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestQueryPlainUnionAllowed(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	query := "SELECT a FROM t UNION SELECT b FROM u"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"A"}).AddRow(int64(1)))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: query})
	if output.Error != "" {
		t.Fatalf("plain UNION should pass: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryTooLong(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.Query.MaxSQLLength = 50
	p, mock := newMockInstance(t, config)

	output := p.Query(context.Background(), oramcp.QueryInput{
		SQL: "SELECT " + strings.Repeat("x", 100) + " FROM dual",
	})
	if !strings.Contains(output.Error, "query too long") {
		t.Fatalf("expected length rejection, got: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryParamMismatch(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	output := p.Query(context.Background(), oramcp.QueryInput{
		SQL: "SELECT name FROM employees WHERE id = :id",
	})
	if !strings.Contains(output.Error, "parameter mismatch") {
		t.Fatalf("expected parameter mismatch, got: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryMixedParamsRejected(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	output := p.Query(context.Background(), oramcp.QueryInput{
		SQL:       "SELECT name FROM employees WHERE id = :id",
		Params:    map[string]any{"id": 1},
		ParamList: []any{1},
	})
	if !strings.Contains(output.Error, "named and positional parameters cannot be mixed") {
		t.Fatalf("expected mixing rejection, got: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryNegativeLimits(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT 1 FROM dual", MaxRows: -1})
	if !strings.Contains(output.Error, "max_rows must be a positive integer") {
		t.Fatalf("expected max_rows rejection, got: %s", output.Error)
	}
	output = p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT 1 FROM dual", MaxLength: -1})
	if !strings.Contains(output.Error, "max_length must be a positive integer") {
		t.Fatalf("expected max_length rejection, got: %s", output.Error)
	}
	expectationsMet(t, mock)
}

// --- Bounds ---

func TestQueryRowCap(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	rows := sqlmock.NewRows([]string{"N"})
	for i := 1; i <= 5; i++ {
		rows.AddRow(int64(i))
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT n FROM series")).WillReturnRows(rows)

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT n FROM series", MaxRows: 2})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if output.RowsFetched != 2 {
		t.Fatalf("expected 2 fetched rows, got %d", output.RowsFetched)
	}
	if !output.RowLimitHit {
		t.Error("expected RowLimitHit when more rows remain")
	}
	if !strings.Contains(output.Result, "(more rows available: increase max_rows)") {
		t.Errorf("result missing row-limit marker:\n%s", output.Result)
	}
	expectationsMet(t, mock)
}

func TestQueryDefaultRowCap(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	rows := sqlmock.NewRows([]string{"N"})
	for i := 1; i <= 12; i++ {
		rows.AddRow(int64(i))
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT n FROM series")).WillReturnRows(rows)

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT n FROM series"})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if output.RowsFetched != 10 {
		t.Fatalf("default row cap is 10, got %d fetched", output.RowsFetched)
	}
	if !output.RowLimitHit {
		t.Error("expected RowLimitHit at the default cap")
	}
	expectationsMet(t, mock)
}

func TestQueryMaxRowsClampedToCeiling(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.Query.MaxRows = 3
	p, mock := newMockInstance(t, config)

	rows := sqlmock.NewRows([]string{"N"})
	for i := 1; i <= 5; i++ {
		rows.AddRow(int64(i))
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT n FROM series")).WillReturnRows(rows)

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT n FROM series", MaxRows: 100})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if output.RowsFetched != 3 {
		t.Fatalf("max_rows should clamp to the configured ceiling of 3, got %d", output.RowsFetched)
	}
	expectationsMet(t, mock)
}

func TestQueryTruncation(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	long := strings.Repeat("x", 100)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT v FROM blobs")).
		WillReturnRows(sqlmock.NewRows([]string{"V"}).
			AddRow(long).AddRow(long).AddRow(long))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT v FROM blobs", MaxLength: 120})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if !output.Truncated {
		t.Fatal("expected truncation")
	}
	if output.RowsShown != 1 || output.RowsFetched != 3 {
		t.Fatalf("expected 1 shown of 3 fetched, got shown=%d fetched=%d", output.RowsShown, output.RowsFetched)
	}
	if !strings.Contains(output.Result, "output truncated at 120 characters: 2 of 3 fetched rows omitted") {
		t.Errorf("result missing truncation marker:\n%s", output.Result)
	}
	expectationsMet(t, mock)
}

// --- Execution failures ---

func TestQueryExecutionError(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM nonexistent")).
		WillReturnError(errors.New("ORA-00942: table or view does not exist"))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT id FROM nonexistent"})
	if !strings.Contains(output.Error, "query execution failed") {
		t.Fatalf("expected execution error, got: %s", output.Error)
	}
	if !strings.Contains(output.Error, "ORA-00942") {
		t.Errorf("driver error code should be preserved: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryErrorPromptAppended(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.ErrorPrompts = []oramcp.ErrorPromptRule{
		{Pattern: `ORA-00942`, Message: "Call list_tables to see which tables exist."},
	}
	p, mock := newMockInstance(t, config)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM nonexistent")).
		WillReturnError(errors.New("ORA-00942: table or view does not exist"))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT id FROM nonexistent"})
	if !strings.Contains(output.Error, "Call list_tables to see which tables exist.") {
		t.Fatalf("expected error prompt guidance appended, got: %s", output.Error)
	}
	expectationsMet(t, mock)
}

func TestQueryTimeout(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.Query.TimeoutRules = []oramcp.TimeoutRule{
		{Pattern: `slow_table`, TimeoutSeconds: 1},
	}
	p, mock := newMockInstance(t, config)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT v FROM slow_table")).
		WillDelayFor(3 * time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"V"}).AddRow(int64(1)))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT v FROM slow_table"})
	if !strings.Contains(output.Error, "query timed out after 1s") {
		t.Fatalf("expected timeout error, got: %s", output.Error)
	}
}

// --- Redaction ---

func TestQueryRedaction(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.Redaction = []oramcp.RedactionRule{
		{Pattern: `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, Replacement: "[EMAIL]"},
	}
	p, mock := newMockInstance(t, config)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM employees")).
		WillReturnRows(sqlmock.NewRows([]string{"EMAIL"}).AddRow("alice@example.com"))

	output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT email FROM employees"})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if strings.Contains(output.Result, "alice@example.com") {
		t.Fatalf("redacted value leaked:\n%s", output.Result)
	}
	if !strings.Contains(output.Result, "[EMAIL]") {
		t.Fatalf("replacement missing:\n%s", output.Result)
	}
	expectationsMet(t, mock)
}

// --- Concurrency ---

func TestQueryConcurrent(t *testing.T) {
	t.Parallel()
	p, mock := newMockInstance(t, defaultConfig())
	mock.MatchExpectationsInOrder(false)

	const n = 8
	for i := 0; i < n; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM dual")).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))
	}

	done := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			output := p.Query(context.Background(), oramcp.QueryInput{SQL: "SELECT 1 FROM dual"})
			done <- output.Error
		}()
	}
	for i := 0; i < n; i++ {
		if errMsg := <-done; errMsg != "" {
			t.Errorf("concurrent query failed: %s", errMsg)
		}
	}
	expectationsMet(t, mock)
}
