// Package oramcp provides safe, read-only Oracle Database access for
// AI agents through the Model Context Protocol (MCP).
//
// It exposes four tools — ExecuteOracle (Query), ListTables,
// DescribeTable, and QueryAssistant — with a full execution pipeline:
// a SELECT-only query classifier, bind parameter sanitization, command
// and Go hooks, bounded row fetching, result-value redaction,
// record-block formatting under a character budget, and dynamic agent
// steering via error prompts.
//
// Every statement passes a literal-aware classifier that rejects
// anything but a single SELECT (no DML, DDL, transaction control,
// SELECT INTO, or UNION ALL) before it reaches the database, and
// user-supplied values travel exclusively as bind parameters.
//
// # Library Usage
//
//	p, err := oramcp.New(ctx, connString, oramcp.Config{
//		Pool: oramcp.PoolConfig{MaxConns: 10},
//		Query: oramcp.QueryConfig{
//			DefaultTimeoutSeconds:       30,
//			ListTablesTimeoutSeconds:    10,
//			DescribeTableTimeoutSeconds: 10,
//		},
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close(ctx)
//
//	// Use directly
//	output := p.Query(ctx, oramcp.QueryInput{SQL: "SELECT * FROM employees"})
//
//	// Or register as MCP tools
//	oramcp.RegisterMCPTools(mcpServer, p)
//
// # Hooks
//
// BeforeQuery and AfterQuery hooks run as a middleware chain around
// query execution. Implement [BeforeQueryHook] and [AfterQueryHook] for
// native Go hooks with full type safety:
//
//	type AuditHook struct{}
//
//	func (h *AuditHook) Run(ctx context.Context, query string) (string, error) {
//		log.Printf("query: %s", query)
//		return query, nil // return modified query or original
//	}
//
// BeforeQuery hooks may rewrite the SQL; the rewritten statement is
// re-classified before execution. AfterQuery hooks run over the
// formatted result text and may replace it. Unlike command-based hooks
// (server mode), Go hooks have no regex pattern matching — the hook
// function itself decides whether to act.
package oramcp
