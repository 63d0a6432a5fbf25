package oramcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers execute_oracle, list_tables,
// describe_table, and oracle_query_assistant on the given MCP server.
// All tools return plain text.
func RegisterMCPTools(mcpServer *server.MCPServer, oraMcp *OracleMcp) {
	// execute_oracle tool
	queryTool := mcp.NewTool("execute_oracle",
		mcp.WithDescription("Execute a read-only SQL query (SELECT only) against the Oracle database. Returns formatted text, at most max_rows rows and max_length characters."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SELECT statement to execute. Use :name placeholders for bind parameters."),
		),
		mcp.WithObject("params",
			mcp.Description("Named bind parameter values keyed by placeholder name, e.g. {\"ln\": \"O'Brien\"}"),
		),
		mcp.WithNumber("max_length",
			mcp.DefaultNumber(defaultMaxLength),
			mcp.Description("Maximum length of the formatted result in characters"),
		),
		mcp.WithNumber("max_rows",
			mcp.DefaultNumber(defaultMaxRows),
			mcp.Description("Maximum number of rows to fetch"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(queryTool, oraMcp.loggedToolHandler("execute_oracle", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlText, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		input := QueryInput{
			SQL:       sqlText,
			MaxLength: req.GetInt("max_length", 0),
			MaxRows:   req.GetInt("max_rows", 0),
		}
		if raw, ok := req.GetArguments()["params"]; ok && raw != nil {
			params, ok := raw.(map[string]any)
			if !ok {
				return mcp.NewToolResultError("params must be an object of named bind values"), nil
			}
			input.Params = params
		}
		output := oraMcp.Query(ctx, input)
		if output.Error != "" {
			return mcp.NewToolResultError(output.Error), nil
		}
		return mcp.NewToolResultText(output.Result), nil
	}))

	// list_tables tool
	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List tables visible to the connected user. Defaults to the user's own schema; set use_all_tables with owner to list another schema."),
		mcp.WithNumber("max_rows",
			mcp.DefaultNumber(defaultListTablesRows),
			mcp.Description("Maximum number of tables to list"),
		),
		mcp.WithString("name_pattern",
			mcp.Description("SQL LIKE pattern filtering table names, e.g. \"EMP%\""),
		),
		mcp.WithString("order_by",
			mcp.Enum(OrderByTableName, OrderByCreated),
			mcp.Description("Sort order: TABLE_NAME (default) or CREATED (newest first)"),
		),
		mcp.WithBoolean("include_system_tables",
			mcp.Description("Include recyclebin objects and Oracle-maintained schemas"),
		),
		mcp.WithBoolean("use_all_tables",
			mcp.Description("Query all_objects instead of user_objects; requires owner"),
		),
		mcp.WithString("owner",
			mcp.Description("Schema owner to list when use_all_tables is set"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listTablesTool, oraMcp.loggedToolHandler("list_tables", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := ListTablesInput{
			MaxRows:             req.GetInt("max_rows", 0),
			NamePattern:         req.GetString("name_pattern", ""),
			OrderBy:             req.GetString("order_by", ""),
			IncludeSystemTables: req.GetBool("include_system_tables", false),
			UseAllTables:        req.GetBool("use_all_tables", false),
			Owner:               req.GetString("owner", ""),
		}
		text, err := oraMcp.ListTables(ctx, input)
		if err != nil {
			return mcp.NewToolResultError(scrubCredentials(err.Error())), nil
		}
		return mcp.NewToolResultText(text), nil
	}))

	// describe_table tool
	describeTableTool := mcp.NewTool("describe_table",
		mcp.WithDescription("Describe a table's columns: name, data type, nullability, and column comments."),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("The table name to describe (bare identifier, case-insensitive)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(describeTableTool, oraMcp.loggedToolHandler("describe_table", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table_name")
		if err != nil {
			return mcp.NewToolResultError("table_name parameter is required"), nil
		}
		text, err := oraMcp.DescribeTable(ctx, DescribeTableInput{Table: table})
		if err != nil {
			return mcp.NewToolResultError(scrubCredentials(err.Error())), nil
		}
		return mcp.NewToolResultText(text), nil
	}))

	// oracle_query_assistant tool
	assistantTool := mcp.NewTool("oracle_query_assistant",
		mcp.WithDescription("Get guidance on composing queries for this server: allowed statements, bind parameters, row and length limits."),
		mcp.WithString("query_type",
			mcp.Enum("select"),
			mcp.Description("The kind of query to get guidance for"),
		),
	)

	mcpServer.AddTool(assistantTool, oraMcp.loggedToolHandler("oracle_query_assistant", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := oraMcp.QueryAssistant(req.GetString("query_type", "select"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}))
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (p *OracleMcp) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		p.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
