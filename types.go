package oramcp

// QueryInput is the input for the ExecuteOracle tool. Exactly one of
// Params (named binds, :name placeholders) or ParamList (positional
// binds) may be set. MaxLength and MaxRows of zero fall back to the
// defaults (1000 characters, 10 rows); both are clamped to the
// configured ceilings.
type QueryInput struct {
	SQL       string         `json:"query"`
	Params    map[string]any `json:"params,omitempty"`
	ParamList []any          `json:"-"`
	MaxLength int            `json:"max_length,omitempty"`
	MaxRows   int            `json:"max_rows,omitempty"`
}

// QueryOutput is the output of the ExecuteOracle tool. All failures
// (classifier rejections, bind validation, driver errors, timeouts,
// hook rejections) are placed in Error; matching error_prompts
// guidance is appended to it. Callers only ever check Error.
type QueryOutput struct {
	Result      string `json:"result"`
	Truncated   bool   `json:"truncated"`
	RowLimitHit bool   `json:"row_limit_hit"`
	RowsShown   int    `json:"rows_shown"`
	RowsFetched int    `json:"rows_fetched"`
	Error       string `json:"error,omitempty"`
}

// Ordering options for ListTables.
const (
	OrderByTableName = "TABLE_NAME"
	OrderByCreated   = "CREATED"
)

// ListTablesInput is the input for the ListTables tool.
type ListTablesInput struct {
	// MaxRows caps the listing; 0 means the default of 50.
	MaxRows int `json:"max_rows,omitempty"`
	// NamePattern is an optional SQL LIKE pattern (e.g. "EMP%").
	NamePattern string `json:"name_pattern,omitempty"`
	// OrderBy is OrderByTableName (default) or OrderByCreated.
	OrderBy string `json:"order_by,omitempty"`
	// IncludeSystemTables includes recyclebin objects and, with
	// UseAllTables, tables owned by Oracle-maintained schemas.
	IncludeSystemTables bool `json:"include_system_tables,omitempty"`
	// UseAllTables queries the all_objects view instead of
	// user_objects; Owner is then required.
	UseAllTables bool   `json:"use_all_tables,omitempty"`
	Owner        string `json:"owner,omitempty"`
}

// DescribeTableInput is the input for the DescribeTable tool.
type DescribeTableInput struct {
	Table string `json:"table_name"`
}
