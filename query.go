package oramcp

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/bind"
	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/classify"
	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/format"
)

// Request-level defaults, matching the tool defaults the agent sees.
const (
	defaultMaxLength = 1000
	defaultMaxRows   = 10
)

// Query executes the full pipeline — classify, sanitize binds,
// bounded execution, redaction, formatting — and returns only
// QueryOutput. All failures (rejections, bind errors, driver errors,
// timeouts, hook rejections) are converted to output.Error, with
// matching error_prompts guidance appended. Callers only need to
// check output.Error, never a Go error.
func (p *OracleMcp) Query(ctx context.Context, input QueryInput) *QueryOutput {
	startTime := time.Now()
	sqlText := input.SQL

	// 1. Acquire semaphore (respects context cancellation to prevent deadlock)
	select {
	case p.semaphore <- struct{}{}:
	case <-ctx.Done():
		return p.handleError(fmt.Errorf("failed to acquire query slot: all %d connection slots are in use, context cancelled while waiting: %w", cap(p.semaphore), ctx.Err()))
	}
	defer func() { <-p.semaphore }()

	// 2. Clamp request limits to configured ceilings
	maxLength, err := clampLimit(input.MaxLength, defaultMaxLength, p.config.Query.MaxResultLength, "max_length")
	if err != nil {
		return p.handleError(err)
	}
	maxRows, err := clampLimit(input.MaxRows, defaultMaxRows, p.config.Query.MaxRows, "max_rows")
	if err != nil {
		return p.handleError(err)
	}

	// 3. Check SQL length before any processing (hooks, scanning)
	if len(sqlText) > p.config.Query.MaxSQLLength {
		return p.handleError(&ValidationError{Reason: fmt.Sprintf("query too long: %d bytes exceeds maximum of %d bytes", len(sqlText), p.config.Query.MaxSQLLength)})
	}

	// --- Pipeline tracking ---
	var beforeHooks, afterHooks []string
	timeoutRule := ""

	// 4. Run before_query hooks (middleware chain). Classification
	// runs after hooks so a rewritten query is still validated.
	if len(p.goBeforeHooks) > 0 {
		sqlText, err = p.runGoBeforeHooks(ctx, sqlText)
		for _, entry := range p.goBeforeHooks {
			beforeHooks = append(beforeHooks, entry.Name)
		}
	} else if p.cmdHooks != nil {
		sqlText, beforeHooks, err = p.cmdHooks.RunBeforeQuery(ctx, sqlText)
	}
	if err != nil {
		return p.handleError(err)
	}

	// 5. Classify (SELECT-only gate, deny list, multi-statement)
	if v := classify.Classify(sqlText, p.config.Query.MaxSQLLength); !v.Allowed {
		return p.handleError(&ValidationError{Reason: v.Reason})
	}

	// Oracle rejects a trailing statement terminator at the server;
	// strip it so SQL*Plus-style statements paste cleanly.
	sqlText = strings.TrimRight(sqlText, " \t\r\n")
	sqlText = strings.TrimSuffix(sqlText, ";")

	// 6. Sanitize bind parameters against the statement's placeholders
	args, err := p.sanitizeParams(sqlText, input)
	if err != nil {
		return p.handleError(&ValidationError{Reason: err.Error()})
	}

	// 7. Determine statement timeout
	var budget time.Duration
	budget, timeoutRule = p.timeoutMgr.GetTimeoutWithPattern(sqlText)
	queryCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// 8. Execute with bound parameters and fetch at most maxRows.
	// The original statement text runs, never the normalized form.
	rs, err := p.runBounded(queryCtx, sqlText, args, maxRows)
	if err != nil {
		if queryCtx.Err() == context.DeadlineExceeded {
			return p.handleError(&TimeoutError{Budget: budget})
		}
		return p.handleError(&ExecutionError{Err: err})
	}

	// 9. Apply redaction rules to string cells
	rs.Rows = p.redactor.Apply(rs.Rows)

	// 10. Format under the output character budget
	rendered := format.Render(rs, maxLength)
	text := rendered.Text

	// 11. Run after_query hooks over the formatted text
	if len(p.goAfterHooks) > 0 {
		text, err = p.runGoAfterHooks(ctx, text)
		for _, entry := range p.goAfterHooks {
			afterHooks = append(afterHooks, entry.Name)
		}
	} else if p.cmdHooks != nil && p.cmdHooks.HasAfterQueryHooks() {
		text, afterHooks, err = p.cmdHooks.RunAfterQuery(ctx, text)
	}
	if err != nil {
		return p.handleError(err)
	}

	// 12. Log successful execution with pipeline details
	logEvent := p.logger.Info().
		Str("sql", truncateForLog(input.SQL, 200)).
		Dur("duration", time.Since(startTime)).
		Int("rows_fetched", rendered.RowsFetched).
		Int("rows_shown", rendered.RowsShown)
	if rendered.Truncated {
		logEvent = logEvent.Bool("truncated", true)
	}
	if rs.RowLimitHit {
		logEvent = logEvent.Bool("row_limit_hit", true)
	}
	if len(beforeHooks) > 0 {
		logEvent = logEvent.Strs("before_hooks", beforeHooks)
	}
	if len(afterHooks) > 0 {
		logEvent = logEvent.Strs("after_hooks", afterHooks)
	}
	if timeoutRule != "" {
		logEvent = logEvent.Str("timeout_rule", timeoutRule)
	}
	if p.redactor.HasRules() {
		logEvent = logEvent.Bool("redacted", true)
	}
	logEvent.Msg("query executed")

	return &QueryOutput{
		Result:      text,
		Truncated:   rendered.Truncated,
		RowLimitHit: rs.RowLimitHit,
		RowsShown:   rendered.RowsShown,
		RowsFetched: rendered.RowsFetched,
	}
}

// clampLimit resolves a request limit: zero means the default,
// negatives are rejected, values above the ceiling are clamped.
func clampLimit(v, def, ceiling int, name string) (int, error) {
	if v < 0 {
		return 0, &ValidationError{Reason: fmt.Sprintf("%s must be a positive integer", name)}
	}
	if v == 0 {
		v = def
	}
	if v > ceiling {
		v = ceiling
	}
	return v, nil
}

// sanitizeParams validates the request's bind values against the
// statement and returns driver-ready arguments.
func (p *OracleMcp) sanitizeParams(sqlText string, input QueryInput) ([]any, error) {
	if len(input.Params) > 0 && len(input.ParamList) > 0 {
		return nil, fmt.Errorf("named and positional parameters cannot be mixed")
	}
	if len(input.ParamList) > 0 {
		return bind.Positional(sqlText, input.ParamList)
	}
	return bind.Named(sqlText, input.Params)
}

// runBounded executes sqlText with bound args and fetches at most
// maxRows rows. The cursor is released on every exit path. When the
// cap is reached, one extra row is probed to learn whether more rows
// exist — fetching stops there, nothing larger is materialized.
func (p *OracleMcp) runBounded(ctx context.Context, sqlText string, args []any, maxRows int) (format.ResultSet, error) {
	var rs format.ResultSet

	rows, err := p.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return rs, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return rs, err
	}
	// Column names and ordering come verbatim from the driver.
	rs.Columns = cols

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return rs, err
		}
		rs.Rows = append(rs.Rows, values)

		if len(rs.Rows) >= maxRows {
			rs.RowLimitHit = rows.Next()
			break
		}
	}
	if err := rows.Err(); err != nil {
		return rs, err
	}
	return rs, nil
}

// runGoBeforeHooks runs Go-interface before_query hooks in a middleware chain.
func (p *OracleMcp) runGoBeforeHooks(ctx context.Context, sqlText string) (string, error) {
	for _, entry := range p.goBeforeHooks {
		budget := entry.Timeout
		if budget == 0 {
			budget = time.Duration(p.config.DefaultHookTimeoutSeconds) * time.Second
		}
		hookCtx, cancel := context.WithTimeout(ctx, budget)

		modified, err := entry.Hook.Run(hookCtx, sqlText)
		cancel()
		if err != nil {
			if hookCtx.Err() == context.DeadlineExceeded {
				return "", fmt.Errorf("before_query hook error: hook timed out (name: %s, timeout: %s)", entry.Name, budget)
			}
			return "", fmt.Errorf("before_query hook error: hook rejected query (name: %s): %w", entry.Name, err)
		}
		sqlText = modified
	}
	return sqlText, nil
}

// runGoAfterHooks runs Go-interface after_query hooks over the formatted text.
func (p *OracleMcp) runGoAfterHooks(ctx context.Context, result string) (string, error) {
	for _, entry := range p.goAfterHooks {
		budget := entry.Timeout
		if budget == 0 {
			budget = time.Duration(p.config.DefaultHookTimeoutSeconds) * time.Second
		}
		hookCtx, cancel := context.WithTimeout(ctx, budget)

		modified, err := entry.Hook.Run(hookCtx, result)
		cancel()
		if err != nil {
			if hookCtx.Err() == context.DeadlineExceeded {
				return "", fmt.Errorf("after_query hook error: hook timed out (name: %s, timeout: %s)", entry.Name, budget)
			}
			return "", fmt.Errorf("after_query hook error: hook rejected result (name: %s): %w", entry.Name, err)
		}
		result = modified
	}
	return result, nil
}

// handleError converts any error into a QueryOutput with a
// caller-safe message: credentials are scrubbed and matching
// error_prompts guidance is appended.
func (p *OracleMcp) handleError(err error) *QueryOutput {
	errMsg := scrubCredentials(err.Error())
	prompt := p.errPrompts.Match(errMsg)
	patterns := p.errPrompts.MatchedPatterns(errMsg)

	logEvent := p.logger.Error().Err(err)
	if len(patterns) > 0 {
		logEvent = logEvent.Strs("error_prompts", patterns)
	}
	logEvent.Msg("query error")

	if prompt != "" {
		errMsg = errMsg + "\n\n" + prompt
	}
	return &QueryOutput{Error: errMsg}
}

// truncateForLog truncates a string for log output to avoid oversized log entries.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncateAt := maxLen
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}
	return s[:truncateAt] + "...[truncated]"
}
