package oramcp

import (
	"fmt"
	"regexp"
	"time"
)

// ValidationError is a classifier or sanitizer rejection. The
// statement was never sent to the database; Reason is safe to show
// the agent verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "query validation failed: " + e.Reason
}

// ExecutionError wraps a driver-reported failure (syntax error,
// missing object, privilege problem, connectivity loss). Not retried.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return "query execution failed: " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError means the statement exceeded its time budget. The
// cursor has been released; the caller can distinguish "query wrong"
// from "query too slow".
type TimeoutError struct {
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query timed out after %s", e.Budget)
}

// Credential-bearing fragments that must never surface in error text.
var (
	dsnCredsRe  = regexp.MustCompile(`oracle://[^@\s]+@`)
	passwordRe  = regexp.MustCompile(`(?i)password\s*=\s*[^\s&"]+`)
)

// scrubCredentials removes connection secrets from text destined for
// the agent or the log. Driver errors normally carry none, but a DSN
// echoed back by a connect failure would.
func scrubCredentials(s string) string {
	s = dsnCredsRe.ReplaceAllString(s, "oracle://***@")
	s = passwordRe.ReplaceAllString(s, "password=***")
	return s
}
