// Package classify decides whether a raw SQL statement is safe to run
// against the database. Only single SELECT statements pass; everything
// else is rejected with a reason. The classifier is a heuristic text
// scanner, not a full parser: it strips comments, respects string
// literals and quoted identifiers, and matches keywords on token
// boundaries so that identifiers like DROPDOWN_FLAG never trigger a
// false rejection.
package classify

import (
	"fmt"
	"strings"
)

// DefaultMaxSQLLength is the ceiling applied when no explicit limit is
// configured. Oracle itself has no practical statement length limit;
// 1 MiB bounds pathological inputs before any scanning happens.
const DefaultMaxSQLLength = 1_000_000

// denyList covers data-mutation and session-control verbs. Matched on
// token boundaries against the comment-stripped statement.
var denyList = map[string]bool{
	"INSERT":    true,
	"UPDATE":    true,
	"DELETE":    true,
	"MERGE":     true,
	"DROP":      true,
	"CREATE":    true,
	"ALTER":     true,
	"TRUNCATE":  true,
	"GRANT":     true,
	"REVOKE":    true,
	"EXECUTE":   true,
	"CALL":      true,
	"COMMIT":    true,
	"ROLLBACK":  true,
	"SAVEPOINT": true,
}

// Verdict is the classification outcome. Reason is set iff the
// statement was rejected.
type Verdict struct {
	Allowed bool
	Reason  string
}

func allowed() Verdict          { return Verdict{Allowed: true} }
func rejected(r string) Verdict { return Verdict{Reason: r} }

// Classify inspects sql and returns a Verdict. The original text is
// never modified — callers execute the statement they submitted, the
// normalized form exists only for inspection. maxLength <= 0 falls
// back to DefaultMaxSQLLength.
func Classify(sql string, maxLength int) Verdict {
	if maxLength <= 0 {
		maxLength = DefaultMaxSQLLength
	}
	if len(sql) > maxLength {
		return rejected(fmt.Sprintf("query too long: %d bytes exceeds maximum of %d bytes", len(sql), maxLength))
	}

	stripped := stripComments(sql)
	tokens, multi := tokenize(stripped)

	if len(tokens) == 0 {
		return rejected("only SELECT statements are permitted")
	}
	if tokens[0] != "SELECT" {
		return rejected("only SELECT statements are permitted")
	}
	if multi {
		return rejected("multiple statements are not permitted")
	}

	for i, tok := range tokens {
		switch {
		case tok == "INTO":
			return rejected("SELECT INTO is not permitted")
		case tok == "UNION" && i+1 < len(tokens) && tokens[i+1] == "ALL":
			return rejected("UNION ALL is not permitted")
		case denyList[tok]:
			return rejected("disallowed keyword: " + tok)
		}
	}

	return allowed()
}

// stripComments removes -- line comments and /* */ block comments,
// replacing each with a single space so token boundaries survive.
// Comment markers inside single-quoted literals or double-quoted
// identifiers are left untouched — a literal is data, not a comment.
// An unterminated block comment is stripped to end of input.
func stripComments(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	i := 0
	n := len(sql)
	for i < n {
		c := sql[i]
		switch {
		case c == '\'':
			// String literal: copy verbatim, '' is an escaped quote.
			b.WriteByte(c)
			i++
			for i < n {
				b.WriteByte(sql[i])
				if sql[i] == '\'' {
					if i+1 < n && sql[i+1] == '\'' {
						b.WriteByte(sql[i+1])
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case c == '"':
			// Quoted identifier: copy verbatim.
			b.WriteByte(c)
			i++
			for i < n {
				b.WriteByte(sql[i])
				if sql[i] == '"' {
					i++
					break
				}
				i++
			}
		case c == '-' && i+1 < n && sql[i+1] == '-':
			// Line comment runs to end of line; the newline is kept.
			i += 2
			for i < n && sql[i] != '\n' {
				i++
			}
			b.WriteByte(' ')
		case c == '/' && i+1 < n && sql[i+1] == '*':
			i += 2
			for i < n {
				if sql[i] == '*' && i+1 < n && sql[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// tokenize extracts uppercase word tokens from comment-stripped SQL,
// skipping string literals and quoted identifiers. multi reports
// whether a semicolon is followed by further non-whitespace content
// (a trailing semicolon alone is tolerated).
func tokenize(sql string) (tokens []string, multi bool) {
	i := 0
	n := len(sql)
	for i < n {
		c := sql[i]
		switch {
		case c == '\'':
			i++
			for i < n {
				if sql[i] == '\'' {
					if i+1 < n && sql[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case c == '"':
			i++
			for i < n && sql[i] != '"' {
				i++
			}
			if i < n {
				i++
			}
		case c == ';':
			i++
			for j := i; j < n; j++ {
				if !isSpace(sql[j]) {
					multi = true
					break
				}
			}
		case isWordStart(c):
			start := i
			for i < n && isWordPart(sql[i]) {
				i++
			}
			tokens = append(tokens, strings.ToUpper(sql[start:i]))
		default:
			i++
		}
	}
	return tokens, multi
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isWordStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// Oracle identifiers may contain $, # and digits after the first character.
func isWordPart(c byte) bool {
	return isWordStart(c) || c >= '0' && c <= '9' || c == '$' || c == '#'
}
