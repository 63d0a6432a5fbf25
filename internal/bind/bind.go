// Package bind validates user-supplied bind parameters before they
// reach the driver. Values are always passed to the database as bind
// parameters, never interpolated into SQL text — the checks here are
// defense in depth on top of that, plus strict shape validation:
// parameter names, a closed set of scalar value types, and a
// placeholder/parameter match against the statement text.
package bind

import (
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MaxStringLength caps string parameter values. VARCHAR2 columns hold
// at most 4000 bytes in a default Oracle configuration.
const MaxStringLength = 4000

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fragmentRe flags values that look like SQL meant to be re-parsed:
// comment openers or a statement separator followed by a verb. A value
// merely containing a quote (O'Brien) is fine.
var fragmentRe = regexp.MustCompile(`(?i)(--|/\*|;\s*(select|insert|update|delete|merge|drop|create|alter|truncate|grant|revoke|execute|call|commit|rollback)\b)`)

// Named validates a map of named bind parameters against the
// placeholders declared in sql and returns driver-ready arguments
// (sql.Named values in deterministic name order).
func Named(sqlText string, params map[string]any) ([]any, error) {
	declared := placeholders(sqlText)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !nameRe.MatchString(name) {
			return nil, fmt.Errorf("invalid parameter name: %q", name)
		}
		if err := checkValue(name, params[name]); err != nil {
			return nil, err
		}
		seen[strings.ToUpper(name)] = true
	}

	// Bind names are case-insensitive on the Oracle side.
	for _, ph := range declared {
		if !seen[ph] {
			return nil, fmt.Errorf("parameter mismatch: statement declares :%s but no value was provided", strings.ToLower(ph))
		}
	}
	if len(seen) > len(declared) {
		for _, name := range names {
			if !containsUpper(declared, strings.ToUpper(name)) {
				return nil, fmt.Errorf("parameter mismatch: value %q does not match any placeholder", name)
			}
		}
	}

	args := make([]any, 0, len(names))
	for _, name := range names {
		args = append(args, sql.Named(name, params[name]))
	}
	return args, nil
}

// Positional validates an ordered parameter sequence. The number of
// distinct placeholders in sql must equal len(params); the driver
// binds them in order of appearance.
func Positional(sqlText string, params []any) ([]any, error) {
	declared := placeholders(sqlText)
	if len(declared) != len(params) {
		return nil, fmt.Errorf("parameter mismatch: statement declares %d placeholders, %d values provided", len(declared), len(params))
	}
	for i, v := range params {
		if err := checkValue(fmt.Sprintf("#%d", i+1), v); err != nil {
			return nil, err
		}
	}
	args := make([]any, len(params))
	copy(args, params)
	return args, nil
}

// checkValue enforces the permitted scalar type set: text, number,
// boolean, or null. Everything else (slices, maps, structs) is
// rejected at the boundary.
func checkValue(name string, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if len(val) > MaxStringLength {
			return fmt.Errorf("string parameter too long: %s is %d bytes, maximum is %d", name, len(val), MaxStringLength)
		}
		if fragmentRe.MatchString(val) {
			return fmt.Errorf("parameter %s contains SQL control syntax", name)
		}
		return nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		_ = val
		return nil
	default:
		return fmt.Errorf("invalid parameter type for %s: %T", name, v)
	}
}

// placeholders scans sql for :name bind placeholders, skipping string
// literals, quoted identifiers, and comments. Returns distinct
// uppercase names in order of first appearance; numeric placeholders
// (:1, :2) are included under their digit spelling.
func placeholders(sqlText string) []string {
	var out []string
	seen := make(map[string]bool)
	i := 0
	n := len(sqlText)
	for i < n {
		c := sqlText[i]
		switch {
		case c == '\'':
			i++
			for i < n {
				if sqlText[i] == '\'' {
					if i+1 < n && sqlText[i+1] == '\'' {
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
			for i < n && sqlText[i] != '"' {
				i++
			}
			if i < n {
				i++
			}
		case c == '-' && i+1 < n && sqlText[i+1] == '-':
			for i < n && sqlText[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && sqlText[i+1] == '*':
			i += 2
			for i < n {
				if sqlText[i] == '*' && i+1 < n && sqlText[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
		case c == ':':
			// ":=" is PL/SQL assignment, "::" never appears in Oracle SQL;
			// a placeholder is ':' directly followed by a word or digits.
			i++
			start := i
			for i < n && isBindChar(sqlText[i]) {
				i++
			}
			if i > start {
				name := strings.ToUpper(sqlText[start:i])
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		default:
			i++
		}
	}
	return out
}

func isBindChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

func containsUpper(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
