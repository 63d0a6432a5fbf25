package bind

import (
	"database/sql"
	"strings"
	"testing"
)

func assertNamedOK(t *testing.T, sqlText string, params map[string]any) []any {
	t.Helper()
	args, err := Named(sqlText, params)
	if err != nil {
		t.Fatalf("unexpected error for params %v: %v", params, err)
	}
	return args
}

func assertNamedErr(t *testing.T, sqlText string, params map[string]any, errContains string) {
	t.Helper()
	_, err := Named(sqlText, params)
	if err == nil {
		t.Fatalf("expected error containing %q for params %v, got nil", errContains, params)
	}
	if !strings.Contains(err.Error(), errContains) {
		t.Fatalf("expected error containing %q, got %q", errContains, err.Error())
	}
}

// --- Parameter names ---

func TestValidNames(t *testing.T) {
	t.Parallel()
	assertNamedOK(t, "SELECT 1 FROM t WHERE a = :p1 AND b = :other_name", map[string]any{
		"p1":         1,
		"other_name": "x",
	})
}

func TestInvalidNameRejected(t *testing.T) {
	t.Parallel()
	assertNamedErr(t, "SELECT 1 FROM dual", map[string]any{"1bad": 1}, "invalid parameter name")
	assertNamedErr(t, "SELECT 1 FROM dual", map[string]any{"a-b": 1}, "invalid parameter name")
	assertNamedErr(t, "SELECT 1 FROM dual", map[string]any{"a b": 1}, "invalid parameter name")
}

// --- Value types ---

func TestScalarTypesAccepted(t *testing.T) {
	t.Parallel()
	assertNamedOK(t, "SELECT 1 FROM t WHERE a=:a AND b=:b AND c=:c AND d=:d AND e=:e", map[string]any{
		"a": "text",
		"b": int64(42),
		"c": 3.14,
		"d": true,
		"e": nil,
	})
}

func TestNonScalarRejected(t *testing.T) {
	t.Parallel()
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": []int{1, 2}}, "invalid parameter type")
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": map[string]any{"x": 1}}, "invalid parameter type")
}

func TestStringLengthCap(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", MaxStringLength+1)
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": long}, "string parameter too long")

	exact := strings.Repeat("x", MaxStringLength)
	assertNamedOK(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": exact})
}

// --- Defense-in-depth fragment scan ---

func TestQuoteAloneAccepted(t *testing.T) {
	t.Parallel()
	// Parameterization makes a quote harmless; O'Brien must pass.
	assertNamedOK(t, "SELECT 1 FROM t WHERE name = :name", map[string]any{"name": "O'Brien"})
}

func TestFragmentRejected(t *testing.T) {
	t.Parallel()
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": "x'; DROP TABLE t --"}, "SQL control syntax")
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": "x /* hidden */"}, "SQL control syntax")
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": "1; select * from secrets"}, "SQL control syntax")
}

// --- Placeholder matching ---

func TestMissingParameter(t *testing.T) {
	t.Parallel()
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a AND b = :b", map[string]any{"a": 1}, "no value was provided")
}

func TestExtraParameter(t *testing.T) {
	t.Parallel()
	assertNamedErr(t, "SELECT 1 FROM t WHERE a = :a", map[string]any{"a": 1, "b": 2}, "does not match any placeholder")
}

func TestCaseInsensitiveMatch(t *testing.T) {
	t.Parallel()
	assertNamedOK(t, "SELECT 1 FROM t WHERE a = :PARAM1", map[string]any{"param1": 1})
}

func TestRepeatedPlaceholderCountsOnce(t *testing.T) {
	t.Parallel()
	assertNamedOK(t, "SELECT 1 FROM t WHERE a = :p OR b = :p", map[string]any{"p": 1})
}

func TestPlaceholderInsideLiteralIgnored(t *testing.T) {
	t.Parallel()
	// ':30' inside the literal is not a bind placeholder.
	assertNamedOK(t, "SELECT 1 FROM t WHERE note = 'due at 10:30' AND a = :a", map[string]any{"a": 1})
}

func TestPlaceholderInsideCommentIgnored(t *testing.T) {
	t.Parallel()
	assertNamedOK(t, "SELECT 1 FROM t WHERE a = :a -- :ghost", map[string]any{"a": 1})
}

func TestNamedArgsDeterministicOrder(t *testing.T) {
	t.Parallel()
	args := assertNamedOK(t, "SELECT 1 FROM t WHERE a=:a AND b=:b AND c=:c", map[string]any{
		"c": 3, "a": 1, "b": 2,
	})
	want := []string{"a", "b", "c"}
	for i, arg := range args {
		named, ok := arg.(sql.NamedArg)
		if !ok {
			t.Fatalf("expected sql.NamedArg, got %T", arg)
		}
		if named.Name != want[i] {
			t.Fatalf("expected arg %d to be %q, got %q", i, want[i], named.Name)
		}
	}
}

// --- Positional parameters ---

func TestPositionalMatch(t *testing.T) {
	t.Parallel()
	args, err := Positional("SELECT 1 FROM t WHERE a = :1 AND b = :2", []any{1, "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestPositionalCountMismatch(t *testing.T) {
	t.Parallel()
	_, err := Positional("SELECT 1 FROM t WHERE a = :1 AND b = :2", []any{1})
	if err == nil || !strings.Contains(err.Error(), "parameter mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestPositionalValueValidation(t *testing.T) {
	t.Parallel()
	_, err := Positional("SELECT 1 FROM t WHERE a = :1", []any{[]byte("raw")})
	if err == nil || !strings.Contains(err.Error(), "invalid parameter type") {
		t.Fatalf("expected type error, got %v", err)
	}
}
