// Package format renders a fetched result set into a size-bounded
// textual form for consumption by a language model. Output is
// deterministic: the same result set and budget always render to the
// same bytes. Truncation happens only at record boundaries, with an
// explicit marker, so a caller can always tell a complete small result
// from a truncated large one.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultMaxLength is the output character budget applied when the
// caller supplies none.
const DefaultMaxLength = 1000

// TimestampLayout is the fixed rendering for date/time values.
// Locale-independent so output is reproducible across environments.
const TimestampLayout = "2006-01-02 15:04:05"

// NullToken is how SQL NULL renders. Never an empty string — an empty
// VARCHAR2 and a NULL must stay distinguishable in the output.
const NullToken = "NULL"

const recordSeparator = "--------------------------------------------------"

// ResultSet is one execution's fetched rows. Columns come verbatim
// from the driver's result descriptor; Rows align to Columns.
// RowLimitHit means fetching stopped at the row cap with more rows
// available on the server.
type ResultSet struct {
	Columns     []string
	Rows        [][]any
	RowLimitHit bool
}

// Rendered is the formatted response: one text blob plus markers the
// caller can branch on.
type Rendered struct {
	Text        string
	Truncated   bool // output budget forced rows to be omitted
	RowsShown   int
	RowsFetched int
}

// Render formats rs under a character budget of maxLength. maxLength
// <= 0 falls back to DefaultMaxLength. Records are rendered as
// labeled blocks (column name line, value line, dashed separator) —
// unambiguous value separation without column alignment.
func Render(rs ResultSet, maxLength int) Rendered {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	if len(rs.Rows) == 0 {
		text := "no rows returned"
		if rs.RowLimitHit {
			text += "\n(more rows available: increase max_rows)"
		}
		return Rendered{Text: text}
	}

	var blocks []string
	total := 0
	shown := 0
	for i, row := range rs.Rows {
		block := renderRecord(i+1, rs.Columns, row)
		blockLen := utf8.RuneCountInString(block)
		if shown > 0 && total+blockLen > maxLength {
			break
		}
		// The first record always renders, even over budget — an empty
		// response with a truncation marker would be useless.
		blocks = append(blocks, block)
		total += blockLen
		shown++
		if total > maxLength {
			break
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(blocks, "\n"))

	truncated := shown < len(rs.Rows)
	if truncated {
		omitted := len(rs.Rows) - shown
		fmt.Fprintf(&b, "\n... (output truncated at %d characters: %d of %d fetched rows omitted)", maxLength, omitted, len(rs.Rows))
	}

	fmt.Fprintf(&b, "\n\nrows shown: %d / rows fetched: %d", shown, len(rs.Rows))
	if rs.RowLimitHit {
		b.WriteString("\n(more rows available: increase max_rows)")
	}

	return Rendered{
		Text:        b.String(),
		Truncated:   truncated,
		RowsShown:   shown,
		RowsFetched: len(rs.Rows),
	}
}

// renderRecord renders one row as a labeled block:
//
//	row 1
//	IMAGE_ID:
//	5
//	--------------------------------------------------
func renderRecord(n int, columns []string, row []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "row %d\n", n)
	for i, col := range columns {
		var v any
		if i < len(row) {
			v = row[i]
		}
		b.WriteString(col)
		b.WriteString(":\n")
		b.WriteString(Cell(v))
		b.WriteByte('\n')
		b.WriteString(recordSeparator)
		b.WriteByte('\n')
	}
	return b.String()
}

// Cell renders a single value with fixed, locale-independent formats.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return NullToken
	case string:
		return val
	case time.Time:
		return val.Format(TimestampLayout)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []byte:
		// LOB/RAW contents are not useful as text; report size only.
		return fmt.Sprintf("<BINARY: %d bytes>", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}
