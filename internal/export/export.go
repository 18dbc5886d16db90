// Package export writes view rows as comma-delimited text.
//
// Values are written verbatim: a value containing a comma or a newline
// produces a malformed line. Consumers that need quoting should not use
// this format.
package export

import "strings"

// Row exposes a field value by name.
type Row interface {
	Field(name string) string
}

// Column maps a row field to its header text.
type Column struct {
	Field  string `json:"field"`
	Header string `json:"header"`
}

// DelimitedText renders a header line then one line per row, in order.
// Every line, the last included, ends in "\n".
func DelimitedText[R Row](rows []R, columns []Column) string {
	var b strings.Builder
	values := make([]string, len(columns))

	for i, c := range columns {
		values[i] = c.Header
	}
	writeLine(&b, values)

	for _, r := range rows {
		for i, c := range columns {
			values[i] = r.Field(c.Field)
		}
		writeLine(&b, values)
	}
	return b.String()
}

func writeLine(b *strings.Builder, values []string) {
	b.WriteString(strings.Join(values, ","))
	b.WriteByte('\n')
}
