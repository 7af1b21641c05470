package mutation

import (
	"strconv"
	"strings"
)

// Dialect captures the two things that differ between the supported
// databases when writing statements: placeholder style and identifier
// quoting.
type Dialect struct {
	Name string

	// Placeholder renders the n-th (1-based) bind parameter
	Placeholder func(n int) string

	// Quote wraps an identifier
	Quote func(ident string) string
}

// Postgres uses $1, $2, ... and double-quoted identifiers
var Postgres = Dialect{
	Name: "postgres",
	Placeholder: func(n int) string {
		return "$" + strconv.Itoa(n)
	},
	Quote: func(ident string) string {
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	},
}

// MySQL uses ? and backtick-quoted identifiers
var MySQL = Dialect{
	Name: "mysql",
	Placeholder: func(int) string {
		return "?"
	},
	Quote: func(ident string) string {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	},
}

// Rebind rewrites "?" placeholders into the dialect's style. Question marks
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteString(d.Placeholder(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
