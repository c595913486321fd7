package sqldb

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Dialect captures the few behavioral differences between the supported
// backends. Queries in this package are written with Postgres $N
// placeholders and rebound for sqlite.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// NewDialect maps a database/sql driver name to a Dialect.
func NewDialect(driver string) Dialect {
	if driver == "postgres" {
		return Postgres
	}
	return SQLite
}

// SupportsRowLocking reports whether SELECT ... FOR UPDATE is available.
// sqlite has no row locks; the sequence allocator degrades gracefully there.
func (d Dialect) SupportsRowLocking() bool {
	return d == Postgres
}

// rebind converts $N placeholders to ? for sqlite. Argument order in this
// package always matches placeholder order, so positional ? is equivalent.
func (d Dialect) rebind(query string) string {
	if d == Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			b.WriteByte(query[i])
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte('$')
			continue
		}
		b.WriteByte('?')
		i = j - 1
	}
	return b.String()
}

// IsUniqueViolation reports whether err is a uniqueness constraint failure
// on either backend. Used by the record service to retry the sequence-number
// race exactly once.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
