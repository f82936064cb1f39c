package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	name        string
	placeholder func(n int) string
	fold        func(expr string) string
	ilike       func(col, ph string) string
}

var sqliteDialect = dialect{
	name:        DriverSQLite,
	placeholder: func(int) string { return "?" },
	// fold is registered in fold.go; LIKE and lower() fold ASCII only.
	fold: func(expr string) string { return "fold(" + expr + ")" },
	ilike: func(col, ph string) string {
		return "fold(" + col + ") LIKE fold(" + ph + `) ESCAPE '\'`
	},
}

var postgresDialect = dialect{
	name:        DriverPostgres,
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	fold:        func(expr string) string { return "lower(" + expr + ")" },
	ilike: func(col, ph string) string {
		return col + " ILIKE " + ph + ` ESCAPE '\'`
	},
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "", DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("store: unsupported driver %q", driver)
	}
}

// builder accumulates SQL text and positional arguments.
type builder struct {
	d    dialect
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return b.d.placeholder(len(b.args))
}

// condition compiles a single predicate against a resolved column.
func (b *builder) condition(col string, p Predicate) (string, error) {
	switch p.Op {
	case OpEq:
		return col + " = " + b.arg(p.Value), nil
	case OpILike:
		return b.d.ilike(col, b.arg(p.Value)), nil
	case OpIn, OpInFold:
		if len(p.Values) == 0 {
			return "1 = 0", nil
		}
		phs := make([]string, len(p.Values))
		for i, v := range p.Values {
			if p.Op == OpInFold {
				phs[i] = b.d.fold(b.arg(v))
			} else {
				phs[i] = b.arg(v)
			}
		}
		if p.Op == OpInFold {
			col = b.d.fold(col)
		}
		return col + " IN (" + strings.Join(phs, ", ") + ")", nil
	default:
		return "", fmt.Errorf("store: unsupported operator %d", p.Op)
	}
}
