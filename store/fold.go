package store

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// Fold is the case folding behind every case-insensitive match: ILike,
// InFold and the unique tag name. SQLite's lower() folds ASCII only, so the
// same folding is registered there as fold().
func Fold(s string) string {
	return strings.ToLower(s)
}

func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold", 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return Fold(v), nil
		case []byte:
			return Fold(string(v)), nil
		default:
			return v, nil
		}
	})
}
