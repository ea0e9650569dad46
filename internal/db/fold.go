package db

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is the SQL name of a Unicode-aware lowercase. SQLite's own
// lower() and LIKE only fold ASCII, which misses Vietnamese capitals.
const foldFunc = "fold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, foldValue); err != nil {
		panic("db: register fold: " + err.Error())
	}
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// searchPattern returns a LIKE pattern (escape char '\') matching value
// anywhere in a fold()ed column.
func searchPattern(value string) string {
	return "%" + escapeLike(strings.ToLower(value)) + "%"
}
