package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-mysql-org/go-mysql/client"
	"github.com/go-mysql-org/go-mysql/mysql"

	"mygrate/pkg/pgcopy"
)

// MySQLConfig holds the source connection parameters.
type MySQLConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// MySQL streams rows from a MySQL-family server with a per-table connection
// and an unbuffered result set, so arbitrarily large tables never reside in
// memory.
type MySQL struct {
	cfg MySQLConfig
}

func NewMySQL(cfg MySQLConfig) *MySQL {
	return &MySQL{cfg: cfg}
}

func (m *MySQL) Stream(ctx context.Context, table string, columns []string, fn RowFunc) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	conn, err := client.Connect(addr, m.cfg.User, m.cfg.Password, m.cfg.Database)
	if err != nil {
		return fmt.Errorf("mysql connect to %s: %w", addr, err)
	}
	defer conn.Close()

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)

	vals := make([]pgcopy.Value, len(columns))
	var result mysql.Result
	err = conn.ExecuteSelectStreaming(query, &result, func(row []mysql.FieldValue) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		vals = vals[:0]
		for _, fv := range row {
			vals = append(vals, fieldValue(fv))
		}
		return fn(vals)
	}, nil)
	if err != nil {
		return fmt.Errorf("mysql query %q: %w", query, err)
	}
	return nil
}

// fieldValue renders a wire value back to its textual form. NULL is the only
// case that maps to an absent value; everything else, including the empty
// string, stays a present value.
func fieldValue(fv mysql.FieldValue) pgcopy.Value {
	switch fv.Type {
	case mysql.FieldValueTypeNull:
		return pgcopy.Null
	case mysql.FieldValueTypeUnsigned:
		return pgcopy.NewValue(strconv.FormatUint(fv.AsUint64(), 10))
	case mysql.FieldValueTypeSigned:
		return pgcopy.NewValue(strconv.FormatInt(fv.AsInt64(), 10))
	case mysql.FieldValueTypeFloat:
		return pgcopy.NewValue(strconv.FormatFloat(fv.AsFloat64(), 'g', -1, 64))
	default:
		return pgcopy.NewValue(string(fv.AsString()))
	}
}
