package orm

import (
	"github.com/cockroachdb/errors"
	"github.com/coderi421/kyuu-qv/orm/internal/payload"
	"github.com/go-sql-driver/mysql"
)

const mysqlTimeLayout = "2006-01-02 15:04:05.999999"

type mysqlDialect struct {
	standardSQL
}

func (m *mysqlDialect) name() string {
	return "mysql"
}

func (m *mysqlDialect) valuesStrategy(f payload.Format) (valuesStrategy, bool) {
	if f == payload.JSON {
		return mysqlJSON{}, true
	}
	return nil, false
}

// jsonProbe JSON_TABLE 是 8.0 之后才有的
func (m *mysqlDialect) jsonProbe() string {
	return "SELECT COUNT(*) FROM JSON_TABLE('[1]', '$[*]' COLUMNS(`v` INT PATH '$')) AS `jt`"
}

// definitive 只有语法错误和函数不存在才说明不支持
// 1064 ER_PARSE_ERROR，5.7 不认识 JSON_TABLE
// 1305 ER_SP_DOES_NOT_EXIST
func (m *mysqlDialect) definitive(err error) bool {
	var e *mysql.MySQLError
	if !errors.As(err, &e) {
		return false
	}
	return e.Number == 1064 || e.Number == 1305
}

func mysqlType(k payload.Kind) string {
	switch k {
	case payload.Bool:
		return "BOOLEAN"
	case payload.TinyInt:
		return "TINYINT UNSIGNED"
	case payload.SmallInt:
		return "SMALLINT"
	case payload.Int:
		return "INT"
	case payload.BigInt:
		return "BIGINT"
	case payload.Decimal:
		return "DECIMAL(20,0)"
	case payload.Real:
		return "FLOAT"
	case payload.Float:
		return "DOUBLE"
	case payload.Time:
		return "DATETIME(6)"
	case payload.GUID:
		return "CHAR(36)"
	default:
		return "LONGTEXT"
	}
}

// mysqlJSON
// (SELECT `jt`.`v` FROM JSON_TABLE(?, '$[*]' COLUMNS(`v` BIGINT PATH '$.v')) AS `jt`)
type mysqlJSON struct{}

func (mysqlJSON) format() payload.Format { return payload.JSON }

// options DATETIME 不带时区，统一转成 UTC
func (mysqlJSON) options() payload.Options {
	return payload.Options{TimeLayout: mysqlTimeLayout, UTC: true}
}

func (mysqlJSON) render(tb *templateBuilder, d Dialect, s *payload.Schema, withTop bool) {
	tb.write("(SELECT ")
	for i, c := range s.Columns {
		if i > 0 {
			tb.write(", ")
		}
		tb.write(d.quote("jt"))
		tb.writeByte('.')
		tb.write(d.quote(c.Name))
	}
	tb.write(" FROM JSON_TABLE(")
	tb.slot(slotPayload)
	tb.write(", '$[*]' COLUMNS(")
	for i, c := range s.Columns {
		if i > 0 {
			tb.write(", ")
		}
		tb.write(d.quote(c.Name))
		tb.writeByte(' ')
		tb.write(mysqlType(c.Kind))
		tb.write(" PATH '$.")
		tb.write(c.Name)
		tb.writeByte('\'')
	}
	tb.write(")) AS ")
	tb.write(d.quote("jt"))
	if withTop {
		tb.write(" LIMIT ")
		tb.slot(slotCount)
	}
	tb.writeByte(')')
}
