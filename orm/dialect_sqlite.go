package orm

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/coderi421/kyuu-qv/orm/internal/payload"
	"github.com/mattn/go-sqlite3"
)

type sqlite3Dialect struct {
	standardSQL
}

func (s *sqlite3Dialect) name() string {
	return "sqlite3"
}

// valuesStrategy sqlite 没有 XML 相关的函数
func (s *sqlite3Dialect) valuesStrategy(f payload.Format) (valuesStrategy, bool) {
	if f == payload.JSON {
		return sqliteJSON{}, true
	}
	return nil, false
}

func (s *sqlite3Dialect) jsonProbe() string {
	return "SELECT COUNT(*) FROM json_each('[1]')"
}

// definitive 没有编译 JSON1 扩展的时候是 no such table: json_each
// BUSY、LOCKED 这些都只是这一次失败
func (s *sqlite3Dialect) definitive(err error) bool {
	var e sqlite3.Error
	if !errors.As(err, &e) || e.Code != sqlite3.ErrError {
		return false
	}
	msg := e.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "no such function")
}

func sqliteType(k payload.Kind) string {
	switch k {
	case payload.Bool, payload.TinyInt, payload.SmallInt, payload.Int, payload.BigInt:
		return "INTEGER"
	case payload.Real, payload.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}

// sqliteJSON
// (SELECT CAST(json_extract(`value`, '$.v') AS INTEGER) AS `v` FROM json_each(?) ORDER BY `key`)
type sqliteJSON struct{}

func (sqliteJSON) format() payload.Format { return payload.JSON }

// options uint64 按字符串传，CAST 成 TEXT，扫描的时候再解析
func (sqliteJSON) options() payload.Options {
	return payload.Options{DecimalAsString: true}
}

func (sqliteJSON) render(tb *templateBuilder, d Dialect, s *payload.Schema, withTop bool) {
	tb.write("(SELECT ")
	for i, c := range s.Columns {
		if i > 0 {
			tb.write(", ")
		}
		tb.write("CAST(json_extract(`value`, '$.")
		tb.write(c.Name)
		tb.write("') AS ")
		tb.write(sqliteType(c.Kind))
		tb.write(") AS ")
		tb.write(d.quote(c.Name))
	}
	tb.write(" FROM json_each(")
	tb.slot(slotPayload)
	// json_each 的 key 就是数组下标
	tb.write(") ORDER BY `key`")
	if withTop {
		tb.write(" LIMIT ")
		tb.slot(slotCount)
	}
	tb.writeByte(')')
}
