package orm

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/coderi421/kyuu-qv/orm/internal/payload"
	mssql "github.com/denisenkom/go-mssqldb"
)

// sqlServerTimeLayout datetimeoffset(7) 能直接解析的格式
const sqlServerTimeLayout = "2006-01-02T15:04:05.9999999-07:00"

type sqlServerDialect struct {
	standardSQL
}

func (s *sqlServerDialect) name() string {
	return "sqlserver"
}

func (s *sqlServerDialect) quote(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// bindVar sqlserver 驱动使用 @p1 @p2 这种占位符
func (s *sqlServerDialect) bindVar(idx int) string {
	return "@p" + strconv.Itoa(idx)
}

// buildLimit OFFSET FETCH 必须跟在 ORDER BY 后面
func (s *sqlServerDialect) buildLimit(b *builder, limit, offset int, ordered bool) {
	if limit <= 0 && offset <= 0 {
		return
	}
	if !ordered {
		b.sb.WriteString(" ORDER BY (SELECT NULL)")
	}
	b.sb.WriteString(" OFFSET ")
	b.param(offset)
	b.sb.WriteString(" ROWS")
	if limit > 0 {
		b.sb.WriteString(" FETCH NEXT ")
		b.param(limit)
		b.sb.WriteString(" ROWS ONLY")
	}
}

func (s *sqlServerDialect) valuesStrategy(f payload.Format) (valuesStrategy, bool) {
	switch f {
	case payload.JSON:
		return sqlServerJSON{}, true
	case payload.XML:
		return sqlServerXML{}, true
	default:
		return nil, false
	}
}

// jsonProbe 兼容级别低于 130 的时候 OPENJSON 不可用
func (s *sqlServerDialect) jsonProbe() string {
	return "SELECT COUNT(*) FROM OPENJSON(N'[1]')"
}

// definitive 208 Invalid object name 'OPENJSON'
// 195 is not a recognized built-in function name
// 死锁（1205）、超时这些都不算
func (s *sqlServerDialect) definitive(err error) bool {
	var e mssql.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Number == 208 || e.Number == 195
}

// payloadArg 用 nvarchar(max) 传参，避免驱动按照 nvarchar(4000) 截断
func (s *sqlServerDialect) payloadArg(str string) any {
	return mssql.NVarCharMax(str)
}

func sqlServerType(k payload.Kind) string {
	switch k {
	case payload.Bool:
		return "bit"
	case payload.TinyInt:
		return "tinyint"
	case payload.SmallInt:
		return "smallint"
	case payload.Int:
		return "int"
	case payload.BigInt:
		return "bigint"
	case payload.Decimal:
		return "decimal(20,0)"
	case payload.Real:
		return "real"
	case payload.Float:
		return "float"
	case payload.Time:
		return "datetimeoffset(7)"
	case payload.GUID:
		return "uniqueidentifier"
	default:
		return "nvarchar(max)"
	}
}

// sqlServerJSON
// (SELECT [v] FROM OPENJSON(@p1) WITH ([v] int '$.v'))
type sqlServerJSON struct{}

func (sqlServerJSON) format() payload.Format { return payload.JSON }

func (sqlServerJSON) options() payload.Options {
	return payload.Options{TimeLayout: sqlServerTimeLayout}
}

func (sqlServerJSON) render(tb *templateBuilder, d Dialect, s *payload.Schema, withTop bool) {
	tb.write("(SELECT ")
	if withTop {
		tb.write("TOP(")
		tb.slot(slotCount)
		tb.write(") ")
	}
	for i, c := range s.Columns {
		if i > 0 {
			tb.write(", ")
		}
		tb.write(d.quote(c.Name))
	}
	tb.write(" FROM OPENJSON(")
	tb.slot(slotPayload)
	tb.write(") WITH (")
	for i, c := range s.Columns {
		if i > 0 {
			tb.write(", ")
		}
		tb.write(d.quote(c.Name))
		tb.writeByte(' ')
		tb.write(sqlServerType(c.Kind))
		tb.write(" '$.")
		tb.write(c.Name)
		tb.writeByte('\'')
	}
	tb.write("))")
}

// sqlServerXML
// (SELECT n.c.value('(v[not(@nil)])[1]', 'int') AS [v]
// FROM (SELECT CONVERT(xml, @p1, 1) AS x) AS d CROSS APPLY d.x.nodes('/R/r') AS n(c))
type sqlServerXML struct{}

func (sqlServerXML) format() payload.Format { return payload.XML }

func (sqlServerXML) options() payload.Options {
	return payload.Options{TimeLayout: sqlServerTimeLayout}
}

func (sqlServerXML) render(tb *templateBuilder, d Dialect, s *payload.Schema, withTop bool) {
	tb.write("(SELECT ")
	if withTop {
		tb.write("TOP(")
		tb.slot(slotCount)
		tb.write(") ")
	}
	for i, c := range s.Columns {
		if i > 0 {
			tb.write(", ")
		}
		// 带 nil 属性的元素取不到值，结果就是 NULL
		tb.write("n.c.value('(")
		tb.write(c.Name)
		tb.write("[not(@" + payload.XMLNil + ")])[1]', '")
		tb.write(sqlServerType(c.Kind))
		tb.write("') AS ")
		tb.write(d.quote(c.Name))
	}
	// style 1 保留空白，CAST 会把只有空白的文本节点丢掉
	tb.write(" FROM (SELECT CONVERT(xml, ")
	tb.slot(slotPayload)
	tb.write(", 1) AS x) AS d CROSS APPLY d.x.nodes('/" + payload.XMLRoot + "/" + payload.XMLRow + "') AS n(c))")
}
