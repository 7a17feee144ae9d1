package orm

import (
	"strings"

	"github.com/coderi421/kyuu-qv/orm/internal/payload"
)

var (
	MySQL     Dialect = &mysqlDialect{}
	SQLite3   Dialect = &sqlite3Dialect{}
	SQLServer Dialect = &sqlServerDialect{}
)

// Dialect 屏蔽不同数据库之间的差异
// 方法都是私有的，暂时不允许用户自己扩展
type Dialect interface {
	name() string
	// quote 给标识符加上引号
	quote(name string) string
	// bindVar 第 idx 个参数的占位符，idx 从 1 开始
	bindVar(idx int) string
	buildLimit(b *builder, limit, offset int, ordered bool)

	// valuesStrategy 返回 queryable values 在这个数据库上的序列化策略
	valuesStrategy(f payload.Format) (valuesStrategy, bool)
	// jsonProbe 一个没有副作用的语句，能执行成功就说明支持 JSON 表函数
	jsonProbe() string
	// definitive 判断 probe 的错误是不是数据库明确拒绝了这个语句
	// 是的话说明不支持，否则只是这一次没探测成功
	definitive(err error) bool
	// payloadArg 序列化之后的参数，有些驱动需要特殊的类型
	payloadArg(s string) any
}

type standardSQL struct {
}

func (s standardSQL) quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (s standardSQL) bindVar(int) string {
	return "?"
}

func (s standardSQL) buildLimit(b *builder, limit, offset int, _ bool) {
	if limit > 0 {
		b.sb.WriteString(" LIMIT ")
		b.param(limit)
	}
	if offset > 0 {
		b.sb.WriteString(" OFFSET ")
		b.param(offset)
	}
}

func (s standardSQL) payloadArg(str string) any {
	return str
}

func (s standardSQL) valuesStrategy(payload.Format) (valuesStrategy, bool) {
	return nil, false
}

// dialectOf 根据驱动名找到默认的方言
func dialectOf(driver string) Dialect {
	switch driver {
	case "mysql":
		return MySQL
	case "sqlite3":
		return SQLite3
	case "sqlserver", "mssql":
		return SQLServer
	default:
		return nil
	}
}
