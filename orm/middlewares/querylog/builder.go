package querylog

import (
	"context"
	"log"
	"reflect"
	"unicode/utf8"

	"github.com/coderi421/kyuu-qv/orm"
)

// defaultMaxArgLen queryable values 的参数是整个序列化之后的数据，打印的时候截断
const defaultMaxArgLen = 256

type MiddlewareBuilder struct {
	logFunc   func(query string, args []any)
	maxArgLen int
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: func(query string, args []any) {
			log.Printf("sql: %s, args: %v \n", query, args)
		},
		maxArgLen: defaultMaxArgLen,
	}
}

func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

// MaxArgLen 字符串参数超过 n 个字节就截断，n <= 0 代表不截断
// 截断的位置会往前挪到字符的边界上
func (m *MiddlewareBuilder) MaxArgLen(n int) *MiddlewareBuilder {
	m.maxArgLen = n
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	if m.logFunc == nil {
		m.logFunc = NewBuilder().logFunc
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			q, err := qc.Builder.Build()
			if err != nil {
				// 构造 SQL 失败，交给后面去返回错误
				return next(ctx, qc)
			}
			m.logFunc(q.SQL, m.truncate(q.Args))
			return next(ctx, qc)
		}
	}
}

func (m *MiddlewareBuilder) truncate(args []any) []any {
	if m.maxArgLen <= 0 {
		return args
	}
	var res []any
	for i, arg := range args {
		val := reflect.ValueOf(arg)
		if val.Kind() != reflect.String || val.Len() <= m.maxArgLen {
			continue
		}
		if res == nil {
			// 不修改原本的参数
			res = make([]any, len(args))
			copy(res, args)
		}
		res[i] = cut(val.String(), m.maxArgLen) + "..."
	}
	if res == nil {
		return args
	}
	return res
}

// cut 最多保留 n 个字节，不会把一个字符切成两半
func cut(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
