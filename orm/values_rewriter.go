package orm

import (
	"context"

	"github.com/coderi421/kyuu-qv/orm/internal/payload"
)

// valuesRewriter 把 queryable values 替换成数据库能执行的虚拟表
type valuesRewriter struct{}

func (valuesRewriter) Rewrite(rc *RewriteContext, n any) (any, bool, error) {
	switch t := n.(type) {
	case *valuesTable:
		// 已经翻译过了
		return t, true, nil
	case valuesSource:
		c := rc.Session.getCore()
		if c.values == nil {
			return nil, false, nil
		}
		f := resolveFormat(rc, c)
		vt, err := newValuesTable(c, t, f)
		if err != nil {
			return nil, false, err
		}
		return vt, true, nil
	default:
		return nil, false, nil
	}
}

// resolveFormat 明确指定了格式就用指定的，否则看数据库是否支持 JSON
func resolveFormat(rc *RewriteContext, c core) payload.Format {
	switch c.values.serialization {
	case SerializationJSON:
		return payload.JSON
	case SerializationXML:
		return payload.XML
	}
	if c.detector.Supported(rc, rc.Session.connKey(), jsonProbe(rc.Session, c)) {
		return payload.JSON
	}
	return payload.XML
}

// jsonProbe 在当前的 Session 上执行探测语句，也会经过 middleware
func jsonProbe(sess Session, c core) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		res := get[int](ctx, sess, c, &QueryContext{
			Type:    "PROBE",
			Builder: rawBuilder{sql: c.dialect.jsonProbe()},
		})
		if res.Err == nil {
			return true, nil
		}
		if c.dialect.definitive(res.Err) {
			return false, nil
		}
		return false, res.Err
	}
}

// rawBuilder 直接返回 SQL，不做任何处理
type rawBuilder struct {
	sql  string
	args []any
}

func (r rawBuilder) Build() (*Query, error) {
	return &Query{
		SQL:  r.sql,
		Args: r.args,
	}, nil
}
