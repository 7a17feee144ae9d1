package orm

import (
	"context"
	"database/sql"
)

// RawQuerier 原生查询，SQL 和参数都不做任何处理
// 注意占位符需要按照方言来写
type RawQuerier[T any] struct {
	core
	sess Session
	sql  string
	args []any
}

// RawQuery 创建一个 RawQuerier 实例
// 泛型参数 T 是目标类型。
// 例如，如果查询 User 的数据，那么 T 就是 User
func RawQuery[T any](sess Session, query string, args ...any) *RawQuerier[T] {
	return &RawQuerier[T]{
		core: sess.getCore(),
		sess: sess,
		sql:  query,
		args: args,
	}
}

func (r *RawQuerier[T]) Build() (*Query, error) {
	return &Query{
		SQL:  r.sql,
		Args: r.args,
	}, nil
}

func (r *RawQuerier[T]) Exec(ctx context.Context) Result {
	res := exec(ctx, r.sess, r.core, &QueryContext{
		Type:    "RAW",
		Builder: r,
	})
	var sqlRes sql.Result
	if res.Result != nil {
		sqlRes, _ = res.Result.(sql.Result)
	}
	return Result{
		err: res.Err,
		res: sqlRes,
	}
}

func (r *RawQuerier[T]) Get(ctx context.Context) (*T, error) {
	// 获取 model 在中间件中使用
	m, err := modelOf[T](r.core)
	if err != nil {
		return nil, err
	}
	res := get[T](ctx, r.sess, r.core, &QueryContext{
		Type:    "RAW",
		Builder: r,
		Model:   m,
	})
	return resultOf[T](res)
}

func (r *RawQuerier[T]) GetMulti(ctx context.Context) ([]*T, error) {
	m, err := modelOf[T](r.core)
	if err != nil {
		return nil, err
	}
	res := getMulti[T](ctx, r.sess, r.core, &QueryContext{
		Type:    "RAW",
		Builder: r,
		Model:   m,
	})
	return resultsOf[T](res)
}
