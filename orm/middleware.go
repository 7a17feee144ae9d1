package orm

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/model"
	"github.com/google/uuid"
)

// QueryContext 中间件的上下文，冗余了 Builder model 等，是因为还没有执行 sql 前，有的中间件，需要使用这些信息
type QueryContext struct {
	// Type 声明查询类型。即 SELECT, INSERT, RAW 和 PROBE
	// PROBE 是探测数据库能力的语句
	Type string

	// builder 使用的时候，大多数情况下你需要转换到具体的类型
	// 才能篡改查询
	Builder QueryBuilder
	// Model 主表的元数据，PROBE 以及没有主表的时候为 nil
	// 只是给 middleware 看的，结果集怎么映射只取决于 T
	Model *model.Model
}

type QueryResult struct {
	// Result 在不同的查询里面，类型是不同的
	// Selector.Get 里面，这会是单个结果
	// Selector.GetMulti，这会是一个切片
	// 其它情况下，它会是 sql.Result 类型
	Result any
	Err    error
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult

// chain 从后往前把 middleware 包起来，第一个 middleware 在最外层
func chain(mdls []Middleware, root Handler) Handler {
	for i := len(mdls) - 1; i >= 0; i-- {
		root = mdls[i](root)
	}
	return root
}

func get[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	root := func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getHandler[T](ctx, sess, c, qc)
	}
	return chain(c.mdls, root)(ctx, qc)
}

func getHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}
	meta, err := modelOf[T](c)
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return &QueryResult{Err: err}
		}
		return &QueryResult{Err: ErrNoRows}
	}
	tp := new(T)
	if err = scanRow(c, rows, tp, meta); err != nil {
		return &QueryResult{Err: err}
	}
	return &QueryResult{Result: tp}
}

func getMulti[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	root := func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getMultiHandler[T](ctx, sess, c, qc)
	}
	return chain(c.mdls, root)(ctx, qc)
}

func getMultiHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}
	meta, err := modelOf[T](c)
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer func() { _ = rows.Close() }()

	res := make([]*T, 0, 8)
	for rows.Next() {
		tp := new(T)
		if err = scanRow(c, rows, tp, meta); err != nil {
			return &QueryResult{Err: err}
		}
		res = append(res, tp)
	}
	if err = rows.Err(); err != nil {
		return &QueryResult{Err: err}
	}
	return &QueryResult{Result: res}
}

func exec(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	root := func(ctx context.Context, qc *QueryContext) *QueryResult {
		q, err := qc.Builder.Build()
		if err != nil {
			return &QueryResult{Err: err}
		}
		res, err := sess.execContext(ctx, q.SQL, q.Args...)
		return &QueryResult{Result: res, Err: err}
	}
	return chain(c.mdls, root)(ctx, qc)
}

// scanRow 结构体用 valuer 按列名映射，其它类型直接 Scan
func scanRow(c core, rows *sql.Rows, tp any, meta *model.Model) error {
	if meta == nil {
		return rows.Scan(tp)
	}
	return c.valCreator(tp, meta).SetColumns(rows)
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
)

// modelOf 标量类型（包括 time.Time，sql.NullString 这种实现了 Scanner 的结构体）返回 nil
func modelOf[T any](c core) (*model.Model, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct || typ == timeType || typ == uuidType ||
		reflect.PtrTo(typ).Implements(scannerType) {
		return nil, nil
	}
	return c.r.Get(new(T))
}

// resultOf 从 QueryResult 中取出 *T
func resultOf[T any](res *QueryResult) (*T, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	if t, ok := res.Result.(*T); ok {
		return t, nil
	}
	return nil, errs.ErrNoRows
}

func resultsOf[T any](res *QueryResult) ([]*T, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	ts, _ := res.Result.([]*T)
	return ts, nil
}
