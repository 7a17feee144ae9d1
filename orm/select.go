package orm

import (
	"context"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
)

// Selector represents a query selector that allows building SQL SELECT statements.
// It holds the necessary information to construct the query.
type Selector[T any] struct {
	builder

	sess    Session
	table   TableReference // table 为 nil 的时候使用 T 对应的表
	where   []Predicate    // where holds the WHERE predicates for the query.
	having  []Predicate
	columns []Selectable
	groupBy []Column
	orderBy []OrderBy
	offset  int
	limit   int

	// plan rewriter 处理之后的查询树，Build 只使用它
	plan *selectPlan
}

type selectPlan struct {
	table  TableReference
	where  []Predicate
	having []Predicate
}

// NewSelector creates a new instance of Selector.
// sess 可以是 *DB 也可以是 *Tx
func NewSelector[T any](sess Session) *Selector[T] {
	return &Selector[T]{
		builder: builder{
			core: sess.getCore(),
		},
		sess: sess,
	}
}

// Select 检索指定 column
func (s *Selector[T]) Select(cols ...Selectable) *Selector[T] {
	s.columns = cols
	s.plan = nil
	return s
}

// From 指定表，可以是 TableOf 返回的表，Join，也可以是 queryable values
func (s *Selector[T]) From(tbl TableReference) *Selector[T] {
	s.table = tbl
	s.plan = nil
	return s
}

// Where 用于构造 WHERE 查询条件。如果 ps 长度为 0，那么不会构造 WHERE 部分
func (s *Selector[T]) Where(ps ...Predicate) *Selector[T] {
	s.where = ps
	s.plan = nil
	return s
}

func (s *Selector[T]) GroupBy(cols ...Column) *Selector[T] {
	s.groupBy = cols
	return s
}

func (s *Selector[T]) Having(ps ...Predicate) *Selector[T] {
	s.having = ps
	s.plan = nil
	return s
}

func (s *Selector[T]) Offset(offset int) *Selector[T] {
	s.offset = offset
	return s
}

func (s *Selector[T]) Limit(limit int) *Selector[T] {
	s.limit = limit
	return s
}

func (s *Selector[T]) OrderBy(orderBys ...OrderBy) *Selector[T] {
	s.orderBy = orderBys
	return s
}

// translate 找到 T 的元数据，然后依次执行 rewriter
// queryable values 在这一步被替换成虚拟表，所以会序列化数据，可能还会探测数据库
func (s *Selector[T]) translate(ctx context.Context) error {
	var err error
	s.model, err = modelOf[T](s.core)
	if err != nil {
		return err
	}
	if tbl, ok := s.table.(Table); ok && s.model == nil {
		// 查询标量的时候，列名按照 FROM 的表来解析
		if s.model, err = s.r.Get(tbl.entity); err != nil {
			return err
		}
	}
	plan := &selectPlan{
		table:  s.table,
		where:  s.where,
		having: s.having,
	}
	rc := &RewriteContext{Context: ctx, Session: s.sess}
	for _, rw := range s.rewriters {
		tbl, err := walk(rc, rw, plan.table)
		if err != nil {
			return err
		}
		plan.table = asTable(tbl)
		if plan.where, err = walkPredicates(rc, rw, plan.where); err != nil {
			return err
		}
		if plan.having, err = walkPredicates(rc, rw, plan.having); err != nil {
			return err
		}
	}
	s.plan = plan
	return nil
}

// Build generates a SQL query.
// 直接调用 Build 的时候使用 context.Background() 来执行 rewriter
func (s *Selector[T]) Build() (*Query, error) {
	if s.plan == nil {
		if err := s.translate(context.Background()); err != nil {
			return nil, err
		}
	}
	s.reset()

	s.sb.WriteString("SELECT ")
	if err := s.buildColumns(); err != nil {
		return nil, err
	}
	s.sb.WriteString(" FROM ")
	if s.plan.table == nil && s.model == nil {
		return nil, errs.NewErrUnsupportedTable(s.plan.table)
	}
	if err := s.buildTable(s.plan.table); err != nil {
		return nil, err
	}

	// 类似这种可有可无的部分，都要在前面加一个空格
	if len(s.plan.where) > 0 {
		s.sb.WriteString(" WHERE ")
		if err := s.buildPredicates(s.plan.where); err != nil {
			return nil, err
		}
	}

	// 分组
	if len(s.groupBy) > 0 {
		s.sb.WriteString(" GROUP BY ")
		for i, c := range s.groupBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			if err := s.buildColumn(c, false); err != nil {
				return nil, err
			}
		}
	}

	// 筛选
	if len(s.plan.having) > 0 {
		s.sb.WriteString(" HAVING ")
		if err := s.buildPredicates(s.plan.having); err != nil {
			return nil, err
		}
	}

	// 排序
	if len(s.orderBy) > 0 {
		s.sb.WriteString(" ORDER BY ")
		if err := s.buildOrderBy(); err != nil {
			return nil, err
		}
	}

	// 分页，不同数据库写法不一样
	s.dialect.buildLimit(&s.builder, s.limit, s.offset, len(s.orderBy) > 0)

	s.sb.WriteString(";")

	return &Query{
		SQL:  s.sb.String(),
		Args: s.args,
	}, nil
}

func (s *Selector[T]) buildColumns() error {
	if len(s.columns) == 0 {
		s.sb.WriteByte('*')
		return nil
	}

	for i, c := range s.columns {
		if i > 0 {
			s.sb.WriteByte(',')
		}

		switch val := c.(type) {
		case Column:
			if err := s.buildColumn(val, true); err != nil {
				return err
			}
		case Aggregate:
			if err := s.buildAggregate(val, true); err != nil {
				return err
			}
		case RawExpr:
			s.sb.WriteString(val.raw)
			if len(val.args) != 0 {
				s.addArgs(val.args...)
			}
		default:
			return errs.NewErrUnsupportedSelectable(c)
		}
	}

	return nil
}

func (s *Selector[T]) buildOrderBy() error {
	for i, ob := range s.orderBy {
		if i > 0 {
			s.sb.WriteByte(',')
		}
		if err := s.builder.buildColumn(ob.col); err != nil {
			return err
		}
		s.sb.WriteByte(' ')
		s.sb.WriteString(ob.order)
	}
	return nil
}

func (s *Selector[T]) buildColumn(c Column, useAlias bool) error {
	err := s.builder.buildColumn(c)
	if err != nil {
		return err
	}
	// 有的时候不需要拼接别名
	if useAlias {
		s.buildAs(c.alias)
	}
	return nil
}

// Get 执行查询，返回第一行
// 没有数据的时候返回 ErrNoRows
func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	if err := s.translate(ctx); err != nil {
		return nil, err
	}
	res := get[T](ctx, s.sess, s.core, &QueryContext{
		Type:    "SELECT",
		Builder: s,
		Model:   s.model,
	})
	return resultOf[T](res)
}

func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	if err := s.translate(ctx); err != nil {
		return nil, err
	}
	res := getMulti[T](ctx, s.sess, s.core, &QueryContext{
		Type:    "SELECT",
		Builder: s,
		Model:   s.model,
	})
	return resultsOf[T](res)
}

// Selectable 暂时没什么作用只是用作标记，可检索指定字段的标记
// 让 聚合函数， columns， 以及 RawExpr（原生sql） 都能作为参数传入统一个函数，做统一处理
type Selectable interface {
	selectable()
}

type OrderBy struct {
	col   Column
	order string
}

// ASC 主表上的字段升序
func ASC(col string) OrderBy {
	return C(col).Asc()
}

func Desc(col string) OrderBy {
	return C(col).Desc()
}
