package orm

import (
	"strings"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/model"
)

type builder struct {
	core
	sb    strings.Builder // sb is used to build the SQL query string.
	args  []any           // args holds the arguments for the query.
	model *model.Model    // model is the model associated with the main table.
}

func (b *builder) reset() {
	b.sb.Reset()
	b.args = nil
}

func (b *builder) quote(name string) {
	b.sb.WriteString(b.dialect.quote(name))
}

// param 把参数加入参数列表，并写入对应的占位符
// 占位符的编号依赖参数的顺序，所以必须按照 SQL 文本的顺序调用
func (b *builder) param(arg any) {
	b.addArgs(arg)
	b.sb.WriteString(b.dialect.bindVar(len(b.args)))
}

// buildPredicates 用 AND 把多个 Predicate 合并起来
func (b *builder) buildPredicates(ps []Predicate) error {
	p := ps[0]
	for i := 1; i < len(ps); i++ {
		p = p.And(ps[i])
	}
	return b.buildExpression(p)
}

// buildExpression builds the SQL query for the given expression.
// It takes an expression as input and recursively constructs the SQL query.
func (b *builder) buildExpression(e Expression) error {
	// Column 代表是列名，直接拼接列名
	// value 代表参数，加入参数列表
	// Predicate 代表一个查询条件，左右两边是 Predicate 的时候加上括号
	if e == nil {
		return nil
	}

	switch expr := e.(type) {
	case Column:
		return b.buildColumn(expr)
	case Aggregate:
		return b.buildAggregate(expr, false)
	case value:
		b.param(expr.val)
	case RawExpr:
		// 原生 sql 语句，ORM 不做任何处理
		b.sb.WriteString(expr.raw)
		if len(expr.args) != 0 {
			b.addArgs(expr.args...)
		}
	case valueList:
		b.sb.WriteByte('(')
		for i, v := range expr.vals {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			b.param(v)
		}
		b.sb.WriteByte(')')
	case valuesIn:
		return b.buildValuesIn(expr)
	case MathExpr:
		return b.buildBinary(expr.left, expr.op, expr.right)
	case Predicate:
		return b.buildBinary(expr.left, expr.op, expr.right)
	default:
		return errs.NewErrUnsupportedExpressionType(expr)
	}
	return nil
}

func (b *builder) buildBinary(left Expression, o op, right Expression) error {
	if err := b.buildSubExpr(left); err != nil {
		return err
	}
	if o == "" {
		// 只有左边，例如 Raw(...).AsPredicate()
		return nil
	}
	if left != nil {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteString(o.String())
	b.sb.WriteByte(' ')
	return b.buildSubExpr(right)
}

// buildSubExpr 复杂结构在外边套一层括号
func (b *builder) buildSubExpr(e Expression) error {
	switch e.(type) {
	case Predicate, MathExpr:
		b.sb.WriteByte('(')
		if err := b.buildExpression(e); err != nil {
			return err
		}
		b.sb.WriteByte(')')
		return nil
	default:
		return b.buildExpression(e)
	}
}

// buildColumn 根据列所在的表找到列名
// 有别名的表，列名前面带上别名
func (b *builder) buildColumn(c Column) error {
	switch table := c.table.(type) {
	case nil:
		if b.model == nil {
			return errs.NewErrUnknownField(c.name)
		}
		fd, ok := b.model.FieldMap[c.name]
		if !ok {
			return errs.NewErrUnknownField(c.name)
		}
		b.quote(fd.ColName)
	case Table:
		m, err := b.r.Get(table.entity)
		if err != nil {
			return err
		}
		fd, ok := m.FieldMap[c.name]
		if !ok {
			return errs.NewErrUnknownField(c.name)
		}
		if table.alias != "" {
			b.quote(table.alias)
			b.sb.WriteByte('.')
		}
		b.quote(fd.ColName)
	case valuesSource:
		col, ok := table.valuesSchema().Column(c.name)
		if !ok {
			return errs.NewErrUnknownField(c.name)
		}
		b.quote(table.tableAlias())
		b.sb.WriteByte('.')
		b.quote(col.Name)
	default:
		return errs.NewErrUnsupportedTable(table)
	}
	return nil
}

func (b *builder) buildAggregate(a Aggregate, useAlias bool) error {
	b.sb.WriteString(a.fn)
	b.sb.WriteByte('(')
	if err := b.buildColumn(Column{table: a.table, name: a.arg}); err != nil {
		return err
	}
	b.sb.WriteByte(')')
	if useAlias {
		b.buildAs(a.alias)
	}
	return nil
}

func (b *builder) buildAs(alias string) {
	if alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(alias)
	}
}

// buildTable 构造 FROM 或者 JOIN 后面的部分
func (b *builder) buildTable(table TableReference) error {
	switch t := table.(type) {
	case nil:
		b.quote(b.model.TableName)
	case Table:
		m, err := b.r.Get(t.entity)
		if err != nil {
			return err
		}
		b.quote(m.TableName)
		b.buildAs(t.alias)
	case Join:
		return b.buildJoin(t)
	case *valuesTable:
		t.build(b)
		b.buildAs(t.tableAlias())
	case valuesSource:
		// 没有被 rewriter 替换掉的 queryable values
		return errs.NewErrValuesNotTranslated(t.tableAlias())
	default:
		return errs.NewErrUnsupportedTable(t)
	}
	return nil
}

func (b *builder) buildJoin(j Join) error {
	b.sb.WriteByte('(')
	if err := b.buildTable(j.left); err != nil {
		return err
	}
	b.sb.WriteByte(' ')
	b.sb.WriteString(j.typ)
	b.sb.WriteByte(' ')
	if err := b.buildTable(j.right); err != nil {
		return err
	}
	if len(j.using) > 0 {
		if b.dialect.name() == "sqlserver" {
			return errs.NewErrUnsupportedJoinUsing(b.dialect.name())
		}
		b.sb.WriteString(" USING (")
		for i, col := range j.using {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			if err := b.buildColumn(Column{name: col}); err != nil {
				return err
			}
		}
		b.sb.WriteByte(')')
	}
	if len(j.on) > 0 {
		b.sb.WriteString(" ON ")
		if err := b.buildPredicates(j.on); err != nil {
			return err
		}
	}
	b.sb.WriteByte(')')
	return nil
}

// buildValuesIn (SELECT [qv].[v] FROM (...) AS [qv])
func (b *builder) buildValuesIn(in valuesIn) error {
	if cols := in.src.valuesSchema().Columns; len(cols) != 1 {
		return errs.NewErrValuesInMultiColumn(in.src.tableAlias(), len(cols))
	}
	t, ok := in.src.(*valuesTable)
	if !ok {
		return errs.NewErrValuesNotTranslated(in.src.tableAlias())
	}
	b.sb.WriteString("(SELECT ")
	b.quote(t.tableAlias())
	b.sb.WriteByte('.')
	b.quote(t.valuesSchema().Columns[0].Name)
	b.sb.WriteString(" FROM ")
	t.build(b)
	b.buildAs(t.tableAlias())
	b.sb.WriteByte(')')
	return nil
}

func (b *builder) addArgs(args ...any) {
	if b.args == nil {
		b.args = make([]any, 0, 8)
	}
	b.args = append(b.args, args...)
}
