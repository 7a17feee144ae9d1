package orm

// RawExpr 代表一个原生表达式
// 意味着 ORM 不会对它进行任何处理
// 注意占位符需要自己按照方言来写，例如 sqlserver 上是 @p1
type RawExpr struct {
	raw  string
	args []any
}

func (r RawExpr) selectable() {}

func (r RawExpr) expr() {}

func (r RawExpr) AsPredicate() Predicate {
	return Predicate{
		left: r,
	}
}

// Raw 创建一个 RawExpr
func Raw(expr string, args ...any) RawExpr {
	return RawExpr{
		raw:  expr,
		args: args,
	}
}

type binaryExpr struct {
	left  Expression
	op    op
	right Expression
}

// MathExpr 算术表达式，例如 C("Age").Add(1)
type MathExpr binaryExpr

func (m MathExpr) Add(val any) MathExpr {
	return MathExpr{
		left:  m,
		op:    opAdd,
		right: exprOf(val),
	}
}

func (m MathExpr) Multi(val any) MathExpr {
	return MathExpr{
		left:  m,
		op:    opMulti,
		right: exprOf(val),
	}
}

func (m MathExpr) EQ(arg any) Predicate {
	return Predicate{
		left:  m,
		op:    opEQ,
		right: exprOf(arg),
	}
}

func (m MathExpr) expr() {}

// valueList IN 后面的参数列表
type valueList struct {
	vals []any
}

func (v valueList) expr() {}
