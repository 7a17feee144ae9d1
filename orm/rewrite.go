package orm

import "context"

// RewriteContext 执行 rewrite 时的上下文
// Session 就是执行查询的 *DB 或者 *Tx
type RewriteContext struct {
	context.Context
	Session Session
}

// Rewriter 在生成 SQL 之前改写查询树
// n 是树上的一个节点，例如 TableReference，Predicate，Column
// 返回 true 代表 n 被替换成了第一个返回值，不会再继续往下遍历
type Rewriter interface {
	Rewrite(rc *RewriteContext, n any) (any, bool, error)
}

// RewriterFunc 让普通的方法也能作为 Rewriter
type RewriterFunc func(rc *RewriteContext, n any) (any, bool, error)

func (f RewriterFunc) Rewrite(rc *RewriteContext, n any) (any, bool, error) {
	return f(rc, n)
}

// walk 自顶向下遍历，节点都是不可变的，改写的时候重新构造父节点
func walk(rc *RewriteContext, rw Rewriter, n any) (any, error) {
	if n == nil {
		return nil, nil
	}
	res, ok, err := rw.Rewrite(rc, n)
	if err != nil {
		return nil, err
	}
	if ok {
		return res, nil
	}

	switch t := n.(type) {
	case Join:
		left, err := walk(rc, rw, t.left)
		if err != nil {
			return nil, err
		}
		right, err := walk(rc, rw, t.right)
		if err != nil {
			return nil, err
		}
		on, err := walkPredicates(rc, rw, t.on)
		if err != nil {
			return nil, err
		}
		return Join{
			left:  asTable(left),
			right: asTable(right),
			typ:   t.typ,
			on:    on,
			using: t.using,
		}, nil
	case Predicate:
		left, right, err := walkBinary(rc, rw, t.left, t.right)
		if err != nil {
			return nil, err
		}
		return Predicate{left: left, op: t.op, right: right}, nil
	case MathExpr:
		left, right, err := walkBinary(rc, rw, t.left, t.right)
		if err != nil {
			return nil, err
		}
		return MathExpr{left: left, op: t.op, right: right}, nil
	case valuesIn:
		src, err := walk(rc, rw, t.src)
		if err != nil {
			return nil, err
		}
		return valuesIn{src: src.(valuesSource)}, nil
	default:
		return n, nil
	}
}

func walkBinary(rc *RewriteContext, rw Rewriter, l, r Expression) (Expression, Expression, error) {
	left, err := walk(rc, rw, l)
	if err != nil {
		return nil, nil, err
	}
	right, err := walk(rc, rw, r)
	if err != nil {
		return nil, nil, err
	}
	return asExpr(left), asExpr(right), nil
}

func walkPredicates(rc *RewriteContext, rw Rewriter, ps []Predicate) ([]Predicate, error) {
	if len(ps) == 0 {
		return ps, nil
	}
	res := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		np, err := walk(rc, rw, p)
		if err != nil {
			return nil, err
		}
		res = append(res, np.(Predicate))
	}
	return res, nil
}

func asExpr(n any) Expression {
	if n == nil {
		return nil
	}
	return n.(Expression)
}

func asTable(n any) TableReference {
	if n == nil {
		return nil
	}
	return n.(TableReference)
}
