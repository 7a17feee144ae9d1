package orm

// Column 代表一列，table 为 nil 的时候代表主表
type Column struct {
	table TableReference
	name  string
	alias string
}

func (c Column) expr() {}

func (c Column) selectable() {}

type value struct {
	val any
}

func (v value) expr() {}

func valueOf(val any) value {
	return value{val: val}
}

// C 主表上的列，name 是结构体字段名
func C(name string) Column {
	return Column{name: name}
}

// As 这里使用 值 作为接收者，每次都返回一个新的，可以防止并发问题
func (c Column) As(alias string) Column {
	return Column{
		table: c.table,
		name:  c.name,
		alias: alias,
	}
}

// EQ 例如 C("id").Eq(12)
func (c Column) EQ(arg any) Predicate {
	return Predicate{
		left:  c,
		op:    opEQ,
		right: exprOf(arg), // 如果 arg 不是 Expression 类型 就让他变成这个类型
	}
}

// LT 例如 C("id").LT(12)
func (c Column) LT(arg any) Predicate {
	return Predicate{
		left:  c,
		op:    opLT,
		right: exprOf(arg),
	}
}

func (c Column) GT(arg any) Predicate {
	return Predicate{
		left:  c,
		op:    opGT,
		right: exprOf(arg),
	}
}

// In C("Id").In(1, 2, 3)
// 如果唯一的参数是 queryable values，那么会生成一个子查询
// C("Id").In(vals) -> `id` IN (SELECT [qv].[v] FROM (...) AS [qv])
// queryable values 只能有一列，标量或者只有一个字段的结构体，否则构造 SQL 的时候返回 ErrValuesInMultiColumn
func (c Column) In(vals ...any) Predicate {
	if len(vals) == 1 {
		if src, ok := vals[0].(valuesSource); ok {
			return Predicate{
				left:  c,
				op:    opIN,
				right: valuesIn{src: src},
			}
		}
	}
	if len(vals) == 0 {
		// IN () 不是合法的 SQL
		return Raw("1 = 0").AsPredicate()
	}
	return Predicate{
		left:  c,
		op:    opIN,
		right: valueList{vals: vals},
	}
}

func (c Column) Add(val any) MathExpr {
	return MathExpr{
		left:  c,
		op:    opAdd,
		right: exprOf(val),
	}
}

func (c Column) Asc() OrderBy {
	return OrderBy{col: c, order: "ASC"}
}

func (c Column) Desc() OrderBy {
	return OrderBy{col: c, order: "DESC"}
}
