package orm

// TableReference 可以出现在 FROM 和 JOIN 后面的东西
// 普通的表 Table，JOIN 查询 Join，以及 queryable values
type TableReference interface {
	tableAlias() string
}

// Table 普通的表，entity 是对应的结构体指针
type Table struct {
	entity any
	alias  string
}

func TableOf(entity any) Table {
	return Table{
		entity: entity,
	}
}

func (t Table) tableAlias() string {
	return t.alias
}

func (t Table) As(alias string) Table {
	return Table{
		entity: t.entity,
		alias:  alias,
	}
}

// C 这张表上的列
func (t Table) C(name string) Column {
	return Column{
		table: t,
		name:  name,
	}
}

func (t Table) Join(target TableReference) *JoinBuilder {
	return newJoinBuilder(t, target, "JOIN")
}

func (t Table) LeftJoin(target TableReference) *JoinBuilder {
	return newJoinBuilder(t, target, "LEFT JOIN")
}

func (t Table) RightJoin(target TableReference) *JoinBuilder {
	return newJoinBuilder(t, target, "RIGHT JOIN")
}

// Join 代表一个 JOIN 查询，它本身也可以继续 JOIN
type Join struct {
	left  TableReference
	right TableReference
	typ   string
	on    []Predicate
	using []string
}

// tableAlias JOIN 是没有别名的
func (j Join) tableAlias() string {
	return ""
}

func (j Join) Join(target TableReference) *JoinBuilder {
	return newJoinBuilder(j, target, "JOIN")
}

func (j Join) LeftJoin(target TableReference) *JoinBuilder {
	return newJoinBuilder(j, target, "LEFT JOIN")
}

func (j Join) RightJoin(target TableReference) *JoinBuilder {
	return newJoinBuilder(j, target, "RIGHT JOIN")
}

type JoinBuilder struct {
	left  TableReference
	right TableReference
	typ   string
}

func newJoinBuilder(left, right TableReference, typ string) *JoinBuilder {
	return &JoinBuilder{
		left:  left,
		right: right,
		typ:   typ,
	}
}

// On 多个条件用 AND 连接
func (j *JoinBuilder) On(ps ...Predicate) Join {
	return Join{
		left:  j.left,
		right: j.right,
		typ:   j.typ,
		on:    ps,
	}
}

// Using 列名是主表上的字段名，sqlserver 不支持 USING
func (j *JoinBuilder) Using(cols ...string) Join {
	return Join{
		left:  j.left,
		right: j.right,
		typ:   j.typ,
		using: cols,
	}
}
