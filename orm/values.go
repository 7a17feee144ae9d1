package orm

import (
	"reflect"
	"strings"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/internal/payload"
)

// Serialization queryable values 的序列化方式
type Serialization uint8

const (
	// SerializationAuto 数据库支持 JSON 表函数的时候用 JSON，否则用 XML
	SerializationAuto Serialization = iota
	SerializationJSON
	SerializationXML
)

func (s Serialization) String() string {
	switch s {
	case SerializationAuto:
		return "auto"
	case SerializationJSON:
		return "json"
	case SerializationXML:
		return "xml"
	default:
		return "unknown"
	}
}

// UnmarshalText 配置文件里面写 auto / json / xml
func (s *Serialization) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "auto":
		*s = SerializationAuto
	case "json":
		*s = SerializationJSON
	case "xml":
		*s = SerializationXML
	default:
		return errs.NewErrUnsupportedSerialization(string(text), "any")
	}
	return nil
}

func (s Serialization) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const defaultValuesAlias = "qv"

type valuesConfig struct {
	serialization Serialization
	// suppressPrescan 为 true 的时候，生成的虚拟表不带 TOP / LIMIT
	suppressPrescan bool
}

type ValuesOption func(cfg *valuesConfig)

// ValuesWithSerialization 指定 JSON 或者 XML 的时候，不会再去探测数据库的能力
func ValuesWithSerialization(s Serialization) ValuesOption {
	return func(cfg *valuesConfig) {
		cfg.serialization = s
	}
}

// ValuesWithPrescanSuppressed 默认是 true
// 设置成 false 之后，虚拟表会带上 TOP(@count) 或者 LIMIT ?，参数是元素个数
func ValuesWithPrescanSuppressed(suppressed bool) ValuesOption {
	return func(cfg *valuesConfig) {
		cfg.suppressPrescan = suppressed
	}
}

// ValuesContext 能够创建 queryable values 的上下文
// 实际上只有 *DB 和 *Tx
type ValuesContext interface {
	QueryableValuesEnabled() bool
}

// valuesSource 还没有被翻译的 queryable values
type valuesSource interface {
	TableReference
	valuesSchema() *payload.Schema
	valuesRows() reflect.Value
	valuesLen() int
}

// Values 把一个切片当成一张表来用
// 可以出现在 Selector.From，Join 以及 Column.In 里面
type Values[T any] struct {
	alias  string
	schema *payload.Schema
	// rows 调用 AsQueryableValues 时的快照
	rows reflect.Value
}

// AsQueryableValues 把 items 变成一张虚拟表
// 元素的类型在这个时候就会被检查，不支持的类型直接返回错误
// items 会被复制一份，之后修改 items 不会影响查询；指针元素只复制指针
func AsQueryableValues[T any](vc ValuesContext, items []T) (*Values[T], error) {
	sess, ok := vc.(Session)
	if !ok {
		return nil, errs.NewErrValuesOnlyWorksOnSession(vc)
	}
	if !vc.QueryableValuesEnabled() {
		return nil, errs.NewErrValuesNotConfigured(vc)
	}
	c := sess.getCore()
	schema, err := c.schemas.Of(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	snapshot := make([]T, len(items))
	copy(snapshot, items)
	return &Values[T]{
		alias:  defaultValuesAlias,
		schema: schema,
		rows:   reflect.ValueOf(snapshot),
	}, nil
}

func (v *Values[T]) tableAlias() string {
	return v.alias
}

func (v *Values[T]) valuesSchema() *payload.Schema {
	return v.schema
}

func (v *Values[T]) valuesRows() reflect.Value {
	return v.rows
}

func (v *Values[T]) valuesLen() int {
	return v.rows.Len()
}

// Len 元素个数
func (v *Values[T]) Len() int {
	return v.rows.Len()
}

// As 返回一个使用新别名的 Values，数据是共享的
func (v *Values[T]) As(alias string) *Values[T] {
	return &Values[T]{
		alias:  alias,
		schema: v.schema,
		rows:   v.rows,
	}
}

// C 虚拟表上的列，name 是结构体字段名；标量的话只有一列 "V"
func (v *Values[T]) C(name string) Column {
	return Column{
		table: v,
		name:  name,
	}
}

func (v *Values[T]) Join(target TableReference) *JoinBuilder {
	return newJoinBuilder(v, target, "JOIN")
}

func (v *Values[T]) LeftJoin(target TableReference) *JoinBuilder {
	return newJoinBuilder(v, target, "LEFT JOIN")
}

func (v *Values[T]) RightJoin(target TableReference) *JoinBuilder {
	return newJoinBuilder(v, target, "RIGHT JOIN")
}

// valuesIn Column.In(values) 的右边
type valuesIn struct {
	src valuesSource
}

func (v valuesIn) expr() {}
