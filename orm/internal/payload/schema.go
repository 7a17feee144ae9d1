package payload

import (
	"database/sql"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/model"
	"github.com/google/uuid"
	"github.com/gotomicro/ekit/slice"
)

// Kind 是列在数据库一侧的类型分类，每个方言把它映射成自己的原生类型
type Kind uint8

const (
	Bool Kind = iota + 1
	TinyInt
	SmallInt
	Int
	BigInt
	Decimal
	Real
	Float
	String
	Time
	GUID
)

var kindNames = [...]string{
	Bool:     "bool",
	TinyInt:  "tinyint",
	SmallInt: "smallint",
	Int:      "int",
	BigInt:   "bigint",
	Decimal:  "decimal",
	Real:     "real",
	Float:    "float",
	String:   "string",
	Time:     "time",
	GUID:     "guid",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// ScalarColumn 标量序列只有一列，Go 一侧叫 V，数据库一侧叫 v
const (
	ScalarColumn   = "v"
	ScalarGoColumn = "V"
)

// Column 一个属性的描述
type Column struct {
	Name     string
	GoName   string
	Kind     Kind
	Nullable bool
	// Index 结构体字段的下标，标量时为 -1
	Index int
}

// Schema 元素类型的属性描述，对同一个类型来说是稳定的
type Schema struct {
	Type reflect.Type
	// Scalar 元素本身就是一个值，而不是结构体
	Scalar bool
	// PtrElem 元素是指针，nil 元素会被序列化成整行 null
	PtrElem bool
	Columns []Column

	signature string
}

// Signature 用来作为 SQL 模板缓存 key 的一部分
func (s *Schema) Signature() string {
	return s.signature
}

// Column 按 Go 名字查找列
func (s *Schema) Column(goName string) (Column, bool) {
	for _, c := range s.Columns {
		if c.GoName == goName {
			return c, true
		}
	}
	return Column{}, false
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	uuidType        = reflect.TypeOf(uuid.UUID{})
	nullBoolType    = reflect.TypeOf(sql.NullBool{})
	nullByteType    = reflect.TypeOf(sql.NullByte{})
	nullInt16Type   = reflect.TypeOf(sql.NullInt16{})
	nullInt32Type   = reflect.TypeOf(sql.NullInt32{})
	nullInt64Type   = reflect.TypeOf(sql.NullInt64{})
	nullFloat64Type = reflect.TypeOf(sql.NullFloat64{})
	nullStringType  = reflect.TypeOf(sql.NullString{})
	nullTimeType    = reflect.TypeOf(sql.NullTime{})
)

// kindOf 找出 typ 对应的 Kind。结构体（除了 time.Time 之类的值类型）、切片、map、接口都不支持
func kindOf(typ reflect.Type) (Kind, bool, bool) {
	nullable := false
	if typ.Kind() == reflect.Ptr {
		nullable = true
		typ = typ.Elem()
		// 只支持一级指针
		if typ.Kind() == reflect.Ptr {
			return 0, false, false
		}
	}

	switch typ {
	case timeType:
		return Time, nullable, true
	case uuidType:
		return GUID, nullable, true
	case nullBoolType:
		return Bool, true, true
	case nullByteType:
		return TinyInt, true, true
	case nullInt16Type:
		return SmallInt, true, true
	case nullInt32Type:
		return Int, true, true
	case nullInt64Type:
		return BigInt, true, true
	case nullFloat64Type:
		return Float, true, true
	case nullStringType:
		return String, true, true
	case nullTimeType:
		return Time, true, true
	}

	switch typ.Kind() {
	case reflect.Bool:
		return Bool, nullable, true
	case reflect.Uint8:
		return TinyInt, nullable, true
	case reflect.Int8, reflect.Int16:
		return SmallInt, nullable, true
	case reflect.Uint16, reflect.Int32:
		return Int, nullable, true
	case reflect.Uint32, reflect.Int, reflect.Int64:
		return BigInt, nullable, true
	case reflect.Uint, reflect.Uint64:
		return Decimal, nullable, true
	case reflect.Float32:
		return Real, nullable, true
	case reflect.Float64:
		return Float, nullable, true
	case reflect.String:
		return String, nullable, true
	default:
		return 0, false, false
	}
}

// SchemaCache 缓存每个元素类型的 Schema
// 结构体的列名来自 model.Registry，所以每个 Registry 对应一个 SchemaCache
type SchemaCache struct {
	r       model.Registry
	schemas sync.Map
}

func NewSchemaCache(r model.Registry) *SchemaCache {
	return &SchemaCache{r: r}
}

// Of 返回元素类型 typ 的 Schema
func (c *SchemaCache) Of(typ reflect.Type) (*Schema, error) {
	if s, ok := c.schemas.Load(typ); ok {
		return s.(*Schema), nil
	}
	s, err := c.parse(typ)
	if err != nil {
		return nil, err
	}
	// 并发解析的时候，以先存进去的为准
	actual, _ := c.schemas.LoadOrStore(typ, s)
	return actual.(*Schema), nil
}

func (c *SchemaCache) parse(typ reflect.Type) (*Schema, error) {
	if typ == nil {
		return nil, errs.NewErrUnsupportedElementType("<nil>", "element type is an interface")
	}
	if k, nullable, ok := kindOf(typ); ok {
		return newSchema(typ, true, false, []Column{{
			Name:     ScalarColumn,
			GoName:   ScalarGoColumn,
			Kind:     k,
			Nullable: nullable,
			Index:    -1,
		}}), nil
	}

	st := typ
	ptrElem := false
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
		ptrElem = true
	}
	if st.Kind() != reflect.Struct {
		return nil, errs.NewErrUnsupportedElementType(typ, "only scalars and flat structs are supported")
	}

	m, err := c.r.Get(reflect.New(st).Interface())
	if err != nil {
		return nil, err
	}
	if len(m.Fields) == 0 {
		return nil, errs.NewErrUnsupportedElementType(typ, "struct has no exported fields")
	}

	cols := make([]Column, 0, len(m.Fields))
	seen := make(map[string]struct{}, len(m.Fields))
	for _, fd := range m.Fields {
		k, nullable, ok := kindOf(fd.Type)
		if !ok {
			return nil, errs.NewErrUnsupportedElementType(typ,
				"field "+fd.GoName+" has unsupported type "+fd.Type.String())
		}
		if !validName(fd.ColName) {
			return nil, errs.NewErrUnsupportedElementType(typ,
				"field "+fd.GoName+" has invalid column name "+fd.ColName)
		}
		if _, dup := seen[fd.ColName]; dup {
			return nil, errs.NewErrUnsupportedElementType(typ, "duplicate column "+fd.ColName)
		}
		seen[fd.ColName] = struct{}{}
		cols = append(cols, Column{
			Name:     fd.ColName,
			GoName:   fd.GoName,
			Kind:     k,
			Nullable: nullable || ptrElem,
			Index:    fd.Index,
		})
	}
	return newSchema(typ, false, ptrElem, cols), nil
}

func newSchema(typ reflect.Type, scalar, ptrElem bool, cols []Column) *Schema {
	parts := slice.Map[Column, string](cols, func(idx int, c Column) string {
		if c.Nullable {
			return c.Name + ":" + c.Kind.String() + "?"
		}
		return c.Name + ":" + c.Kind.String()
	})
	return &Schema{
		Type:      typ,
		Scalar:    scalar,
		PtrElem:   ptrElem,
		Columns:   cols,
		signature: strings.Join(parts, ","),
	}
}

// validName 列名会直接出现在 JSON path 和 XML 元素名里，所以只允许标识符
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
