package payload

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/google/uuid"
)

// Format 序列化格式
type Format uint8

const (
	JSON Format = iota + 1
	XML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case XML:
		return "xml"
	default:
		return "unknown"
	}
}

// XML 文档的根元素和行元素
const (
	XMLRoot = "R"
	XMLRow  = "r"
	// XMLNil 标记 null 的属性，<v nil="1"/>
	XMLNil = "nil"
)

// Options 序列化时和方言相关的选项
type Options struct {
	// TimeLayout 时间的格式，为空时使用 time.RFC3339Nano
	TimeLayout string
	// UTC 为 true 的时候，先把时间转成 UTC 再格式化
	UTC bool
	// DecimalAsString uint64 输出成字符串
	// sqlite 的整数只有 64 位有符号，超过 math.MaxInt64 的数字会变成 REAL
	DecimalAsString bool
}

func (o Options) formatTime(t time.Time) string {
	if o.UTC {
		t = t.UTC()
	}
	layout := o.TimeLayout
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return t.Format(layout)
}

// Encode 把 rows（一个切片）按照 schema 序列化成一个字符串
// 元素的顺序就是文档中的顺序
func Encode(f Format, s *Schema, rows reflect.Value, opts Options) (string, error) {
	var w writer
	switch f {
	case JSON:
		w = &jsonWriter{}
	case XML:
		w = &xmlWriter{}
	default:
		return "", errors.Newf("payload: unknown format %d", f)
	}

	w.begin()
	for i := 0; i < rows.Len(); i++ {
		elem := rows.Index(i)
		w.beginRow()
		if err := encodeRow(w, s, elem, opts); err != nil {
			return "", errors.Wrapf(err, "payload: element %d", i)
		}
		w.endRow()
	}
	w.end()
	return w.String(), nil
}

func encodeRow(w writer, s *Schema, elem reflect.Value, opts Options) error {
	if s.Scalar {
		c := s.Columns[0]
		return encodeValue(w, c, elem, opts)
	}

	rowNull := false
	if s.PtrElem {
		if elem.IsNil() {
			rowNull = true
		} else {
			elem = elem.Elem()
		}
	}
	for _, c := range s.Columns {
		if rowNull {
			w.null(c.Name)
			continue
		}
		if err := encodeValue(w, c, elem.Field(c.Index), opts); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(w writer, c Column, v reflect.Value, opts Options) error {
	val, ok := resolve(v)
	if !ok {
		w.null(c.Name)
		return nil
	}

	switch c.Kind {
	case Bool:
		w.boolean(c.Name, val.(bool))
	case TinyInt, SmallInt, Int, BigInt:
		switch n := val.(type) {
		case int64:
			w.number(c.Name, strconv.FormatInt(n, 10))
		case uint64:
			w.number(c.Name, strconv.FormatUint(n, 10))
		}
	case Decimal:
		n := strconv.FormatUint(val.(uint64), 10)
		if opts.DecimalAsString {
			return w.str(c.Name, n)
		}
		w.number(c.Name, n)
	case Real, Float:
		f := val.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.Newf("payload: column %s: %v can not be serialized", c.Name, f)
		}
		bitSize := 64
		if c.Kind == Real {
			bitSize = 32
		}
		w.number(c.Name, strconv.FormatFloat(f, 'g', -1, bitSize))
	case String:
		return w.str(c.Name, val.(string))
	case Time:
		return w.str(c.Name, opts.formatTime(val.(time.Time)))
	case GUID:
		return w.str(c.Name, val.(uuid.UUID).String())
	default:
		return errors.Newf("payload: column %s has unknown kind %d", c.Name, c.Kind)
	}
	return nil
}

// resolve 把一个字段的值归一化成 bool / int64 / uint64 / float64 / string / time.Time / uuid.UUID
// 第二个返回值为 false 代表 null
func resolve(v reflect.Value) (any, bool) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time), true
	case uuidType:
		return v.Interface().(uuid.UUID), true
	case nullBoolType:
		n := v.Interface().(sql.NullBool)
		return n.Bool, n.Valid
	case nullByteType:
		n := v.Interface().(sql.NullByte)
		return int64(n.Byte), n.Valid
	case nullInt16Type:
		n := v.Interface().(sql.NullInt16)
		return int64(n.Int16), n.Valid
	case nullInt32Type:
		n := v.Interface().(sql.NullInt32)
		return int64(n.Int32), n.Valid
	case nullInt64Type:
		n := v.Interface().(sql.NullInt64)
		return n.Int64, n.Valid
	case nullFloat64Type:
		n := v.Interface().(sql.NullFloat64)
		return n.Float64, n.Valid
	case nullStringType:
		n := v.Interface().(sql.NullString)
		return n.String, n.Valid
	case nullTimeType:
		n := v.Interface().(sql.NullTime)
		return n.Time, n.Valid
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.String:
		return v.String(), true
	default:
		return nil, false
	}
}

type writer interface {
	begin()
	end()
	beginRow()
	endRow()
	null(col string)
	boolean(col string, b bool)
	number(col string, n string)
	// str 字符串没办法原样表示的时候返回 error
	str(col string, s string) error
	String() string
}

// jsonWriter [{"v":1},{"v":null}]
type jsonWriter struct {
	sb    strings.Builder
	buf   bytes.Buffer
	rows  int
	field int
}

func (j *jsonWriter) begin() { j.sb.WriteByte('[') }
func (j *jsonWriter) end()   { j.sb.WriteByte(']') }

func (j *jsonWriter) beginRow() {
	if j.rows > 0 {
		j.sb.WriteByte(',')
	}
	j.rows++
	j.field = 0
	j.sb.WriteByte('{')
}

func (j *jsonWriter) endRow() { j.sb.WriteByte('}') }

func (j *jsonWriter) key(col string) {
	if j.field > 0 {
		j.sb.WriteByte(',')
	}
	j.field++
	// 列名已经校验过，只包含字母数字下划线
	j.sb.WriteByte('"')
	j.sb.WriteString(col)
	j.sb.WriteString(`":`)
}

func (j *jsonWriter) null(col string) {
	j.key(col)
	j.sb.WriteString("null")
}

func (j *jsonWriter) boolean(col string, b bool) {
	j.key(col)
	j.sb.WriteString(strconv.FormatBool(b))
}

func (j *jsonWriter) number(col string, n string) {
	j.key(col)
	j.sb.WriteString(n)
}

func (j *jsonWriter) str(col string, s string) error {
	// encoding/json 会把非法的 UTF-8 替换成 U+FFFD
	if !utf8.ValidString(s) {
		return errs.NewErrUnsupportedValue(col, "invalid UTF-8")
	}
	j.key(col)
	j.buf.Reset()
	enc := json.NewEncoder(&j.buf)
	// <>& 原样输出，数据库那边不需要 HTML 转义
	enc.SetEscapeHTML(false)
	// string 的 Encode 不会失败
	_ = enc.Encode(s)
	j.sb.Write(bytes.TrimSuffix(j.buf.Bytes(), []byte{'\n'}))
	return nil
}

func (j *jsonWriter) String() string { return j.sb.String() }

// xmlWriter <R><r><v>1</v></r><r><v nil="1"/></r></R>
type xmlWriter struct {
	sb strings.Builder
}

func (x *xmlWriter) begin()    { x.sb.WriteString("<" + XMLRoot + ">") }
func (x *xmlWriter) end()      { x.sb.WriteString("</" + XMLRoot + ">") }
func (x *xmlWriter) beginRow() { x.sb.WriteString("<" + XMLRow + ">") }
func (x *xmlWriter) endRow()   { x.sb.WriteString("</" + XMLRow + ">") }

func (x *xmlWriter) null(col string) {
	x.sb.WriteByte('<')
	x.sb.WriteString(col)
	x.sb.WriteString(` ` + XMLNil + `="1"/>`)
}

func (x *xmlWriter) boolean(col string, b bool) {
	if b {
		x.number(col, "1")
		return
	}
	x.number(col, "0")
}

func (x *xmlWriter) number(col string, n string) {
	x.open(col)
	x.sb.WriteString(n)
	x.close(col)
}

// str 空白字符原样输出，数据库那边要用保留空白的方式解析
func (x *xmlWriter) str(col string, s string) error {
	if err := xmlChars(col, s); err != nil {
		return err
	}
	x.open(col)
	// strings.Builder 的 Write 不会返回 error
	_ = xml.EscapeText(&x.sb, []byte(s))
	x.close(col)
	return nil
}

// xmlChars XML 1.0 只能表示这些字符，字符引用也不行
// #x9 | #xA | #xD | [#x20-#xD7FF] | [#xE000-#xFFFD] | [#x10000-#x10FFFF]
// encoding/xml 遇到其它字符会悄悄替换成 U+FFFD
func xmlChars(col string, s string) error {
	if !utf8.ValidString(s) {
		return errs.NewErrUnsupportedValue(col, "invalid UTF-8")
	}
	for i, r := range s {
		switch {
		case r == 0x09 || r == 0x0A || r == 0x0D:
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return errs.NewErrUnsupportedValue(col,
				fmt.Sprintf("character %U at byte %d can not be represented in XML", r, i))
		}
	}
	return nil
}

func (x *xmlWriter) open(col string) {
	x.sb.WriteByte('<')
	x.sb.WriteString(col)
	x.sb.WriteByte('>')
}

func (x *xmlWriter) close(col string) {
	x.sb.WriteString("</")
	x.sb.WriteString(col)
	x.sb.WriteByte('>')
}

func (x *xmlWriter) String() string { return x.sb.String() }
