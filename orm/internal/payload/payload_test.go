package payload

import (
	"database/sql"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Order struct {
	Id       int64
	Customer string  `orm:"column=customer_name"`
	Total    float64
	Note     *string
	Shipped  sql.NullTime
	internal int
}

func TestSchemaCache_Of(t *testing.T) {
	testCases := []struct {
		name     string
		typ      reflect.Type
		wantSig  string
		wantCols []string
		scalar   bool
		wantErr  error
	}{
		{
			name:     "int",
			typ:      reflect.TypeOf(0),
			scalar:   true,
			wantSig:  "v:bigint",
			wantCols: []string{"v"},
		},
		{
			name:     "nullable string",
			typ:      reflect.TypeOf((*string)(nil)),
			scalar:   true,
			wantSig:  "v:string?",
			wantCols: []string{"v"},
		},
		{
			name:     "uint64",
			typ:      reflect.TypeOf(uint64(0)),
			scalar:   true,
			wantSig:  "v:decimal",
			wantCols: []string{"v"},
		},
		{
			name:     "uuid",
			typ:      reflect.TypeOf(uuid.UUID{}),
			scalar:   true,
			wantSig:  "v:guid",
			wantCols: []string{"v"},
		},
		{
			name:     "null int32",
			typ:      reflect.TypeOf(sql.NullInt32{}),
			scalar:   true,
			wantSig:  "v:int?",
			wantCols: []string{"v"},
		},
		{
			name:     "struct",
			typ:      reflect.TypeOf(Order{}),
			wantSig:  "id:bigint,customer_name:string,total:float,note:string?,shipped:time?",
			wantCols: []string{"id", "customer_name", "total", "note", "shipped"},
		},
		{
			name:     "struct pointer",
			typ:      reflect.TypeOf(&Order{}),
			wantSig:  "id:bigint?,customer_name:string?,total:float?,note:string?,shipped:time?",
			wantCols: []string{"id", "customer_name", "total", "note", "shipped"},
		},
		{
			name:    "slice",
			typ:     reflect.TypeOf([]int{}),
			wantErr: errs.ErrUnsupportedElementType,
		},
		{
			name:    "bytes",
			typ:     reflect.TypeOf([]byte{}),
			wantErr: errs.ErrUnsupportedElementType,
		},
		{
			name:    "map",
			typ:     reflect.TypeOf(map[string]int{}),
			wantErr: errs.ErrUnsupportedElementType,
		},
		{
			name: "nested struct",
			typ: reflect.TypeOf(struct {
				Id    int
				Inner struct{ A int }
			}{}),
			wantErr: errs.ErrUnsupportedElementType,
		},
		{
			name:    "no exported fields",
			typ:     reflect.TypeOf(struct{ a int }{}),
			wantErr: errs.ErrUnsupportedElementType,
		},
		{
			name: "invalid column name",
			typ: reflect.TypeOf(struct {
				Id int `orm:"column=a b"`
			}{}),
			wantErr: errs.ErrUnsupportedElementType,
		},
		{
			name: "duplicate column",
			typ: reflect.TypeOf(struct {
				A int `orm:"column=x"`
				B int `orm:"column=x"`
			}{}),
			wantErr: errs.ErrUnsupportedElementType,
		},
		{
			name:    "double pointer",
			typ:     reflect.TypeOf((**int)(nil)),
			wantErr: errs.ErrUnsupportedElementType,
		},
	}

	c := NewSchemaCache(model.NewRegistry())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := c.Of(tc.typ)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.scalar, s.Scalar)
			assert.Equal(t, tc.wantSig, s.Signature())
			names := make([]string, 0, len(s.Columns))
			for _, col := range s.Columns {
				names = append(names, col.Name)
			}
			assert.Equal(t, tc.wantCols, names)
		})
	}
}

func TestSchemaCache_cached(t *testing.T) {
	c := NewSchemaCache(model.NewRegistry())
	s1, err := c.Of(reflect.TypeOf(Order{}))
	require.NoError(t, err)
	s2, err := c.Of(reflect.TypeOf(Order{}))
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestEncode(t *testing.T) {
	note := "a<b & \"c\""
	shipped := time.Date(2023, 5, 6, 7, 8, 9, 100, time.FixedZone("", 2*3600))
	guid := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	one := int32(1)

	testCases := []struct {
		name     string
		items    any
		opts     Options
		wantJSON string
		wantXML  string
		wantErr  string
	}{
		{
			name:     "ints",
			items:    []int{3, 1, 2},
			wantJSON: `[{"v":3},{"v":1},{"v":2}]`,
			wantXML:  `<R><r><v>3</v></r><r><v>1</v></r><r><v>2</v></r></R>`,
		},
		{
			name:     "empty",
			items:    []int{},
			wantJSON: `[]`,
			wantXML:  `<R></R>`,
		},
		{
			name:     "nullable",
			items:    []*int32{&one, nil},
			wantJSON: `[{"v":1},{"v":null}]`,
			wantXML:  `<R><r><v>1</v></r><r><v nil="1"/></r></R>`,
		},
		{
			name:     "bools",
			items:    []bool{true, false},
			wantJSON: `[{"v":true},{"v":false}]`,
			wantXML:  `<R><r><v>1</v></r><r><v>0</v></r></R>`,
		},
		{
			name:     "strings",
			items:    []string{"", "x\ny", note},
			wantJSON: `[{"v":""},{"v":"x\ny"},{"v":"a<b & \"c\""}]`,
			wantXML:  `<R><r><v></v></r><r><v>x&#xA;y</v></r><r><v>a&lt;b &amp; &#34;c&#34;</v></r></R>`,
		},
		{
			name:     "floats",
			items:    []float32{1.5, 0.1},
			wantJSON: `[{"v":1.5},{"v":0.1}]`,
			wantXML:  `<R><r><v>1.5</v></r><r><v>0.1</v></r></R>`,
		},
		{
			name:     "uint64 max",
			items:    []uint64{math.MaxUint64},
			wantJSON: `[{"v":18446744073709551615}]`,
			wantXML:  `<R><r><v>18446744073709551615</v></r></R>`,
		},
		{
			name:     "null types",
			items:    []sql.NullInt64{{Int64: 5, Valid: true}, {}},
			wantJSON: `[{"v":5},{"v":null}]`,
			wantXML:  `<R><r><v>5</v></r><r><v nil="1"/></r></R>`,
		},
		{
			name:     "guid",
			items:    []uuid.UUID{guid},
			wantJSON: `[{"v":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}]`,
			wantXML:  `<R><r><v>6ba7b810-9dad-11d1-80b4-00c04fd430c8</v></r></R>`,
		},
		{
			name:     "time layout",
			items:    []time.Time{shipped},
			opts:     Options{TimeLayout: "2006-01-02 15:04:05.999999", UTC: true},
			wantJSON: `[{"v":"2023-05-06 05:08:09"}]`,
			wantXML:  `<R><r><v>2023-05-06 05:08:09</v></r></R>`,
		},
		{
			name: "struct",
			items: []Order{
				{Id: 1, Customer: "Tom", Total: 10.25, Note: &note},
				{Id: 2, Customer: "Jerry", Shipped: sql.NullTime{Time: shipped, Valid: true}},
			},
			wantJSON: `[{"id":1,"customer_name":"Tom","total":10.25,"note":"a<b & \"c\"","shipped":null},` +
				`{"id":2,"customer_name":"Jerry","total":0,"note":null,"shipped":"2023-05-06T07:08:09.0000001+02:00"}]`,
			wantXML: `<R><r><id>1</id><customer_name>Tom</customer_name><total>10.25</total><note>a&lt;b &amp; &#34;c&#34;</note><shipped nil="1"/></r>` +
				`<r><id>2</id><customer_name>Jerry</customer_name><total>0</total><note nil="1"/><shipped>2023-05-06T07:08:09.0000001+02:00</shipped></r></R>`,
		},
		{
			name:     "nil struct pointer",
			items:    []*Order{nil},
			wantJSON: `[{"id":null,"customer_name":null,"total":null,"note":null,"shipped":null}]`,
			wantXML:  `<R><r><id nil="1"/><customer_name nil="1"/><total nil="1"/><note nil="1"/><shipped nil="1"/></r></R>`,
		},
		{
			name:     "whitespace",
			items:    []string{"   ", "\t\n\r", " a "},
			wantJSON: `[{"v":"   "},{"v":"\t\n\r"},{"v":" a "}]`,
			wantXML:  `<R><r><v>   </v></r><r><v>&#x9;&#xA;&#xD;</v></r><r><v> a </v></r></R>`,
		},
		{
			name:     "decimal as string",
			items:    []uint64{math.MaxUint64, 1},
			opts:     Options{DecimalAsString: true},
			wantJSON: `[{"v":"18446744073709551615"},{"v":"1"}]`,
			wantXML:  `<R><r><v>18446744073709551615</v></r><r><v>1</v></r></R>`,
		},
		{
			name:    "NaN",
			items:   []float64{math.NaN()},
			wantErr: "payload: element 0: payload: column v: NaN can not be serialized",
		},
	}

	c := NewSchemaCache(model.NewRegistry())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rv := reflect.ValueOf(tc.items)
			s, err := c.Of(rv.Type().Elem())
			require.NoError(t, err)

			js, err := Encode(JSON, s, rv, tc.opts)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantJSON, js)

			xs, err := Encode(XML, s, rv, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.wantXML, xs)
		})
	}
}

func TestEncode_unrepresentable(t *testing.T) {
	testCases := []struct {
		name     string
		items    []string
		wantJSON string
		jsonErr  bool
		xmlErr   string
	}{
		{
			name:     "control character",
			items:    []string{"a\x01b"},
			wantJSON: `[{"v":"a\u0001b"}]`,
			xmlErr:   "payload: element 0: orm: unsupported queryable values element type: column v: character U+0001 at byte 1 can not be represented in XML",
		},
		{
			name:     "non character",
			items:    []string{"ok", "\uFFFE"},
			wantJSON: "[{\"v\":\"ok\"},{\"v\":\"\uFFFE\"}]",
			xmlErr:   "payload: element 1: orm: unsupported queryable values element type: column v: character U+FFFE at byte 0 can not be represented in XML",
		},
		{
			name:    "invalid utf8",
			items:   []string{"a\xffb"},
			jsonErr: true,
			xmlErr:  "payload: element 0: orm: unsupported queryable values element type: column v: invalid UTF-8",
		},
	}

	c := NewSchemaCache(model.NewRegistry())
	s, err := c.Of(reflect.TypeOf(""))
	require.NoError(t, err)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rv := reflect.ValueOf(tc.items)

			js, err := Encode(JSON, s, rv, Options{})
			if tc.jsonErr {
				assert.ErrorIs(t, err, errs.ErrUnsupportedElementType)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.wantJSON, js)
			}

			_, err = Encode(XML, s, rv, Options{})
			assert.ErrorIs(t, err, errs.ErrUnsupportedElementType)
			assert.EqualError(t, err, tc.xmlErr)
		})
	}
}
