package valuer

import (
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/internal/test"
	"github.com/coderi421/kyuu-qv/orm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflectValue_SetColumns(t *testing.T) {
	testSetColumns(t, NewReflectValue)
}

func TestUnsafeValue_SetColumns(t *testing.T) {
	testSetColumns(t, NewUnsafeValue)
}

func testSetColumns(t *testing.T, creator Creator) {
	testCases := []struct {
		name       string
		dbMockDate map[string][]byte
		wantVal    *test.SimpleStruct
		wantErr    string
	}{
		{
			name: "normal value",
			dbMockDate: map[string][]byte{
				"id":              []byte("1"),
				"bool":            []byte("true"),
				"bool_ptr":        []byte("false"),
				"int":             []byte("12"),
				"int_ptr":         []byte("13"),
				"int8":            []byte("8"),
				"uint64":          []byte("64"),
				"float32":         []byte("3.2"),
				"float64_ptr":     []byte("-6.4"),
				"string":          []byte("world"),
				"byte_array":      []byte("hello"),
				"null_string_ptr": []byte("null string"),
				"null_int64":      []byte("64"),
			},
			wantVal: test.NewSimpleStruct(1),
		},
		{
			name: "partial columns",
			dbMockDate: map[string][]byte{
				"id":     []byte("2"),
				"string": []byte("hi"),
			},
			wantVal: &test.SimpleStruct{Id: 2, String: "hi"},
		},
		{
			name: "null value",
			dbMockDate: map[string][]byte{
				"id":      []byte("3"),
				"int_ptr": nil,
			},
			wantVal: &test.SimpleStruct{Id: 3},
		},
		{
			name: "invalid field",
			dbMockDate: map[string][]byte{
				"invalid_column": nil,
			},
			wantErr: "orm: 未知列 invalid_column",
		},
	}

	r := model.NewRegistry()
	meta, err := r.Get(&test.SimpleStruct{})
	require.NoError(t, err)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			cols := make([]string, 0, len(tc.dbMockDate))
			colVals := make([]driver.Value, 0, len(tc.dbMockDate))
			for c, v := range tc.dbMockDate {
				cols = append(cols, c)
				// nil 的 []byte 要转成 nil 才会被当成 NULL
				if v == nil {
					colVals = append(colVals, nil)
					continue
				}
				colVals = append(colVals, v)
			}
			mock.ExpectQuery("SELECT *").
				WillReturnRows(sqlmock.NewRows(cols).AddRow(colVals...))

			rows, err := db.Query("SELECT *")
			require.NoError(t, err)
			defer func() { _ = rows.Close() }()
			require.True(t, rows.Next())

			val := &test.SimpleStruct{}
			err = creator(val, meta).SetColumns(rows)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantVal, val)
		})
	}
}

func TestSetColumns_tooManyColumns(t *testing.T) {
	type One struct {
		Id int64
	}
	meta, err := model.NewRegistry().Get(&One{})
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.ExpectQuery("SELECT *").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Tom"))

	rows, err := db.Query("SELECT *")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())

	err = NewReflectValue(&One{}, meta).SetColumns(rows)
	assert.Equal(t, errs.ErrTooManyReturnedColumns, err)
}
