package test

import "database/sql"

// SimpleStruct 包含常见的列类型，用于测试结果集映射
type SimpleStruct struct {
	Id         uint64
	Bool       bool
	BoolPtr    *bool
	Int        int
	IntPtr     *int
	Int8       int8
	Uint64     uint64
	Float32    float32
	Float64Ptr *float64
	String     string
	ByteArray  []byte

	NullStringPtr *sql.NullString
	NullInt64     sql.NullInt64
}

func NewSimpleStruct(id uint64) *SimpleStruct {
	return &SimpleStruct{
		Id:         id,
		Bool:       true,
		BoolPtr:    toPtr(false),
		Int:        12,
		IntPtr:     toPtr(13),
		Int8:       8,
		Uint64:     64,
		Float32:    3.2,
		Float64Ptr: toPtr(-6.4),
		String:     "world",
		ByteArray:  []byte("hello"),

		NullStringPtr: &sql.NullString{String: "null string", Valid: true},
		NullInt64:     sql.NullInt64{Int64: 64, Valid: true},
	}
}

func toPtr[T any](t T) *T {
	return &t
}
