package valuer

import (
	"database/sql"
	"reflect"
	"unsafe"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/model"
)

type unsafeValue struct {
	// 使用 unsafe.Pointer 而不是 uintptr，GC 移动对象之后 uintptr 就失效了
	addr unsafe.Pointer
	meta *model.Model
}

var _ Creator = NewUnsafeValue

func NewUnsafeValue(val any, meta *model.Model) Value {
	return unsafeValue{
		addr: unsafe.Pointer(reflect.ValueOf(val).Pointer()),
		meta: meta,
	}
}

// SetColumns 直接根据字段偏移量计算地址，让 Scan 写到结构体字段上
func (u unsafeValue) SetColumns(rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(columns) > len(u.meta.Fields) {
		return errs.ErrTooManyReturnedColumns
	}

	colValues := make([]any, len(columns))
	for i, column := range columns {
		fd, ok := u.meta.ColumnMap[column]
		if !ok {
			return errs.NewErrUnknownColumn(column)
		}
		ptr := unsafe.Add(u.addr, fd.Offset)
		colValues[i] = reflect.NewAt(fd.Type, ptr).Interface()
	}
	return rows.Scan(colValues...)
}
