package valuer

import (
	"database/sql"
	"reflect"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/model"
)

// reflectValue 基于反射的 Value
type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装好的，基于反射实现的 Value
// 输入 val 必须是一个指向结构体实例的指针，而不能是任何其它类型
func NewReflectValue(val any, meta *model.Model) Value {
	return reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

// SetColumns 按照列名，把当前行的数据设置到结构体对应的字段上
func (r reflectValue) SetColumns(rows *sql.Rows) error {
	columnNames, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(columnNames) > len(r.meta.Fields) {
		return errs.ErrTooManyReturnedColumns
	}

	// colValues 和 colEleValues 实质上最终都指向同一个对象
	colValues := make([]any, len(columnNames))
	colEleValues := make([]reflect.Value, len(columnNames))
	fields := make([]*model.Field, len(columnNames))
	for i, name := range columnNames {
		fd, ok := r.meta.ColumnMap[name]
		if !ok {
			return errs.NewErrUnknownColumn(name)
		}
		v := reflect.New(fd.Type)
		colValues[i] = v.Interface()
		colEleValues[i] = v.Elem()
		fields[i] = fd
	}

	// Scan 接收的是 []any 而不是 []reflect.Value
	if err = rows.Scan(colValues...); err != nil {
		return err
	}

	for i, fd := range fields {
		r.val.Field(fd.Index).Set(colEleValues[i])
	}
	return nil
}
