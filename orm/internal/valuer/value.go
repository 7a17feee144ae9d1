package valuer

import (
	"database/sql"

	"github.com/coderi421/kyuu-qv/orm/model"
)

// Value 是对结构体实例的内部抽象
type Value interface {
	// SetColumns 设置新值，只能在 rows.Next 之后调用
	SetColumns(rows *sql.Rows) error
}

// Creator 本质上也可以看所是 factory 模式，极其简单的 factory 模式
// val 必须是指向结构体的一级指针
type Creator func(val any, meta *model.Model) Value
