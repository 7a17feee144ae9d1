package orm

import "github.com/coderi421/kyuu-qv/orm/internal/errs"

// 将内部的 sentinel error 暴露出去
var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errs.ErrNoRows

	// ErrValuesNotConfigured 代表 DB 没有启用 queryable values
	ErrValuesNotConfigured = errs.ErrValuesNotConfigured
	// ErrValuesOnlyWorksOnSession 代表传入的不是 *DB 或者 *Tx
	ErrValuesOnlyWorksOnSession = errs.ErrValuesOnlyWorksOnSession
	ErrUnsupportedElementType   = errs.ErrUnsupportedElementType
	ErrValuesNotTranslated      = errs.ErrValuesNotTranslated
	ErrUnsupportedSerialization = errs.ErrUnsupportedSerialization
	// ErrValuesInMultiColumn 代表 Column.In 的 queryable values 有多个列
	ErrValuesInMultiColumn = errs.ErrValuesInMultiColumn
)
