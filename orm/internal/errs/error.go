package errs

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrPointerOnly 只支持一级指针作为输入
	// 看到这个 error 说明你输入了其它的东西
	// 我们并不希望用户能够直接使用 err == ErrPointerOnly
	// 所以放在我们的 internal 包里
	ErrPointerOnly = errors.New("orm: 只支持一级指针作为输入，例如 *User")

	ErrNoRows                 = errors.New("orm: 未找到数据")
	ErrTooManyReturnedColumns = errors.New("orm: 过多列")
	ErrInsertZeroRow          = errors.New("orm: 插入 0 行")

	ErrValuesNotConfigured      = errors.New("orm: queryable values have not been configured")
	ErrValuesOnlyWorksOnSession = errors.New("orm: queryable values only works on *orm.DB or *orm.Tx")
	ErrUnsupportedElementType   = errors.New("orm: unsupported queryable values element type")
	ErrValuesNotTranslated      = errors.New("orm: queryable values were not translated")
	ErrUnsupportedSerialization = errors.New("orm: unsupported serialization")
	ErrValuesInMultiColumn      = errors.New("orm: IN needs queryable values with exactly one column")
)

func NewErrUnsupportedExpressionType(exp any) error {
	return errors.Newf("orm: 不支持的表达式 %v", exp)
}

func NewErrUnknownField(fd string) error {
	return errors.Newf("orm: 未知字段 %s", fd)
}

func NewErrUnknownColumn(col string) error {
	return errors.Newf("orm: 未知列 %s", col)
}

func NewErrInvalidTagContent(tag string) error {
	return errors.Newf("orm: 错误的标签设置: %s", tag)
}

func NewErrUnsupportedSelectable(exp any) error {
	return errors.Newf("orm: 不支持的目标列 %v", exp)
}

func NewErrUnsupportedTable(tbl any) error {
	return errors.Newf("orm: 不支持的表 %v", tbl)
}

func NewErrUnknownDriver(driver string) error {
	return errors.WithHint(
		errors.Newf("orm: unknown driver %q", driver),
		"use OpenDB with DBWithDialect to pick the dialect explicitly")
}

// NewErrValuesNotConfigured 在没有调用 DBWithQueryableValues 的 DB 上使用 queryable values
func NewErrValuesNotConfigured(sess any) error {
	return errors.WithHint(
		errors.Newf("%w for %T", ErrValuesNotConfigured, sess),
		"open the DB with orm.DBWithQueryableValues() to enable queryable values")
}

func NewErrValuesOnlyWorksOnSession(got any) error {
	return errors.Newf("%w, got %T", ErrValuesOnlyWorksOnSession, got)
}

func NewErrUnsupportedElementType(typ any, reason string) error {
	return errors.Newf("%w %v: %s", ErrUnsupportedElementType, typ, reason)
}

// NewErrUnsupportedValue 类型支持，但是这个值没办法序列化
func NewErrUnsupportedValue(col, reason string) error {
	return errors.Newf("%w: column %s: %s", ErrUnsupportedElementType, col, reason)
}

func NewErrValuesInMultiColumn(alias string, cols int) error {
	return errors.WithHint(
		errors.Newf("%w: %s has %d columns", ErrValuesInMultiColumn, alias, cols),
		"join the values table instead, or select the column in a subquery")
}

func NewErrValuesNotTranslated(alias string) error {
	return errors.WithHint(
		errors.Newf("%w: %s", ErrValuesNotTranslated, alias),
		"queryable values must be used with a session opened with orm.DBWithQueryableValues()")
}

func NewErrUnsupportedSerialization(format, dialect string) error {
	return errors.Newf("%w %s for dialect %s", ErrUnsupportedSerialization, format, dialect)
}

func NewErrUnsupportedJoinUsing(dialect string) error {
	return errors.WithHint(
		errors.Newf("orm: %s 不支持 JOIN USING", dialect),
		"use On with explicit predicates instead")
}
