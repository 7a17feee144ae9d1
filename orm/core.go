package orm

import (
	"github.com/coderi421/kyuu-qv/orm/internal/capability"
	"github.com/coderi421/kyuu-qv/orm/internal/payload"
	"github.com/coderi421/kyuu-qv/orm/internal/valuer"
	"github.com/coderi421/kyuu-qv/orm/model"
)

type core struct {
	dialect    Dialect
	r          model.Registry // 存储数据库表和 struct 映射关系的实例
	valCreator valuer.Creator // 与DB交互映射的实现
	mdls       []Middleware
	rewriters  []Rewriter

	// values 为 nil 代表没有启用 queryable values
	values    *valuesConfig
	schemas   *payload.SchemaCache
	detector  *capability.Detector
	templates *templateCache
}
