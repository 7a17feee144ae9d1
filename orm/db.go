package orm

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/coderi421/kyuu-qv/orm/internal/capability"
	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/internal/payload"
	"github.com/coderi421/kyuu-qv/orm/internal/valuer"
	"github.com/coderi421/kyuu-qv/orm/model"
	"github.com/google/uuid"
)

type DBOption func(*DB)

// DB 是 sql.DB 的装饰器
type DB struct {
	core
	conn   atomic.Pointer[conn]
	driver string
}

// conn 一个连接池，以及它在能力缓存里面的 key
// 同一个 DSN 打开两次也是两个不同的 key
type conn struct {
	db  *sql.DB
	key string
}

func newConn(db *sql.DB, dsn string) *conn {
	return &conn{
		db:  db,
		key: uuid.New().String() + "|" + dsn,
	}
}

// Open 创建一个 DB 实例。
// 默认情况下，该 DB 使用 unsafe 的方式来映射结果集
// 方言根据 driver 来确定，不认识的 driver 需要用 OpenDB 加上 DBWithDialect
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	d := dialectOf(driver)
	if d == nil {
		return nil, errs.NewErrUnknownDriver(driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	res := newDB(newConn(db, dsn), append([]DBOption{DBWithDialect(d)}, opts...)...)
	res.driver = driver
	return res, nil
}

// OpenDB 使用已有的 sql.DB，默认是 MySQL 方言
// 常用于测试，以及集成别的连接池
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	return newDB(newConn(db, ""), opts...), nil
}

// MustOpen 创建一个 DB，如果失败则会 panic
// 我个人不太喜欢这种
func MustOpen(driver string, dsn string, opts ...DBOption) *DB {
	db, err := Open(driver, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

func newDB(cn *conn, opts ...DBOption) *DB {
	res := &DB{
		core: core{
			dialect:    MySQL,
			r:          model.NewRegistry(),
			valCreator: valuer.NewUnsafeValue,
		},
	}
	res.conn.Store(cn)
	for _, opt := range opts {
		opt(res)
	}
	// 依赖 registry，所以要在 option 之后初始化
	res.schemas = payload.NewSchemaCache(res.r)
	res.detector = capability.NewDetector()
	res.templates = newTemplateCache(defaultTemplateCacheSize)
	return res
}

func DBWithDialect(d Dialect) DBOption {
	return func(db *DB) {
		db.dialect = d
	}
}

// DBUseReflectValuer 使用反射来映射结果集
func DBUseReflectValuer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewReflectValue
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = append(db.mdls, mdls...)
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

// DBWithRewriters 在生成 SQL 之前改写查询树，按照传入的顺序执行
func DBWithRewriters(rws ...Rewriter) DBOption {
	return func(db *DB) {
		db.rewriters = append(db.rewriters, rws...)
	}
}

// DBWithQueryableValues 启用 queryable values
// 默认自动探测序列化方式，并且不带 TOP / LIMIT
func DBWithQueryableValues(opts ...ValuesOption) DBOption {
	return func(db *DB) {
		if db.values != nil {
			// 重复调用只更新配置，不重复注册 rewriter
			for _, opt := range opts {
				opt(db.values)
			}
			return
		}
		cfg := &valuesConfig{suppressPrescan: true}
		for _, opt := range opts {
			opt(cfg)
		}
		db.values = cfg
		db.rewriters = append(db.rewriters, valuesRewriter{})
	}
}

// QueryableValuesEnabled 是否可以在这个 DB 上使用 AsQueryableValues
func (db *DB) QueryableValuesEnabled() bool {
	return db != nil && db.values != nil
}

func (db *DB) sqlDB() *sql.DB {
	return db.conn.Load().db
}

// BeginTx 开启事务
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	cn := db.conn.Load()
	tx, err := cn.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db, key: cn.key}, nil
}

// DoTx 将会开启事务执行 fn。如果 fn 返回错误或者发生 panic，事务将会回滚，
// 否则提交事务
func (db *DB) DoTx(ctx context.Context,
	fn func(ctx context.Context, tx *Tx) error,
	opts *sql.TxOptions) (err error) {
	var tx *Tx
	tx, err = db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			e := tx.Rollback()
			if e != nil {
				err = errors.WithSecondaryError(
					errors.Wrap(err, "orm: 事务回滚失败"), e)
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(ctx, tx)
	panicked = false
	return err
}

// Reconnect 使用新的 DSN 重新建立连接池
// 新的连接池 ping 通之后才会替换旧的，旧的连接池会被关闭
// 新的连接池会重新探测数据库能力
// 只能用于 Open 创建的 DB
func (db *DB) Reconnect(ctx context.Context, dsn string) error {
	if db.driver == "" {
		return errors.New("orm: Reconnect 只能用于 Open 创建的 DB")
	}
	sqlDB, err := sql.Open(db.driver, dsn)
	if err != nil {
		return err
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		// 旧的连接池继续用
		return errors.CombineErrors(errors.Wrap(err, "orm: 新的连接池不可用"), sqlDB.Close())
	}
	old := db.conn.Swap(newConn(sqlDB, dsn))
	db.detector.Reset(old.key)
	return old.db.Close()
}

func (db *DB) Close() error {
	cn := db.conn.Load()
	db.detector.Reset(cn.key)
	return cn.db.Close()
}

func (db *DB) getCore() core {
	return db.core
}

func (db *DB) connKey() string {
	return db.conn.Load().key
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.sqlDB().QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.sqlDB().ExecContext(ctx, query, args...)
}
