package database

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hatlonely/desa/cfg"
	"github.com/hatlonely/desa/discovery"
	"github.com/hatlonely/desa/logger"
	"github.com/hatlonely/desa/schema"
	"github.com/hatlonely/desa/serializer"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrNotConnected       = errors.New("database is not connected")
	ErrEmptyUpdate        = errors.New("update requires at least one assignment")
	ErrTableNotRegistered = errors.New("table is not registered")
)

// Db 数据库门面，负责连接管理、建表和语句生成
type Db struct {
	db        *sql.DB
	driver    string
	codec     serializer.Serializer[any, []byte]
	codecName string
	logger    logger.Logger

	mu       sync.RWMutex
	registry map[string]*schema.RecordType
	closed   bool
}

func NewDbWithOptions(options *Options) (*Db, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	if err := cfg.SetDefaults(options); err != nil {
		return nil, errors.WithMessage(err, "cfg.SetDefaults failed")
	}
	if err := cfg.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "cfg.ValidateStruct failed")
	}

	dsn, err := buildDSN(options)
	if err != nil {
		return nil, err
	}
	if options.Driver == "sqlite3" && options.DSN == "" {
		if err := prepareSQLitePath(options.Path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", options.Driver)
	}

	// 单连接模型，语句按提交顺序串行执行
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect database %s", options.Driver)
	}

	codec, err := serializer.NewByteSerializerWithName[any](options.Codec)
	if err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "serializer.NewByteSerializerWithName failed")
	}

	slogOptions := options.Logger
	if slogOptions == nil {
		slogOptions = &logger.SLogOptions{}
	}
	log, err := logger.NewSLogWithOptions(slogOptions)
	if err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "logger.NewSLogWithOptions failed")
	}

	return &Db{
		db:        db,
		driver:    options.Driver,
		codec:     codec,
		codecName: options.Codec,
		logger:    log.With("component", "database"),
		registry:  map[string]*schema.RecordType{},
	}, nil
}

// WithDb 打开数据库执行 fn，结束后自动关闭连接
func WithDb(options *Options, fn func(db *Db) error) error {
	db, err := NewDbWithOptions(options)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

// ReadSchemas 注册记录类型并为缺失的表执行建表语句
// 重复注册同一张表时，后注册的记录类型生效
func (d *Db) ReadSchemas(ctx context.Context, recordTypes ...*schema.RecordType) error {
	for _, rt := range recordTypes {
		ts, err := rt.Schema(d.driver)
		if err != nil {
			return err
		}

		db, err := d.conn()
		if err != nil {
			return errors.Wrapf(err, "read schemas, table %s", rt.Table)
		}

		d.mu.Lock()
		d.registry[rt.Table] = rt
		d.mu.Unlock()

		exists, err := d.TableExists(ctx, rt.Table)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		if _, err := db.ExecContext(ctx, ts.DDL); err != nil {
			return errors.Wrapf(err, "failed to create table %s", rt.Table)
		}
		d.logger.InfoContext(ctx, "table created", "table", rt.Table, "driver", d.driver)
	}

	return nil
}

// ReadSchemaFile 从 json、yaml 或 toml 文件加载表结构并注册
func (d *Db) ReadSchemaFile(ctx context.Context, path string) ([]*schema.RecordType, error) {
	recordTypes, err := discovery.Load(path)
	if err != nil {
		return nil, err
	}

	if err := d.ReadSchemas(ctx, recordTypes...); err != nil {
		return nil, err
	}
	return recordTypes, nil
}

// TableExists 查询表是否已经存在
func (d *Db) TableExists(ctx context.Context, table string) (bool, error) {
	db, err := d.conn()
	if err != nil {
		return false, errors.Wrapf(err, "table exists, table %s", table)
	}

	var query string
	switch d.driver {
	case "mysql":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	default:
		query = "SELECT name FROM sqlite_master WHERE type='table' AND name = ?"
	}

	var name string
	if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to query table %s", table)
	}
	return true, nil
}

// DropTable 删除表并注销对应的记录类型
func (d *Db) DropTable(ctx context.Context, table string) error {
	db, err := d.conn()
	if err != nil {
		return errors.Wrapf(err, "drop table %s", table)
	}

	name, err := schema.NormalizeTable(table)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return errors.Wrapf(err, "failed to drop table %s", name)
	}

	d.mu.Lock()
	delete(d.registry, name)
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "table dropped", "table", name)
	return nil
}

// Tables 返回所有已注册的表名，按字典序排列
func (d *Db) Tables() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tables := make([]string, 0, len(d.registry))
	for table := range d.registry {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

// Close 关闭数据库连接，重复调用无副作用
func (d *Db) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func (d *Db) conn() (*sql.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, ErrNotConnected
	}
	return d.db, nil
}

func (d *Db) registered(table string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.registry[table]
	return ok
}
