package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/desa/cfg"
	"github.com/hatlonely/desa/logger"
	"github.com/hatlonely/desa/schema"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableDbOptions struct {
	// Db 被包装的数据库配置
	Db *Options `cfg:"db" validate:"required"`

	// Logger 日志记录器配置
	Logger *logger.SLogOptions `cfg:"logger"`

	// EnableMetrics 是否启用指标收集
	EnableMetrics bool `cfg:"enableMetrics" def:"true"`

	// EnableLogging 是否启用日志记录
	EnableLogging bool `cfg:"enableLogging" def:"true"`

	// EnableTracing 是否启用分布式追踪
	EnableTracing bool `cfg:"enableTracing" def:"false"`

	// Name 组件名称标识，用于所有观测维度
	// - Metrics: 作为指标名前缀
	// - Logging: 作为 component 字段值
	// - Tracing: 作为 span 的 component 属性
	Name string `cfg:"name" def:"desa"`
}

// ObservableMetrics 封装 prometheus 指标
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	activeOperations  *prometheus.GaugeVec
}

// NewObservableMetrics 创建指标收集器
func NewObservableMetrics(name string) *ObservableMetrics {
	metrics := &ObservableMetrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
		activeOperations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: name + "_active_operations",
				Help: "Number of active database operations",
			},
			[]string{"operation"},
		),
	}

	// 注册到默认 prometheus registry
	prometheus.MustRegister(
		metrics.operationCounter,
		metrics.operationDuration,
		metrics.activeOperations,
	)

	return metrics
}

// ObservableDb 装饰器，为数据库操作添加观测能力
type ObservableDb struct {
	db *Db

	logger        logger.Logger
	metrics       *ObservableMetrics
	tracer        trace.Tracer
	name          string
	enableMetrics bool
	enableLogging bool
	enableTracing bool
}

func NewObservableDbWithOptions(options *ObservableDbOptions) (*ObservableDb, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	// 开关的显式 false 不能被默认值覆盖，这里只校验不回填
	if err := cfg.ValidateStruct(options); err != nil {
		return nil, errors.WithMessage(err, "cfg.ValidateStruct failed")
	}

	name := options.Name
	if name == "" {
		name = "desa"
	}

	db, err := NewDbWithOptions(options.Db)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create underlying database")
	}

	obs := &ObservableDb{
		db:            db,
		name:          name,
		enableMetrics: options.EnableMetrics,
		enableLogging: options.EnableLogging,
		enableTracing: options.EnableTracing,
	}

	// 创建 logger（可选）
	if options.EnableLogging && options.Logger != nil {
		l, err := logger.NewSLogWithOptions(options.Logger)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create logger")
		}
		obs.logger = l.WithGroup("observableDb")
	}

	// 创建 metrics（可选）
	if options.EnableMetrics {
		obs.metrics = NewObservableMetrics(name)
	}

	// 创建 tracer（可选）
	if options.EnableTracing {
		obs.tracer = otel.Tracer(fmt.Sprintf("database.%s", name))
	}

	return obs, nil
}

// Db 返回被包装的数据库
func (obs *ObservableDb) Db() *Db {
	return obs.db
}

// observeOperation 统一的操作观测逻辑
func (obs *ObservableDb) observeOperation(ctx context.Context, operation string, table string, fn func(context.Context) error) error {
	start := time.Now()

	// 创建 tracing span
	var span trace.Span
	if obs.enableTracing && obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("database.%s", operation),
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("operation", operation),
				attribute.String("table", table),
			),
		)
		defer span.End()
	}

	// 记录活跃操作数
	if obs.enableMetrics && obs.metrics != nil {
		obs.metrics.activeOperations.WithLabelValues(operation).Inc()
		defer obs.metrics.activeOperations.WithLabelValues(operation).Dec()
	}

	// 执行实际操作
	err := fn(ctx)
	duration := time.Since(start)

	// 更新 tracing span
	if obs.enableTracing && span != nil {
		span.SetAttributes(
			attribute.Int64("duration_ms", duration.Milliseconds()),
		)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	// 记录指标
	if obs.enableMetrics && obs.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	// 记录日志
	if obs.enableLogging && obs.logger != nil {
		if err != nil {
			obs.logger.ErrorContext(ctx, "database operation failed",
				"component", obs.name,
				"operation", operation,
				"table", table,
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			)
		} else {
			obs.logger.InfoContext(ctx, "database operation completed",
				"component", obs.name,
				"operation", operation,
				"table", table,
				"duration_ms", duration.Milliseconds(),
			)
		}
	}

	return err
}

func (obs *ObservableDb) ReadSchemas(ctx context.Context, recordTypes ...*schema.RecordType) error {
	return obs.observeOperation(ctx, "read_schemas", "", func(ctx context.Context) error {
		return obs.db.ReadSchemas(ctx, recordTypes...)
	})
}

func (obs *ObservableDb) ReadSchemaFile(ctx context.Context, path string) ([]*schema.RecordType, error) {
	var result []*schema.RecordType
	err := obs.observeOperation(ctx, "read_schema_file", "", func(ctx context.Context) error {
		var loadErr error
		result, loadErr = obs.db.ReadSchemaFile(ctx, path)
		return loadErr
	})
	return result, err
}

func (obs *ObservableDb) Insert(rt *schema.RecordType) InsertFunc {
	insert := obs.db.Insert(rt)
	return func(ctx context.Context, args ...any) error {
		return obs.observeOperation(ctx, "insert", rt.Table, func(ctx context.Context) error {
			return insert(ctx, args...)
		})
	}
}

func (obs *ObservableDb) Update(rt *schema.RecordType) UpdateFunc {
	return obs.observeUpdate("update", rt, obs.db.Update(rt))
}

func (obs *ObservableDb) UpdateBy(rt *schema.RecordType, column string) UpdateFunc {
	return obs.observeUpdate("update", rt, obs.db.UpdateBy(rt, column))
}

func (obs *ObservableDb) observeUpdate(operation string, rt *schema.RecordType, update UpdateFunc) UpdateFunc {
	return func(ctx context.Context, id any, sets ...schema.NamedValue) error {
		return obs.observeOperation(ctx, operation, rt.Table, func(ctx context.Context) error {
			return update(ctx, id, sets...)
		})
	}
}

func (obs *ObservableDb) Find(rt *schema.RecordType) FindFunc {
	return obs.observeFind("find", rt, obs.db.Find(rt))
}

func (obs *ObservableDb) FindBy(rt *schema.RecordType, column string) FindFunc {
	return obs.observeFind("find", rt, obs.db.FindBy(rt, column))
}

func (obs *ObservableDb) observeFind(operation string, rt *schema.RecordType, find FindFunc) FindFunc {
	return func(ctx context.Context, id any) (*schema.Record, error) {
		var result *schema.Record
		err := obs.observeOperation(ctx, operation, rt.Table, func(ctx context.Context) error {
			var findErr error
			result, findErr = find(ctx, id)
			return findErr
		})
		return result, err
	}
}

func (obs *ObservableDb) Delete(rt *schema.RecordType) DeleteFunc {
	return obs.observeDelete("delete", rt, obs.db.Delete(rt))
}

func (obs *ObservableDb) DeleteBy(rt *schema.RecordType, column string) DeleteFunc {
	return obs.observeDelete("delete", rt, obs.db.DeleteBy(rt, column))
}

func (obs *ObservableDb) observeDelete(operation string, rt *schema.RecordType, del DeleteFunc) DeleteFunc {
	return func(ctx context.Context, id any) error {
		return obs.observeOperation(ctx, operation, rt.Table, func(ctx context.Context) error {
			return del(ctx, id)
		})
	}
}

func (obs *ObservableDb) DropTable(ctx context.Context, table string) error {
	return obs.observeOperation(ctx, "drop_table", table, func(ctx context.Context) error {
		return obs.db.DropTable(ctx, table)
	})
}

func (obs *ObservableDb) Close() error {
	return obs.observeOperation(context.Background(), "close", "", func(ctx context.Context) error {
		return obs.db.Close()
	})
}
