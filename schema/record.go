package schema

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownField 参数指定了记录类型之外的字段
	ErrUnknownField = errors.New("unknown field")
	// ErrTooManyArguments 位置参数多于字段数
	ErrTooManyArguments = errors.New("too many arguments")
	// ErrPositionalAfterNamed 命名参数之后出现位置参数
	ErrPositionalAfterNamed = errors.New("positional argument after named argument")
	// ErrDuplicateArgument 同一字段被赋值多次
	ErrDuplicateArgument = errors.New("duplicate argument")
)

// NamedValue 命名参数，按字段名而不是声明顺序赋值
type NamedValue struct {
	Name  string
	Value any
}

// Named 构造命名参数，与位置参数混用时必须放在位置参数之后
func Named(name string, value any) NamedValue {
	return NamedValue{Name: name, Value: value}
}

// Record 一条记录实例，字段值按声明顺序迭代
type Record struct {
	recordType *RecordType
	values     map[string]any
}

// BindArgs 以位置参数加命名参数构造记录
// 位置参数按字段声明顺序填充；未赋值的字段取声明的默认值，
// 没有默认值则视为缺省，不会出现在生成的语句里
func (rt *RecordType) BindArgs(args ...any) (*Record, error) {
	values := make(map[string]any, len(args))

	named := false
	position := 0
	for _, arg := range args {
		nv, ok := arg.(NamedValue)
		if !ok {
			if named {
				return nil, errors.WithMessagef(ErrPositionalAfterNamed, "table %s", rt.Table)
			}
			if position >= len(rt.Fields) {
				return nil, errors.WithMessagef(ErrTooManyArguments, "table %s has %d fields", rt.Table, len(rt.Fields))
			}
			values[rt.Fields[position].Name] = arg
			position++
			continue
		}

		named = true
		if _, ok := rt.fieldIndex[nv.Name]; !ok {
			return nil, errors.WithMessagef(ErrUnknownField, "table %s, field %s", rt.Table, nv.Name)
		}
		if _, ok := values[nv.Name]; ok {
			return nil, errors.WithMessagef(ErrDuplicateArgument, "table %s, field %s", rt.Table, nv.Name)
		}
		values[nv.Name] = nv.Value
	}

	for _, field := range rt.Fields {
		if _, ok := values[field.Name]; ok {
			continue
		}
		if field.Default != nil {
			values[field.Name] = field.Default
		}
	}

	return &Record{recordType: rt, values: values}, nil
}

// NewRecord 从已有的字段值映射构造记录，查询结果重建时使用
func (rt *RecordType) NewRecord(values map[string]any) *Record {
	if values == nil {
		values = make(map[string]any)
	}
	return &Record{recordType: rt, values: values}
}

// Type 记录所属的记录类型
func (r *Record) Type() *RecordType {
	return r.recordType
}

// Get 取字段值，字段缺省时第二个返回值为 false
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set 设置字段值，字段必须在记录类型中声明过
func (r *Record) Set(name string, value any) error {
	if _, ok := r.recordType.fieldIndex[name]; !ok {
		return errors.WithMessagef(ErrUnknownField, "table %s, field %s", r.recordType.Table, name)
	}
	r.values[name] = value
	return nil
}

// Columns 已赋值的字段名，按声明顺序
func (r *Record) Columns() []string {
	columns := make([]string, 0, len(r.values))
	for _, field := range r.recordType.Fields {
		if _, ok := r.values[field.Name]; ok {
			columns = append(columns, field.Name)
		}
	}
	return columns
}

// Values 按给定字段顺序取值
func (r *Record) Values(columns []string) []any {
	values := make([]any, len(columns))
	for i, column := range columns {
		values[i] = r.values[column]
	}
	return values
}

// Fields 字段值映射
func (r *Record) Fields() map[string]any {
	return r.values
}

// Scan 将记录扫描进结构体，按 desa 标签或字段名匹配列
func (r *Record) Scan(dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.New("dest must be a pointer to struct")
	}

	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("desa"); tag != "" {
			if tag == "-" {
				continue
			}
			if idx := strings.Index(tag, ","); idx != -1 {
				name = tag[:idx]
			} else {
				name = tag
			}
		}

		value, ok := r.values[name]
		if !ok || value == nil {
			continue
		}

		fieldValue := rv.Field(i)
		if !fieldValue.CanSet() {
			continue
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			return errors.WithMessagef(err, "field %s", name)
		}
	}
	return nil
}

// setFieldValue 设置字段值
func setFieldValue(fieldValue reflect.Value, value any) error {
	valueType := reflect.TypeOf(value)
	fieldType := fieldValue.Type()

	// sqlite3 的 BOOLEAN 列读出来是 int64
	if fieldType.Kind() == reflect.Bool {
		switch v := value.(type) {
		case int64:
			fieldValue.SetBool(v != 0)
			return nil
		case bool:
			fieldValue.SetBool(v)
			return nil
		}
	}

	if valueType.AssignableTo(fieldType) {
		fieldValue.Set(reflect.ValueOf(value))
		return nil
	}
	if valueType.ConvertibleTo(fieldType) {
		fieldValue.Set(reflect.ValueOf(value).Convert(fieldType))
		return nil
	}
	return errors.Errorf("cannot convert %v to %v", valueType, fieldType)
}
