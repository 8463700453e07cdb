package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoFields 记录类型没有任何字段
	ErrNoFields = errors.New("record type has no fields")
	// ErrDuplicateField 字段名重复
	ErrDuplicateField = errors.New("duplicate field")
	// ErrUnknownColumn 键声明引用了不存在的字段
	ErrUnknownColumn = errors.New("unknown column")
)

// FieldDefinition 字段定义
type FieldDefinition struct {
	Name     string
	Type     FieldType
	Required bool
	Default  any
	Size     int // 字段长度，如 VARCHAR(255)
}

// RecordType 记录类型描述：表名、有序的字段列表和键声明
// 通过 NewRecordType 构造，构造时完成标识符校验
type RecordType struct {
	Table  string
	Fields []FieldDefinition
	Keys   []Key

	fieldIndex map[string]int
}

// NewRecordType 构造记录类型
// 表名中的空格会被替换成下划线；主键和唯一键只保留最先声明的一个，
// 外键按字段去重
func NewRecordType(table string, fields []FieldDefinition, keys ...Key) (*RecordType, error) {
	normalized, err := NormalizeTable(table)
	if err != nil {
		return nil, errors.WithMessagef(err, "table %q", table)
	}
	if len(fields) == 0 {
		return nil, errors.WithMessagef(ErrNoFields, "table %s", normalized)
	}

	fieldIndex := make(map[string]int, len(fields))
	for i, field := range fields {
		if err := ValidateIdentifier(field.Name); err != nil {
			return nil, errors.WithMessagef(err, "table %s", normalized)
		}
		if _, ok := fieldIndex[field.Name]; ok {
			return nil, errors.WithMessagef(ErrDuplicateField, "table %s, field %s", normalized, field.Name)
		}
		fieldIndex[field.Name] = i
	}

	rt := &RecordType{
		Table:      normalized,
		Fields:     fields,
		fieldIndex: fieldIndex,
	}

	var hasPrimary, hasUnique bool
	foreignColumns := make(map[string]struct{})
	for _, key := range keys {
		if _, ok := fieldIndex[key.Column]; !ok {
			return nil, errors.WithMessagef(ErrUnknownColumn, "table %s, %s key %s", normalized, key.Kind, key.Column)
		}
		switch key.Kind {
		case KeyKindPrimary:
			if hasPrimary {
				continue
			}
			hasPrimary = true
		case KeyKindUnique:
			if hasUnique {
				continue
			}
			hasUnique = true
		case KeyKindForeign:
			if err := ValidateIdentifier(key.RefTable); err != nil {
				return nil, errors.WithMessagef(err, "table %s, foreign key %s", normalized, key.Column)
			}
			if key.RefColumn != "" {
				if err := ValidateIdentifier(key.RefColumn); err != nil {
					return nil, errors.WithMessagef(err, "table %s, foreign key %s", normalized, key.Column)
				}
			}
			if _, ok := foreignColumns[key.Column]; ok {
				continue
			}
			foreignColumns[key.Column] = struct{}{}
		default:
			return nil, errors.Errorf("unknown key kind: %s", key.Kind)
		}
		rt.Keys = append(rt.Keys, key)
	}

	return rt, nil
}

// Field 按名字取字段定义
func (rt *RecordType) Field(name string) (FieldDefinition, bool) {
	i, ok := rt.fieldIndex[name]
	if !ok {
		return FieldDefinition{}, false
	}
	return rt.Fields[i], true
}

// PrimaryKey 主键字段名，未声明主键时第二个返回值为 false
func (rt *RecordType) PrimaryKey() (string, bool) {
	for _, key := range rt.Keys {
		if key.Kind == KeyKindPrimary {
			return key.Column, true
		}
	}
	return "", false
}

// TableSchema 由记录类型派生出的建表语句
type TableSchema struct {
	Table string
	DDL   string
}

// Schema 派生建表语句，对已存在的表重复执行是安全的
// 字段是导出的，记录类型可能绕过 NewRecordType 直接构造，
// 所有会被拼接进 SQL 的标识符在这里重新校验一遍
func (rt *RecordType) Schema(dialect string) (*TableSchema, error) {
	if err := ValidateIdentifier(rt.Table); err != nil {
		return nil, errors.WithMessagef(err, "table %q", rt.Table)
	}
	if len(rt.Fields) == 0 {
		return nil, errors.WithMessagef(ErrNoFields, "table %s", rt.Table)
	}

	var columns []string
	for _, field := range rt.Fields {
		if err := ValidateIdentifier(field.Name); err != nil {
			return nil, errors.WithMessagef(err, "table %s", rt.Table)
		}
		columnDef, err := buildColumnDefinition(field, dialect)
		if err != nil {
			return nil, errors.WithMessagef(err, "table %s, field %s", rt.Table, field.Name)
		}
		columns = append(columns, columnDef)
	}

	for _, key := range rt.Keys {
		if err := ValidateIdentifier(key.Column); err != nil {
			return nil, errors.WithMessagef(err, "table %s, %s key", rt.Table, key.Kind)
		}
		switch key.Kind {
		case KeyKindPrimary:
			columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", key.Column))
		case KeyKindUnique:
			columns = append(columns, fmt.Sprintf("UNIQUE (%s)", key.Column))
		case KeyKindForeign:
			if err := ValidateIdentifier(key.RefTable); err != nil {
				return nil, errors.WithMessagef(err, "table %s, foreign key %s", rt.Table, key.Column)
			}
			ref := key.RefTable
			if key.RefColumn != "" {
				if err := ValidateIdentifier(key.RefColumn); err != nil {
					return nil, errors.WithMessagef(err, "table %s, foreign key %s", rt.Table, key.Column)
				}
				ref = fmt.Sprintf("%s(%s)", key.RefTable, key.RefColumn)
			}
			columns = append(columns, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s", key.Column, ref))
		}
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		rt.Table, strings.Join(columns, ",\n  "))

	return &TableSchema{Table: rt.Table, DDL: ddl}, nil
}

// buildColumnDefinition 构建单个字段定义
func buildColumnDefinition(field FieldDefinition, dialect string) (string, error) {
	sqlType, err := field.Type.SQLType(dialect, field.Size)
	if err != nil {
		return "", err
	}

	parts := []string{field.Name, sqlType}
	if field.Required {
		parts = append(parts, "NOT NULL")
	}
	if field.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", formatDefaultValue(field.Default)))
	}
	return strings.Join(parts, " "), nil
}

// formatDefaultValue 格式化默认值
func formatDefaultValue(value any) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}
