package schema

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnsupportedType 字段类型不在支持范围内
var ErrUnsupportedType = errors.New("unsupported field type")

// FieldType 字段类型
type FieldType string

const (
	FieldTypeInt    FieldType = "int"
	FieldTypeString FieldType = "string"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
	FieldTypeBytes  FieldType = "bytes"
	FieldTypeList   FieldType = "list"
	FieldTypeMap    FieldType = "map"
	FieldTypeNull   FieldType = "null"
)

// SQLType 将字段类型映射为 SQL 列类型
// dialect 为空时返回通用类型，sqlite3 和 mysql 返回各自方言的类型
func (t FieldType) SQLType(dialect string, size int) (string, error) {
	switch t {
	case FieldTypeInt:
		if dialect == "sqlite3" {
			return "INTEGER", nil
		}
		return "INT", nil
	case FieldTypeString:
		if dialect == "sqlite3" {
			return "TEXT", nil
		}
		if size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", size), nil
		}
		if dialect == "mysql" {
			return "VARCHAR(255)", nil
		}
		return "VARCHAR", nil
	case FieldTypeFloat:
		if dialect == "sqlite3" {
			return "REAL", nil
		}
		return "FLOAT", nil
	case FieldTypeBool:
		// sqlite 没有独立的布尔类型，BOOLEAN 按数值亲和性存储，读出是 int64
		return "BOOLEAN", nil
	case FieldTypeBytes, FieldTypeList, FieldTypeMap:
		return "TEXT", nil
	case FieldTypeNull:
		// mysql 的列必须有类型，NULL 约束单独出现只有 sqlite 接受
		if dialect == "mysql" {
			return "TEXT", nil
		}
		return "NULL", nil
	}
	return "", errors.Wrapf(ErrUnsupportedType, "%q", string(t))
}

// IsComposite 复合类型的值需要序列化后存入 TEXT 列
func (t FieldType) IsComposite() bool {
	return t == FieldTypeList || t == FieldTypeMap
}
