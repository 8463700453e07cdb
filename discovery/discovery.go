package discovery

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hatlonely/desa/schema"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported schema file format")
	ErrNoTables          = errors.New("schema document defines no tables")
)

// document 表结构描述文件的根节点，所有表定义挂在 tables 下
type document struct {
	Tables []tableDoc `json:"tables" yaml:"tables" toml:"tables"`
}

type tableDoc struct {
	Table       string          `json:"table" yaml:"table" toml:"table"`
	Fields      []fieldDoc      `json:"fields" yaml:"fields" toml:"fields"`
	PrimaryKey  string          `json:"primaryKey" yaml:"primaryKey" toml:"primaryKey"`
	UniqueKeys  []string        `json:"uniqueKeys" yaml:"uniqueKeys" toml:"uniqueKeys"`
	ForeignKeys []foreignKeyDoc `json:"foreignKeys" yaml:"foreignKeys" toml:"foreignKeys"`
}

type fieldDoc struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Type     string `json:"type" yaml:"type" toml:"type"`
	Required bool   `json:"required" yaml:"required" toml:"required"`
	Default  any    `json:"default" yaml:"default" toml:"default"`
	Size     int    `json:"size" yaml:"size" toml:"size"`
}

type foreignKeyDoc struct {
	Column    string `json:"column" yaml:"column" toml:"column"`
	Table     string `json:"table" yaml:"table" toml:"table"`
	RefColumn string `json:"refColumn" yaml:"refColumn" toml:"refColumn"`
}

// Load 读取表结构描述文件并转换为记录类型，按扩展名选择解析格式
// 支持 .json、.yaml、.yml 和 .toml
func Load(path string) ([]*schema.RecordType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema file %s", path)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Parse(data, format)
}

// Parse 解析表结构描述内容，format 支持 json、yaml、yml、toml
// 字段类型只做字符串透传，非法类型在生成建表语句时报错
func Parse(data []byte, format string) ([]*schema.RecordType, error) {
	var doc document
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode json schema document")
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode yaml schema document")
		}
	case "toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode toml schema document")
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	if len(doc.Tables) == 0 {
		return nil, errors.WithStack(ErrNoTables)
	}

	recordTypes := make([]*schema.RecordType, 0, len(doc.Tables))
	for _, table := range doc.Tables {
		rt, err := convertTable(table)
		if err != nil {
			return nil, err
		}
		recordTypes = append(recordTypes, rt)
	}

	return recordTypes, nil
}

func convertTable(doc tableDoc) (*schema.RecordType, error) {
	fields := make([]schema.FieldDefinition, 0, len(doc.Fields))
	for _, field := range doc.Fields {
		fields = append(fields, schema.FieldDefinition{
			Name:     field.Name,
			Type:     schema.FieldType(field.Type),
			Required: field.Required,
			Default:  field.Default,
			Size:     field.Size,
		})
	}

	var keys []schema.Key
	if doc.PrimaryKey != "" {
		keys = append(keys, schema.PrimaryKey(doc.PrimaryKey))
	}
	for _, column := range doc.UniqueKeys {
		keys = append(keys, schema.UniqueKey(column))
	}
	for _, fk := range doc.ForeignKeys {
		keys = append(keys, schema.Key{
			Kind:      schema.KeyKindForeign,
			Column:    fk.Column,
			RefTable:  fk.Table,
			RefColumn: fk.RefColumn,
		})
	}

	rt, err := schema.NewRecordType(doc.Table, fields, keys...)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid table definition %q", doc.Table)
	}

	return rt, nil
}
