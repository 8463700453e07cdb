package database

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/hatlonely/desa/schema"
	"github.com/pkg/errors"
)

type InsertFunc func(ctx context.Context, args ...any) error

type UpdateFunc func(ctx context.Context, id any, sets ...schema.NamedValue) error

type FindFunc func(ctx context.Context, id any) (*schema.Record, error)

type DeleteFunc func(ctx context.Context, id any) error

// Insert 生成插入函数，参数按字段声明顺序绑定，命名参数用 schema.Named 传入
func (d *Db) Insert(rt *schema.RecordType) InsertFunc {
	return func(ctx context.Context, args ...any) error {
		db, err := d.conn()
		if err != nil {
			return errors.Wrapf(err, "insert into %s", rt.Table)
		}
		if !d.registered(rt.Table) {
			return errors.Wrapf(ErrTableNotRegistered, "%s", rt.Table)
		}

		record, err := rt.BindArgs(args...)
		if err != nil {
			return err
		}

		columns := record.Columns()
		if len(columns) == 0 {
			return errors.Errorf("insert into %s requires at least one value", rt.Table)
		}

		raw := record.Values(columns)
		placeholders := make([]string, len(columns))
		values := make([]any, len(columns))
		for i, column := range columns {
			// 记录类型可以不经过 NewRecordType 构造，列名拼接前重新校验
			if err := schema.ValidateIdentifier(column); err != nil {
				return errors.WithMessagef(err, "insert into %s", rt.Table)
			}
			field, _ := rt.Field(column)
			value, err := d.encodeValue(field, raw[i])
			if err != nil {
				return err
			}
			placeholders[i] = "?"
			values[i] = value
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			rt.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
		if _, err := db.ExecContext(ctx, query, values...); err != nil {
			return errors.Wrapf(err, "failed to insert into %s", rt.Table)
		}
		return nil
	}
}

// Update 生成按主键更新的函数
func (d *Db) Update(rt *schema.RecordType) UpdateFunc {
	return d.update(rt, "")
}

// UpdateBy 生成按指定列更新的函数
func (d *Db) UpdateBy(rt *schema.RecordType, column string) UpdateFunc {
	return d.update(rt, column)
}

func (d *Db) update(rt *schema.RecordType, column string) UpdateFunc {
	return func(ctx context.Context, id any, sets ...schema.NamedValue) error {
		db, err := d.conn()
		if err != nil {
			return errors.Wrapf(err, "update %s", rt.Table)
		}
		if !d.registered(rt.Table) {
			return errors.Wrapf(ErrTableNotRegistered, "%s", rt.Table)
		}

		identifier, err := identifyingColumn(rt, column)
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			return errors.Wrapf(ErrEmptyUpdate, "table %s", rt.Table)
		}

		assignments := make([]string, 0, len(sets))
		values := make([]any, 0, len(sets)+1)
		seen := map[string]bool{}
		for _, set := range sets {
			if err := schema.ValidateIdentifier(set.Name); err != nil {
				return errors.WithMessagef(err, "update %s", rt.Table)
			}
			field, ok := rt.Field(set.Name)
			if !ok {
				return errors.Wrapf(schema.ErrUnknownField, "table %s, field %s", rt.Table, set.Name)
			}
			if set.Name == identifier {
				return errors.Errorf("cannot update identifying column %s of table %s", identifier, rt.Table)
			}
			if seen[set.Name] {
				return errors.Wrapf(schema.ErrDuplicateArgument, "field %s", set.Name)
			}
			seen[set.Name] = true

			value, err := d.encodeValue(field, set.Value)
			if err != nil {
				return err
			}
			assignments = append(assignments, set.Name+" = ?")
			values = append(values, value)
		}

		idField, _ := rt.Field(identifier)
		idValue, err := d.encodeValue(idField, id)
		if err != nil {
			return err
		}
		values = append(values, idValue)

		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
			rt.Table, strings.Join(assignments, ", "), identifier)
		if _, err := db.ExecContext(ctx, query, values...); err != nil {
			return errors.Wrapf(err, "failed to update %s", rt.Table)
		}
		return nil
	}
}

// Find 生成按主键查询单条记录的函数，未命中返回 ErrRecordNotFound
func (d *Db) Find(rt *schema.RecordType) FindFunc {
	return d.find(rt, "")
}

// FindBy 生成按指定列查询单条记录的函数
func (d *Db) FindBy(rt *schema.RecordType, column string) FindFunc {
	return d.find(rt, column)
}

func (d *Db) find(rt *schema.RecordType, column string) FindFunc {
	return func(ctx context.Context, id any) (*schema.Record, error) {
		db, err := d.conn()
		if err != nil {
			return nil, errors.Wrapf(err, "find in %s", rt.Table)
		}
		if !d.registered(rt.Table) {
			return nil, errors.Wrapf(ErrTableNotRegistered, "%s", rt.Table)
		}

		identifier, err := identifyingColumn(rt, column)
		if err != nil {
			return nil, err
		}
		idField, _ := rt.Field(identifier)
		idValue, err := d.encodeValue(idField, id)
		if err != nil {
			return nil, err
		}

		query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", rt.Table, identifier)
		rows, err := db.QueryContext(ctx, query, idValue)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to query %s", rt.Table)
		}
		defer rows.Close()

		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, errors.Wrapf(err, "failed to query %s", rt.Table)
			}
			return nil, errors.Wrapf(ErrRecordNotFound, "table %s, %s = %v", rt.Table, identifier, id)
		}

		return d.scanRecord(rt, rows)
	}
}

// Delete 生成按主键删除的函数，记录不存在时静默返回
func (d *Db) Delete(rt *schema.RecordType) DeleteFunc {
	return d.delete(rt, "")
}

// DeleteBy 生成按指定列删除的函数
func (d *Db) DeleteBy(rt *schema.RecordType, column string) DeleteFunc {
	return d.delete(rt, column)
}

func (d *Db) delete(rt *schema.RecordType, column string) DeleteFunc {
	return func(ctx context.Context, id any) error {
		db, err := d.conn()
		if err != nil {
			return errors.Wrapf(err, "delete from %s", rt.Table)
		}
		if !d.registered(rt.Table) {
			return errors.Wrapf(ErrTableNotRegistered, "%s", rt.Table)
		}

		identifier, err := identifyingColumn(rt, column)
		if err != nil {
			return err
		}
		idField, _ := rt.Field(identifier)
		idValue, err := d.encodeValue(idField, id)
		if err != nil {
			return err
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", rt.Table, identifier)
		if _, err := db.ExecContext(ctx, query, idValue); err != nil {
			return errors.Wrapf(err, "failed to delete from %s", rt.Table)
		}
		return nil
	}
}

// identifyingColumn 解析语句的标识列，空列名使用主键
// 标识列会被拼接进 WHERE 子句，返回前重新校验
func identifyingColumn(rt *schema.RecordType, column string) (string, error) {
	if column == "" {
		pk, ok := rt.PrimaryKey()
		if !ok {
			return "", errors.Errorf("table %s has no primary key", rt.Table)
		}
		column = pk
	} else if _, ok := rt.Field(column); !ok {
		return "", errors.Wrapf(schema.ErrUnknownColumn, "table %s, column %s", rt.Table, column)
	}

	if err := schema.ValidateIdentifier(column); err != nil {
		return "", errors.WithMessagef(err, "table %s", rt.Table)
	}
	return column, nil
}

// encodeValue 复合类型的值编码后存入文本列，二进制编码再包一层 base64
func (d *Db) encodeValue(field schema.FieldDefinition, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	if field.Type.IsComposite() {
		data, err := d.codec.Serialize(value)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode column %s", field.Name)
		}
		if d.codecName == "msgpack" {
			return base64.StdEncoding.EncodeToString(data), nil
		}
		return string(data), nil
	}

	return value, nil
}

// decodeValue 还原读出的列值，布尔列读出的 int64 转回 bool
func (d *Db) decodeValue(field schema.FieldDefinition, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	if field.Type.IsComposite() {
		var data []byte
		switch v := value.(type) {
		case string:
			data = []byte(v)
		case []byte:
			data = v
		default:
			return nil, errors.Errorf("unexpected value type %T for column %s", value, field.Name)
		}
		if d.codecName == "msgpack" {
			decoded, err := base64.StdEncoding.DecodeString(string(data))
			if err != nil {
				return nil, errors.Wrapf(err, "failed to decode column %s", field.Name)
			}
			data = decoded
		}
		result, err := d.codec.Deserialize(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode column %s", field.Name)
		}
		return result, nil
	}

	switch field.Type {
	case schema.FieldTypeBool:
		switch v := value.(type) {
		case int64:
			return v != 0, nil
		case bool:
			return v, nil
		}
	case schema.FieldTypeString:
		if v, ok := value.([]byte); ok {
			return string(v), nil
		}
	}
	return value, nil
}

func (d *Db) scanRecord(rt *schema.RecordType, rows *sql.Rows) (*schema.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	data := make(map[string]any, len(columns))
	for i, column := range columns {
		field, ok := rt.Field(column)
		if !ok {
			continue
		}
		decoded, err := d.decodeValue(field, values[i])
		if err != nil {
			return nil, err
		}
		data[column] = decoded
	}

	return rt.NewRecord(data), nil
}
