package schema

// KeyKind 键声明的种类
type KeyKind string

const (
	KeyKindPrimary KeyKind = "primary"
	KeyKindUnique  KeyKind = "unique"
	KeyKindForeign KeyKind = "foreign"
)

// Key 附加在记录类型上的键声明
type Key struct {
	Kind   KeyKind
	Column string

	// 外键引用的表和列，仅 KeyKindForeign 使用，RefColumn 可以为空
	RefTable  string
	RefColumn string
}

// PrimaryKey 声明主键字段
func PrimaryKey(column string) Key {
	return Key{Kind: KeyKindPrimary, Column: column}
}

// UniqueKey 声明唯一键字段
func UniqueKey(column string) Key {
	return Key{Kind: KeyKindUnique, Column: column}
}

// ForeignKey 声明外键字段，引用 refTable 表
func ForeignKey(column string, refTable string) Key {
	return Key{Kind: KeyKindForeign, Column: column, RefTable: refTable}
}
