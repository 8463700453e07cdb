package schema

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidIdentifier 标识符不符合白名单规则
var ErrInvalidIdentifier = errors.New("invalid identifier")

// 表名和列名会被拼接进 SQL 语句，必须通过白名单校验；
// 字段值永远通过占位符绑定，不走这条路径
var identifierRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var reservedWords = map[string]struct{}{
	"SELECT": {}, "INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {},
	"CREATE": {}, "ALTER": {}, "TABLE": {}, "INDEX": {}, "WHERE": {},
	"FROM": {}, "INTO": {}, "VALUES": {}, "SET": {}, "JOIN": {},
	"UNION": {}, "ORDER": {}, "GROUP": {}, "HAVING": {}, "AND": {},
	"OR": {}, "NOT": {}, "NULL": {}, "PRIMARY": {}, "FOREIGN": {},
	"UNIQUE": {}, "REFERENCES": {}, "EXISTS": {}, "LIMIT": {}, "OFFSET": {},
}

// ValidateIdentifier 校验表名或列名是否可以安全地拼接进 SQL
func ValidateIdentifier(name string) error {
	if name == "" {
		return errors.WithMessage(ErrInvalidIdentifier, "identifier is empty")
	}
	if !identifierRegexp.MatchString(name) {
		return errors.WithMessagef(ErrInvalidIdentifier, "%q", name)
	}
	if _, ok := reservedWords[strings.ToUpper(name)]; ok {
		return errors.WithMessagef(ErrInvalidIdentifier, "%q is a reserved word", name)
	}
	return nil
}

// NormalizeTable 表名中的空格替换为下划线，再按标识符规则校验
func NormalizeTable(name string) (string, error) {
	name = strings.ReplaceAll(name, " ", "_")
	if err := ValidateIdentifier(name); err != nil {
		return "", err
	}
	return name, nil
}
