package cfg

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct 使用 validate tag 校验结构体
// nil 对象、nil 指针和非结构体类型直接通过，不视为错误
func ValidateStruct(object interface{}) error {
	if object == nil {
		return nil
	}

	rv := reflect.ValueOf(object)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	// 跳过对某些内置类型的校验，如 time.Time
	rt := rv.Type()
	if rt.PkgPath() == "time" && rt.Name() == "Time" {
		return nil
	}

	return validate.Struct(rv.Interface())
}
