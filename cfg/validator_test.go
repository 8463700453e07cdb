package cfg

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidateStruct(t *testing.T) {
	Convey("ValidateStruct 结构体校验测试", t, func() {

		// 定义测试用的结构体
		type Options struct {
			Driver string `validate:"required,oneof=sqlite3 mysql"`
			Level  string `validate:"omitempty,oneof=debug info warn error"`
			Port   int    `validate:"min=0,max=65535"`
		}

		type NestedOptions struct {
			Name     string  `validate:"required"`
			Database Options `validate:"required"`
		}

		Convey("有效的结构体校验", func() {
			options := Options{
				Driver: "sqlite3",
				Level:  "info",
				Port:   3306,
			}

			err := ValidateStruct(&options)
			So(err, ShouldBeNil)
		})

		Convey("校验失败 - 必填字段为空", func() {
			options := Options{
				Driver: "",
				Level:  "info",
			}

			err := ValidateStruct(&options)
			So(err, ShouldNotBeNil)
		})

		Convey("校验失败 - oneof 不匹配", func() {
			options := Options{
				Driver: "oracle",
			}

			err := ValidateStruct(&options)
			So(err, ShouldNotBeNil)
		})

		Convey("omitempty 字段为空时通过", func() {
			options := Options{
				Driver: "mysql",
			}

			err := ValidateStruct(&options)
			So(err, ShouldBeNil)
		})

		Convey("嵌套结构体校验 - 失败", func() {
			options := NestedOptions{
				Name: "desa",
				Database: Options{
					Driver: "",
				},
			}

			err := ValidateStruct(&options)
			So(err, ShouldNotBeNil)
		})

		Convey("nil 对象跳过校验", func() {
			err := ValidateStruct(nil)
			So(err, ShouldBeNil)
		})

		Convey("nil 指针跳过校验", func() {
			var options *Options = nil
			err := ValidateStruct(&options)
			So(err, ShouldBeNil)
		})

		Convey("time.Time 类型跳过校验", func() {
			timeValue := time.Now()
			err := ValidateStruct(&timeValue)
			So(err, ShouldBeNil)
		})

		Convey("基本类型跳过校验", func() {
			intValue := 42
			err := ValidateStruct(&intValue)
			So(err, ShouldBeNil)
		})

		Convey("map 类型跳过校验", func() {
			mapValue := map[string]string{"key": "value"}
			err := ValidateStruct(&mapValue)
			So(err, ShouldBeNil)
		})
	})
}
