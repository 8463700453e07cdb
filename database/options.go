package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hatlonely/desa/logger"
	"github.com/pkg/errors"
)

// Options 数据库连接配置
type Options struct {
	// 数据库驱动：sqlite3, mysql
	Driver string `cfg:"driver" def:"sqlite3" validate:"omitempty,oneof=sqlite3 mysql"`

	// sqlite3 数据库文件路径
	Path string `cfg:"path" def:":memory:"`

	// 完整的 DSN，设置后优先于其他连接字段
	DSN string `cfg:"dsn"`

	// mysql 连接字段
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port" def:"3306"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`

	// 复合类型列值的编码格式：json, msgpack
	Codec string `cfg:"codec" def:"json" validate:"omitempty,oneof=json msgpack"`

	// 日志配置
	Logger *logger.SLogOptions `cfg:"logger"`
}

// buildDSN 根据驱动拼接 DSN
func buildDSN(options *Options) (string, error) {
	if options.DSN != "" {
		return options.DSN, nil
	}

	switch options.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset), nil
	case "sqlite3":
		return options.Path, nil
	}

	return "", errors.Errorf("unsupported driver: %s", options.Driver)
}

// prepareSQLitePath 确保数据库文件的目录存在
// 内存数据库和 file: 开头的 URI 不做处理
func prepareSQLitePath(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	return nil
}
