package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 测试用的结构体
type TestOptions struct {
	Name    string        `def:"default_name"`
	Port    int           `def:"3306"`
	Ratio   float64       `def:"0.75"`
	Enabled bool          `def:"true"`
	Tags    []string      `def:"tag1,tag2,tag3"`
	Timeout time.Duration `def:"30s"`
	Comment *string       `def:"default comment"`

	// 嵌套结构体
	Database DatabaseOptions `def:""`

	// 指针类型的嵌套结构体
	Logger *LoggerOptions `def:""`
}

type DatabaseOptions struct {
	Driver   string `def:"sqlite3"`
	Host     string `def:"localhost"`
	Port     int    `def:"3306"`
	Username string `def:"root"`
	Password string `def:""`
}

type LoggerOptions struct {
	Level  string `def:"info"`
	Format string `def:"text"`
}

func TestSetDefaults_BasicTypes(t *testing.T) {
	options := &TestOptions{}

	err := SetDefaults(options)
	assert.NoError(t, err)

	// 验证基本类型默认值
	assert.Equal(t, "default_name", options.Name)
	assert.Equal(t, 3306, options.Port)
	assert.Equal(t, 0.75, options.Ratio)
	assert.Equal(t, true, options.Enabled)
	assert.Equal(t, []string{"tag1", "tag2", "tag3"}, options.Tags)
	assert.Equal(t, 30*time.Second, options.Timeout)

	// 验证指针类型默认值
	assert.NotNil(t, options.Comment)
	assert.Equal(t, "default comment", *options.Comment)
}

func TestSetDefaults_NestedStruct(t *testing.T) {
	options := &TestOptions{}

	err := SetDefaults(options)
	assert.NoError(t, err)

	// 验证嵌套结构体默认值
	assert.Equal(t, "sqlite3", options.Database.Driver)
	assert.Equal(t, "localhost", options.Database.Host)
	assert.Equal(t, 3306, options.Database.Port)
	assert.Equal(t, "root", options.Database.Username)
	assert.Equal(t, "", options.Database.Password)
}

func TestSetDefaults_PointerNestedStruct(t *testing.T) {
	options := &TestOptions{}

	err := SetDefaults(options)
	assert.NoError(t, err)

	// 验证指针类型的嵌套结构体
	assert.NotNil(t, options.Logger)
	assert.Equal(t, "info", options.Logger.Level)
	assert.Equal(t, "text", options.Logger.Format)
}

func TestSetDefaults_NonZeroValues(t *testing.T) {
	options := &TestOptions{
		Name: "existing_name",
		Port: 5432,
	}

	err := SetDefaults(options)
	assert.NoError(t, err)

	// 已有值不应该被覆盖
	assert.Equal(t, "existing_name", options.Name)
	assert.Equal(t, 5432, options.Port)

	// 零值字段应该被设置默认值
	assert.Equal(t, 0.75, options.Ratio)
	assert.Equal(t, true, options.Enabled)
}

func TestSetDefaults_InvalidInput(t *testing.T) {
	// 测试 nil 指针
	err := SetDefaults(nil)
	assert.Error(t, err)

	// 测试非指针类型
	options := TestOptions{}
	err = SetDefaults(options)
	assert.Error(t, err)

	// 测试 nil 对象
	var nilOptions *TestOptions
	err = SetDefaults(nilOptions)
	assert.Error(t, err)
}

func TestSetDefaults_DurationFormats(t *testing.T) {
	type DurationOptions struct {
		Duration1 time.Duration `def:"1h30m"`
		Duration2 time.Duration `def:"5000000000"` // 纳秒
	}

	options := &DurationOptions{}
	err := SetDefaults(options)
	assert.NoError(t, err)

	assert.Equal(t, time.Hour+30*time.Minute, options.Duration1)
	assert.Equal(t, 5*time.Second, options.Duration2)
}

func TestSetDefaults_SliceTypes(t *testing.T) {
	type SliceOptions struct {
		StringSlice []string  `def:"a,b,c"`
		IntSlice    []int     `def:"1,2,3"`
		FloatSlice  []float64 `def:"1.1,2.2,3.3"`
	}

	options := &SliceOptions{}
	err := SetDefaults(options)
	assert.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, options.StringSlice)
	assert.Equal(t, []int{1, 2, 3}, options.IntSlice)
	assert.Equal(t, []float64{1.1, 2.2, 3.3}, options.FloatSlice)
}

func TestSetDefaults_InvalidValues(t *testing.T) {
	type BadIntOptions struct {
		Port int `def:"not_a_number"`
	}
	err := SetDefaults(&BadIntOptions{})
	assert.Error(t, err)

	type BadBoolOptions struct {
		Enabled bool `def:"not_a_bool"`
	}
	err = SetDefaults(&BadBoolOptions{})
	assert.Error(t, err)

	type BadDurationOptions struct {
		Timeout time.Duration `def:"not_a_duration"`
	}
	err = SetDefaults(&BadDurationOptions{})
	assert.Error(t, err)
}
