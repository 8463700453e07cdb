package serializer

import (
	"encoding/json"
)

// JSONSerializer 默认的列值编码器，编码结果是可读的文本，直接存入 TEXT 列
type JSONSerializer[T any] struct{}

func NewJSONSerializer[T any]() *JSONSerializer[T] {
	return &JSONSerializer[T]{}
}

func (s *JSONSerializer[T]) Serialize(from T) ([]byte, error) {
	return json.Marshal(from)
}

func (s *JSONSerializer[T]) Deserialize(to []byte) (T, error) {
	var result T
	err := json.Unmarshal(to, &result)
	return result, err
}
