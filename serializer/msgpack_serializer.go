package serializer

import (
	"github.com/vmihailenco/msgpack/v5"
)

// MsgPackSerializer 二进制编码器，编码结果存入文本列前需要再包一层 base64
type MsgPackSerializer[T any] struct{}

func NewMsgPackSerializer[T any]() *MsgPackSerializer[T] {
	return &MsgPackSerializer[T]{}
}

func (s *MsgPackSerializer[T]) Serialize(from T) ([]byte, error) {
	return msgpack.Marshal(from)
}

func (s *MsgPackSerializer[T]) Deserialize(to []byte) (T, error) {
	var result T
	err := msgpack.Unmarshal(to, &result)
	return result, err
}
