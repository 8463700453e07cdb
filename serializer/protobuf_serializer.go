package serializer

import (
	"google.golang.org/protobuf/proto"
)

type ProtobufSerializer[T proto.Message] struct{}

func NewProtobufSerializer[T proto.Message]() *ProtobufSerializer[T] {
	return &ProtobufSerializer[T]{}
}

func (s *ProtobufSerializer[T]) Serialize(from T) ([]byte, error) {
	return proto.Marshal(from)
}

func (s *ProtobufSerializer[T]) Deserialize(to []byte) (T, error) {
	// T 是指针类型，零值是 nil，需要通过反射构造出可写的消息
	var zero T
	msg := zero.ProtoReflect().New().Interface().(T)
	if err := proto.Unmarshal(to, msg); err != nil {
		return zero, err
	}
	return msg, nil
}
