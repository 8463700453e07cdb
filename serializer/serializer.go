package serializer

import (
	"github.com/pkg/errors"
)

var ErrUnknownSerializer = errors.New("unknown serializer")

type Serializer[F, T any] interface {
	Serialize(from F) (T, error)
	Deserialize(to T) (F, error)
}

// NewByteSerializerWithName 根据名字构造字节流序列化器，空名字返回 json 序列化器
// 注意：ProtobufSerializer 有特殊的类型约束，需要单独处理
func NewByteSerializerWithName[T any](name string) (Serializer[T, []byte], error) {
	switch name {
	case "", "json":
		return NewJSONSerializer[T](), nil
	case "bson":
		return NewBSONSerializer[T](), nil
	case "msgpack":
		return NewMsgPackSerializer[T](), nil
	}

	return nil, errors.Wrapf(ErrUnknownSerializer, "%q", name)
}
