package grpcevm

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is registered once per process (init below). The client
// selects it with grpc.CallContentSubtype(codecName); the server needs no
// codec option, since grpc looks up the registered codec from the
// request's content subtype. This is grpc's encoding.Codec extension
// point, used here because no protobuf compiler is in the build.
const codecName = "xlnjson"

// jsonCodec satisfies encoding.Codec by marshaling the hand-written
// SubmitSettlement* structs as JSON instead of protobuf wire format,
// avoiding a .proto/protoc dependency the rest of this module does not
// otherwise need.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("grpcevm: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("grpcevm: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
