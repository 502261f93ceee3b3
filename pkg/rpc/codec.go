package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName content-subtype, request goes out as application/grpc+json
const JSONCodecName = "json"

// jsonCodec lets plain go structs travel over grpc without generated stubs
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return JSONCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
