package wire

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype clients select with grpc.CallContentSubtype.
// The server picks the codec from the request's content-subtype, so a call sent with the
// default proto codec fails to marshal. With grpcurl, pass -format json and
// -H 'content-type: application/grpc+json'.
const CodecName = "json"

// jsonCodec carries the plain structs of this package on the gRPC transport,
// so the service needs no generated stubs.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
