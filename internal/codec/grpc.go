package codec

import (
	"google.golang.org/grpc/encoding"
)

// GRPCName is the gRPC content-subtype under which the CBOR codec is
// registered. Clients select it with grpc.CallContentSubtype(GRPCName); the
// server resolves it from the request content-type.
const GRPCName = "cbor"

// GRPC adapts the package codec to grpc's encoding.Codec.
type GRPC struct{}

func (GRPC) Marshal(v any) ([]byte, error)      { return Marshal(v) }
func (GRPC) Unmarshal(data []byte, v any) error { return Unmarshal(data, v) }
func (GRPC) Name() string                       { return GRPCName }

func init() {
	encoding.RegisterCodec(GRPC{})
}
