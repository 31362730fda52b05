// Package jsoncodec registers a JSON gRPC codec so services can exchange
// plain Go structs without generated protobuf types.
package jsoncodec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Name is the content subtype the codec registers under ("application/grpc+json").
const Name = "json"

// Codec marshals gRPC messages as JSON.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsoncodec marshal %T: %w", v, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsoncodec unmarshal %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string { return Name }

func init() {
	encoding.RegisterCodec(Codec{})
}

// CallOption selects the JSON codec for a client call or connection.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(Name)
}
