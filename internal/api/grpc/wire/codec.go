package wire

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype both ends of the wire use.
const CodecName = "json"

//nolint:gochecknoinits // Codec registration must precede any RPC.
func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals wire messages as JSON.
type jsonCodec struct{}

// Marshal encodes v as JSON.
func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal wire message: %w", err)
	}

	return data, nil
}

// Unmarshal decodes JSON data into v.
func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal wire message: %w", err)
	}

	return nil
}

// Name returns the registered codec name.
func (jsonCodec) Name() string {
	return CodecName
}
