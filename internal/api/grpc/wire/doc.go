// Package wire defines the gRPC surface shared by the engine, the wrist
// companion agent and the control CLI.
//
// The services are declared with hand-written grpc.ServiceDesc values and a
// JSON codec instead of protoc-generated stubs: the message set is small,
// both ends are in this module, and keeping the wire free of generated code
// keeps the build self-contained. Message types are plain structs with JSON
// tags; the codec is registered under the "json" content subtype on import.
package wire
