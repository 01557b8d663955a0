package wire

import (
	"context"

	"google.golang.org/grpc"
)

// unaryHandler adapts a typed service method into the grpc.MethodDesc handler
// shape, replacing what protoc would otherwise generate.
func unaryHandler[Srv any, Req any, Resp any](
	method string,
	call func(Srv, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(Srv), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}

		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(Srv), ctx, req.(*Req))
		})
	}
}

// withJSON forces the JSON content subtype on every call.
func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
