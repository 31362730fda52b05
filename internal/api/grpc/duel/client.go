package duel

import (
	"context"

	"google.golang.org/grpc"

	"alpha-duel/internal/rpc/jsoncodec"
)

// Client calls a contract service over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc. Calls use the JSON codec.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes one contract function.
func (c *Client) Call(ctx context.Context, in *CallRequest, opts ...grpc.CallOption) (*CallResponse, error) {
	out := new(CallResponse)
	opts = append([]grpc.CallOption{jsoncodec.CallOption()}, opts...)
	if err := c.cc.Invoke(ctx, callMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFunctions returns the callable function names.
func (c *Client) ListFunctions(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out := new(ListFunctionsResponse)
	opts = append([]grpc.CallOption{jsoncodec.CallOption()}, opts...)
	if err := c.cc.Invoke(ctx, functionsMethod, &ListFunctionsRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out.Functions, nil
}
