// Package duel exposes the contract's public operations over gRPC as a
// single Call method taking a function name, its pipe-delimited arguments
// and the caller's authorization grants.
package duel

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alpha-duel/contract"
	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alphaduel.v1.Contract"

const (
	callMethod      = "/" + ServiceName + "/Call"
	functionsMethod = "/" + ServiceName + "/ListFunctions"
)

// CallRequest invokes one contract function.
type CallRequest struct {
	Function string   `json:"function"`
	Args     string   `json:"args"`
	Grants   []string `json:"grants,omitempty"`
}

// CallResponse carries the function result and the events it published.
type CallResponse struct {
	Result string      `json:"result"`
	Events []sdk.Event `json:"events,omitempty"`
}

// ListFunctionsRequest is empty.
type ListFunctionsRequest struct{}

// ListFunctionsResponse names the callable functions.
type ListFunctionsResponse struct {
	Functions []string `json:"functions"`
}

// ContractServer is the server API of the contract service.
type ContractServer interface {
	Call(ctx context.Context, in *CallRequest) (*CallResponse, error)
	ListFunctions(ctx context.Context, in *ListFunctionsRequest) (*ListFunctionsResponse, error)
}

// Service runs contract calls on a host.
type Service struct {
	host     *sdk.Host
	contract *contract.Contract
	log      *zap.Logger
}

// NewService creates a contract service. A nil logger disables logging.
func NewService(host *sdk.Host, c *contract.Contract, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{host: host, contract: c, log: log}
}

// Call runs one invocation. Domain errors travel as statuses with ErrorInfo details.
func (s *Service) Call(ctx context.Context, in *CallRequest) (*CallResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "call request is required")
	}
	if s == nil || s.host == nil || s.contract == nil {
		return nil, status.Error(codes.Internal, "contract service is not configured")
	}
	function := strings.TrimSpace(in.Function)
	if function == "" {
		return nil, status.Error(codes.InvalidArgument, "function is required")
	}

	var result string
	inv := sdk.Invocation{Function: function, Args: in.Args, Grants: in.Grants}
	events, err := s.host.Invoke(ctx, inv, func(ctx context.Context, env *sdk.Env) error {
		var err error
		result, err = s.contract.Call(ctx, env, function, in.Args)
		return err
	})
	if err != nil {
		return nil, s.toStatus(function, err)
	}
	return &CallResponse{Result: result, Events: events}, nil
}

// ListFunctions returns the function names Call accepts.
func (s *Service) ListFunctions(context.Context, *ListFunctionsRequest) (*ListFunctionsResponse, error) {
	return &ListFunctionsResponse{Functions: contract.Functions()}, nil
}

func (s *Service) toStatus(function string, err error) error {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		if domainErr.Code == apperrors.CodeInternal {
			s.log.Error("contract call failed", zap.String("function", function), zap.Error(err))
		}
		return domainErr.ToGRPCStatus()
	}
	if st, ok := status.FromError(err); ok {
		return st.Err()
	}
	s.log.Error("contract call failed", zap.String("function", function), zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

// RegisterContractServer registers srv on s.
func RegisterContractServer(s grpc.ServiceRegistrar, srv ContractServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContractServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: callHandler},
		{MethodName: "ListFunctions", Handler: listFunctionsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CallRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContractServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: callMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContractServer).Call(ctx, req.(*CallRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listFunctionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListFunctionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContractServer).ListFunctions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: functionsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContractServer).ListFunctions(ctx, req.(*ListFunctionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _ ContractServer = (*Service)(nil)
