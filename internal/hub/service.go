package hub

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name of the hub.
const ServiceName = "gamehub.v1.GameHub"

const (
	startGameMethod = "/" + ServiceName + "/StartGame"
	endGameMethod   = "/" + ServiceName + "/EndGame"
)

// GameHubServer is the server API of the escrow hub.
type GameHubServer interface {
	StartGame(ctx context.Context, req *StartGameRequest) (*Ack, error)
	EndGame(ctx context.Context, req *EndGameRequest) (*Ack, error)
}

// RegisterGameHubServer registers srv on s. Messages travel with the JSON codec.
func RegisterGameHubServer(s grpc.ServiceRegistrar, srv GameHubServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameHubServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartGame", Handler: startGameHandler},
		{MethodName: "EndGame", Handler: endGameHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func startGameHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StartGameRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GameHubServer).StartGame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: startGameMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GameHubServer).StartGame(ctx, req.(*StartGameRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func endGameHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(EndGameRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GameHubServer).EndGame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: endGameMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GameHubServer).EndGame(ctx, req.(*EndGameRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Service exposes a Memory hub over gRPC.
type Service struct {
	hub *Memory
}

// NewService returns a gRPC service backed by m.
func NewService(m *Memory) *Service {
	return &Service{hub: m}
}

func (s *Service) StartGame(ctx context.Context, req *StartGameRequest) (*Ack, error) {
	if err := s.hub.StartGame(ctx, "", *req); err != nil {
		return nil, err
	}
	return &Ack{}, nil
}

func (s *Service) EndGame(ctx context.Context, req *EndGameRequest) (*Ack, error) {
	if err := s.hub.EndGame(ctx, "", *req); err != nil {
		return nil, err
	}
	return &Ack{}, nil
}

var _ GameHubServer = (*Service)(nil)
