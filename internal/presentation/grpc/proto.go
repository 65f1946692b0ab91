package grpc

// proto.go defines the gRPC server interface of fraudscore/v1/scoring.proto.
// Messages are plain structs carried by the JSON codec registered in
// json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Full method names, used for role mapping.
const (
	serviceName                  = "fraudscore.v1.ScoringService"
	MethodScoreTransactions      = "/" + serviceName + "/ScoreTransactions"
	MethodListScoredTransactions = "/" + serviceName + "/ListScoredTransactions"
	MethodGetScoredTransaction   = "/" + serviceName + "/GetScoredTransaction"
)

// ScoringServiceServer is the server API for ScoringService.
type ScoringServiceServer interface {
	ScoreTransactions(context.Context, *ScoreTransactionsRequest) (*ScoreTransactionsResponse, error)
	ListScoredTransactions(context.Context, *ListScoredTransactionsRequest) (*ListScoredTransactionsResponse, error)
	GetScoredTransaction(context.Context, *GetScoredTransactionRequest) (*GetScoredTransactionResponse, error)
	mustEmbedUnimplementedScoringServiceServer()
}

// UnimplementedScoringServiceServer provides forward-compatible default implementations.
type UnimplementedScoringServiceServer struct{}

func (UnimplementedScoringServiceServer) ScoreTransactions(context.Context, *ScoreTransactionsRequest) (*ScoreTransactionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreTransactions not implemented")
}
func (UnimplementedScoringServiceServer) ListScoredTransactions(context.Context, *ListScoredTransactionsRequest) (*ListScoredTransactionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListScoredTransactions not implemented")
}
func (UnimplementedScoringServiceServer) GetScoredTransaction(context.Context, *GetScoredTransactionRequest) (*GetScoredTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetScoredTransaction not implemented")
}
func (UnimplementedScoringServiceServer) mustEmbedUnimplementedScoringServiceServer() {}

// RegisterScoringServiceServer registers the ScoringServiceServer with the gRPC server.
func RegisterScoringServiceServer(s *grpclib.Server, srv ScoringServiceServer) {
	s.RegisterService(&_ScoringService_serviceDesc, srv)
}

var _ScoringService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ScoringServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ScoreTransactions", Handler: _ScoringService_ScoreTransactions_Handler},
		{MethodName: "ListScoredTransactions", Handler: _ScoringService_ListScoredTransactions_Handler},
		{MethodName: "GetScoredTransaction", Handler: _ScoringService_GetScoredTransaction_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _ScoringService_ScoreTransactions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ScoreTransactionsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServiceServer).ScoreTransactions(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodScoreTransactions}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScoringServiceServer).ScoreTransactions(ctx, req.(*ScoreTransactionsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _ScoringService_ListScoredTransactions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ListScoredTransactionsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServiceServer).ListScoredTransactions(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodListScoredTransactions}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScoringServiceServer).ListScoredTransactions(ctx, req.(*ListScoredTransactionsRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _ScoringService_GetScoredTransaction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetScoredTransactionRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoringServiceServer).GetScoredTransaction(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetScoredTransaction}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScoringServiceServer).GetScoredTransaction(ctx, req.(*GetScoredTransactionRequest))
	}
	return interceptor(ctx, req, info, handler)
}
