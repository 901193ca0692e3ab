package grpc

// proto.go defines the gRPC server interface for coop/lending/v1/lending.proto.
// Messages travel with the JSON codec registered in json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "coop.lending.v1.LendingService"

// LendingServiceServer is the server API for LendingService.
type LendingServiceServer interface {
	PreviewSchedule(context.Context, *PreviewScheduleRequest) (*ScheduleResponse, error)
	ApplyForLoan(context.Context, *ApplyForLoanRequest) (*LoanResponse, error)
	SubmitForReview(context.Context, *SubmitForReviewRequest) (*LoanResponse, error)
	ApproveLoan(context.Context, *ApproveLoanRequest) (*LoanResponse, error)
	RejectLoan(context.Context, *RejectLoanRequest) (*LoanResponse, error)
	DisburseLoan(context.Context, *DisburseLoanRequest) (*LoanResponse, error)
	RecordPayment(context.Context, *RecordPaymentRequest) (*PaymentResponse, error)
	ReversePayment(context.Context, *ReversePaymentRequest) (*PaymentResponse, error)
	ComputePenalties(context.Context, *ComputePenaltiesRequest) (*ComputePenaltiesResponse, error)
	WaivePenalty(context.Context, *WaivePenaltyRequest) (*PenaltyResponse, error)
	GetLoan(context.Context, *GetLoanRequest) (*GetLoanResponse, error)
	mustEmbedUnimplementedLendingServiceServer()
}

// UnimplementedLendingServiceServer provides forward-compatible default implementations.
type UnimplementedLendingServiceServer struct{}

func (UnimplementedLendingServiceServer) PreviewSchedule(context.Context, *PreviewScheduleRequest) (*ScheduleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PreviewSchedule not implemented")
}
func (UnimplementedLendingServiceServer) ApplyForLoan(context.Context, *ApplyForLoanRequest) (*LoanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ApplyForLoan not implemented")
}
func (UnimplementedLendingServiceServer) SubmitForReview(context.Context, *SubmitForReviewRequest) (*LoanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitForReview not implemented")
}
func (UnimplementedLendingServiceServer) ApproveLoan(context.Context, *ApproveLoanRequest) (*LoanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ApproveLoan not implemented")
}
func (UnimplementedLendingServiceServer) RejectLoan(context.Context, *RejectLoanRequest) (*LoanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RejectLoan not implemented")
}
func (UnimplementedLendingServiceServer) DisburseLoan(context.Context, *DisburseLoanRequest) (*LoanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DisburseLoan not implemented")
}
func (UnimplementedLendingServiceServer) RecordPayment(context.Context, *RecordPaymentRequest) (*PaymentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RecordPayment not implemented")
}
func (UnimplementedLendingServiceServer) ReversePayment(context.Context, *ReversePaymentRequest) (*PaymentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ReversePayment not implemented")
}
func (UnimplementedLendingServiceServer) ComputePenalties(context.Context, *ComputePenaltiesRequest) (*ComputePenaltiesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ComputePenalties not implemented")
}
func (UnimplementedLendingServiceServer) WaivePenalty(context.Context, *WaivePenaltyRequest) (*PenaltyResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method WaivePenalty not implemented")
}
func (UnimplementedLendingServiceServer) GetLoan(context.Context, *GetLoanRequest) (*GetLoanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetLoan not implemented")
}
func (UnimplementedLendingServiceServer) mustEmbedUnimplementedLendingServiceServer() {}

// RegisterLendingServiceServer registers the LendingServiceServer with the gRPC server.
func RegisterLendingServiceServer(s grpclib.ServiceRegistrar, srv LendingServiceServer) {
	s.RegisterService(&lendingServiceDesc, srv)
}

var lendingServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LendingServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("PreviewSchedule", LendingServiceServer.PreviewSchedule),
		unary("ApplyForLoan", LendingServiceServer.ApplyForLoan),
		unary("SubmitForReview", LendingServiceServer.SubmitForReview),
		unary("ApproveLoan", LendingServiceServer.ApproveLoan),
		unary("RejectLoan", LendingServiceServer.RejectLoan),
		unary("DisburseLoan", LendingServiceServer.DisburseLoan),
		unary("RecordPayment", LendingServiceServer.RecordPayment),
		unary("ReversePayment", LendingServiceServer.ReversePayment),
		unary("ComputePenalties", LendingServiceServer.ComputePenalties),
		unary("WaivePenalty", LendingServiceServer.WaivePenalty),
		unary("GetLoan", LendingServiceServer.GetLoan),
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "coop/lending/v1/lending.proto",
}

// FullMethod returns the wire name of a LendingService method.
func FullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

// unary builds the method descriptor that protoc-gen-go-grpc would emit for
// a unary RPC.
func unary[Req, Resp any](
	method string,
	call func(LendingServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodDesc {
	fullMethod := FullMethod(method)
	return grpclib.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LendingServiceServer), ctx, in)
			}
			info := &grpclib.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(LendingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
