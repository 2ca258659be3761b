package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ReportServiceName は集計サービスの完全修飾名です。
const ReportServiceName = "istakip.report.v1.ReportService"

const (
	methodGetPersonnelBalance = "GetPersonnelBalance"
	methodGetJobSummary       = "GetJobSummary"
	methodGetCustomerSummary  = "GetCustomerSummary"
	methodGetMonthlyCashFlow  = "GetMonthlyCashFlow"
	methodGetPeriodicReport   = "GetPeriodicReport"
)

// ReportServiceServer は ReportService のサーバー実装が満たすインターフェースです。
// サービス定義は proto/istakip/report/v1/report.proto にあります。
// リクエスト・レスポンスはいずれも google.protobuf.Struct で表現します。
type ReportServiceServer interface {
	GetPersonnelBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJobSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCustomerSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMonthlyCashFlow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPeriodicReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedReportServiceServer は未実装メソッドに Unimplemented を返す埋め込み用の実装です。
type UnimplementedReportServiceServer struct{}

func (UnimplementedReportServiceServer) GetPersonnelBalance(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPersonnelBalance not implemented")
}

func (UnimplementedReportServiceServer) GetJobSummary(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetJobSummary not implemented")
}

func (UnimplementedReportServiceServer) GetCustomerSummary(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCustomerSummary not implemented")
}

func (UnimplementedReportServiceServer) GetMonthlyCashFlow(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMonthlyCashFlow not implemented")
}

func (UnimplementedReportServiceServer) GetPeriodicReport(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPeriodicReport not implemented")
}

type reportCall func(srv ReportServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryReportHandler(method string, call reportCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ReportServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ReportServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ReportServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ReportServiceDesc は ReportService の grpc.ServiceDesc です。
var ReportServiceDesc = grpc.ServiceDesc{
	ServiceName: ReportServiceName,
	HandlerType: (*ReportServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: methodGetPersonnelBalance,
			Handler:    unaryReportHandler(methodGetPersonnelBalance, ReportServiceServer.GetPersonnelBalance),
		},
		{
			MethodName: methodGetJobSummary,
			Handler:    unaryReportHandler(methodGetJobSummary, ReportServiceServer.GetJobSummary),
		},
		{
			MethodName: methodGetCustomerSummary,
			Handler:    unaryReportHandler(methodGetCustomerSummary, ReportServiceServer.GetCustomerSummary),
		},
		{
			MethodName: methodGetMonthlyCashFlow,
			Handler:    unaryReportHandler(methodGetMonthlyCashFlow, ReportServiceServer.GetMonthlyCashFlow),
		},
		{
			MethodName: methodGetPeriodicReport,
			Handler:    unaryReportHandler(methodGetPeriodicReport, ReportServiceServer.GetPeriodicReport),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "istakip/report/v1/report.proto",
}

// RegisterReportServiceServer は ReportService をサーバーに登録します。
func RegisterReportServiceServer(s grpc.ServiceRegistrar, srv ReportServiceServer) {
	s.RegisterService(&ReportServiceDesc, srv)
}

// ReportServiceClient は ReportService のクライアントです。
type ReportServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewReportServiceClient は ReportServiceClient を生成します。
func NewReportServiceClient(cc grpc.ClientConnInterface) *ReportServiceClient {
	return &ReportServiceClient{cc: cc}
}

// Call は指定したメソッドを呼び出します。
func (c *ReportServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ReportServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
