package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names of the assessment gRPC API. Messages are
// google.protobuf.Struct documents carrying the JSON wire format.
const (
	ServiceName       = "inhalrisk.v1.AssessmentService"
	MethodAssess      = "/" + ServiceName + "/Assess"
	MethodAssessBatch = "/" + ServiceName + "/AssessBatch"
	MethodTables      = "/" + ServiceName + "/Tables"
)

// AssessmentServer is the server API for inhalrisk.v1.AssessmentService.
type AssessmentServer interface {
	Assess(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AssessBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Tables(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// AssessmentServiceDesc describes the service for grpc.Server.RegisterService.
var AssessmentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssessmentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Assess", Handler: assessHandler},
		{MethodName: "AssessBatch", Handler: assessBatchHandler},
		{MethodName: "Tables", Handler: tablesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inhalrisk/v1/assessment.proto",
}

// RegisterAssessmentServer registers srv on s.
func RegisterAssessmentServer(s grpc.ServiceRegistrar, srv AssessmentServer) {
	s.RegisterService(&AssessmentServiceDesc, srv)
}

func assessHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssessmentServer).Assess(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodAssess}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssessmentServer).Assess(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func assessBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssessmentServer).AssessBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodAssessBatch}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssessmentServer).AssessBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func tablesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssessmentServer).Tables(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodTables}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssessmentServer).Tables(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// EncodeStruct converts a JSON-tagged value to a Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return out, nil
}

// StructJSON renders a Struct as JSON bytes.
func StructJSON(s *structpb.Struct) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return protojson.Marshal(s)
}

// DecodeStruct unmarshals a Struct into a JSON-tagged value.
func DecodeStruct(s *structpb.Struct, v any) error {
	data, err := StructJSON(s)
	if err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	return nil
}
