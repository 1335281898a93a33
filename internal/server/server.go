package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/config"
	"github.com/ppiankov/inhalrisk/internal/report"
)

// RequestIDHeader is the metadata key carrying a caller-supplied request id.
const RequestIDHeader = "x-request-id"

// Config holds gRPC server configuration.
type Config struct {
	Port         int
	ConfigPath   string
	BatchWorkers int
}

// Server implements the AssessmentService gRPC server.
type Server struct {
	svc    *assess.Service
	cfg    Config
	health *health.Server

	grpcServer *grpc.Server
}

// New creates a gRPC server backed by svc.
func New(cfg Config, svc *assess.Service) *Server {
	if cfg.BatchWorkers < 1 {
		cfg.BatchWorkers = 4
	}
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		health: health.NewServer(),
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.requestIDInterceptor))

	RegisterAssessmentServer(s.grpcServer, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.ServeOn(lis)
}

// ServeOn starts the gRPC server on the given listener.
func (s *Server) ServeOn(lis net.Listener) error {
	s.svc.Logger().Info("grpc server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// GracefulStop marks the service not serving and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// Assess implements the Assess RPC.
func (s *Server) Assess(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req report.AssessRequest
	if err := DecodeStruct(in, &req); err != nil {
		s.svc.Metrics().IncrementRejection(assess.SurfaceGRPC, "request")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := s.svc.Assess(ctx, assess.SurfaceGRPC, &req)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := EncodeStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// BatchRequest is the AssessBatch payload.
type BatchRequest struct {
	Requests []*report.AssessRequest `json:"requests"`
}

// BatchResponse is the AssessBatch result.
type BatchResponse struct {
	Results []assess.BatchItem `json:"results"`
}

// AssessBatch implements the AssessBatch RPC.
func (s *Server) AssessBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req BatchRequest
	if err := DecodeStruct(in, &req); err != nil {
		s.svc.Metrics().IncrementRejection(assess.SurfaceGRPC, "request")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	items, err := s.svc.AssessBatch(ctx, assess.SurfaceGRPC, req.Requests, s.cfg.BatchWorkers)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := EncodeStruct(BatchResponse{Results: items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Tables implements the Tables RPC.
func (s *Server) Tables(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := EncodeStruct(s.svc.Tables())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ReloadConfig re-reads the config file and swaps the engine options.
// Called by the hot-reloader on file change.
func (s *Server) ReloadConfig() error {
	cfg, hash, err := config.LoadWithHash(s.cfg.ConfigPath)
	if err != nil {
		s.svc.Metrics().IncrementReload(false)
		return fmt.Errorf("failed to reload config: %w", err)
	}
	s.svc.SetOptions(cfg.Engine.Options(), hash)
	s.svc.Metrics().IncrementReload(true)
	return nil
}

func (s *Server) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 {
			id = v[0]
		}
	}
	ctx = assess.WithRequestID(ctx, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, assess.RequestID(ctx)))

	start := time.Now()
	resp, err := handler(ctx, req)
	s.svc.Logger().Debug("grpc call",
		"method", info.FullMethod,
		"request_id", assess.RequestID(ctx),
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

func toStatus(err error) error {
	switch {
	case assess.IsInvalid(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
