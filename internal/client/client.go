package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/report"
	"github.com/ppiankov/inhalrisk/internal/server"
)

// DefaultTimeout bounds each RPC when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// Client connects to an inhalrisk gRPC assessment server.
type Client struct {
	conn *grpc.ClientConn
}

// New creates a gRPC client for the given address. The connection is
// established lazily on the first call.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to assessment server: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Assess sends one request to the remote server. Contract violations come
// back as codes.InvalidArgument.
func (c *Client) Assess(ctx context.Context, req *report.AssessRequest) (report.AssessResponse, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	in, err := server.EncodeStruct(req)
	if err != nil {
		return report.AssessResponse{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(outgoing(ctx), server.MethodAssess, in, out); err != nil {
		return report.AssessResponse{}, err
	}

	var resp report.AssessResponse
	if err := server.DecodeStruct(out, &resp); err != nil {
		return report.AssessResponse{}, err
	}
	return resp, nil
}

// AssessBatch sends several requests in one call.
func (c *Client) AssessBatch(ctx context.Context, reqs []*report.AssessRequest) ([]assess.BatchItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	in, err := server.EncodeStruct(server.BatchRequest{Requests: reqs})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(outgoing(ctx), server.MethodAssessBatch, in, out); err != nil {
		return nil, err
	}

	var resp server.BatchResponse
	if err := server.DecodeStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Tables fetches the remote engine's lookup tables.
func (c *Client) Tables(ctx context.Context) (report.Tables, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(outgoing(ctx), server.MethodTables, &emptypb.Empty{}, out); err != nil {
		return report.Tables{}, err
	}
	var t report.Tables
	if err := server.DecodeStruct(out, &t); err != nil {
		return report.Tables{}, err
	}
	return t, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}

// outgoing forwards a request id from ctx, if any, as call metadata.
func outgoing(ctx context.Context) context.Context {
	if id := assess.RequestID(ctx); id != "" {
		return metadata.AppendToOutgoingContext(ctx, server.RequestIDHeader, id)
	}
	return ctx
}
