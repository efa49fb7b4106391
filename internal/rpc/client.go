package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/dreamware/solvernet/internal/cluster"
)

// Client reaches a worker over gRPC and implements cluster.Worker.
type Client struct {
	info cluster.WorkerInfo
	conn *grpc.ClientConn
}

var _ cluster.Worker = (*Client)(nil)

// NewClient creates a client for info.Addr. The connection is established
// lazily on the first call; extra options are appended to the defaults
// (plaintext, JSON codec).
func NewClient(info cluster.WorkerInfo, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)

	conn, err := grpc.NewClient(info.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client for %s: %w", info.Addr, err)
	}
	return &Client{info: info, conn: conn}, nil
}

// Dialer builds gRPC adapters for roster entries with transport "grpc".
func Dialer(info cluster.WorkerInfo) (cluster.Worker, error) {
	return NewClient(info)
}

// Info returns the roster entry this client talks to.
func (c *Client) Info() cluster.WorkerInfo { return c.info }

// Close releases the connection.
func (c *Client) Close() error { return c.conn.Close() }

// Solve calls solvernet.Worker/Solve.
func (c *Client) Solve(ctx context.Context, matrix [][]float64) ([]float64, error) {
	var resp cluster.SolveResponse
	if err := c.conn.Invoke(ctx, solveMethod, &cluster.SolveRequest{Matrix: matrix}, &resp); err != nil {
		return nil, c.classify(err)
	}
	return resp.Solution, nil
}

// GetStatus calls solvernet.Worker/GetStatus.
func (c *Client) GetStatus(ctx context.Context) (cluster.StatusResponse, error) {
	var resp cluster.StatusResponse
	if err := c.conn.Invoke(ctx, getStatusMethod, &StatusRequest{}, &resp); err != nil {
		return cluster.StatusResponse{}, c.classify(err)
	}
	return resp, nil
}

// classify separates transport failures from failures the worker reported.
func (c *Client) classify(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &cluster.WorkerUnreachableError{WorkerID: c.info.ID, Err: err}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return &cluster.WorkerUnreachableError{WorkerID: c.info.ID, Err: err}
	default:
		return &cluster.RemoteError{WorkerID: c.info.ID, Message: st.Message(), Err: err}
	}
}
