package rpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/logging"
	"github.com/dreamware/solvernet/internal/solver"
	"github.com/dreamware/solvernet/internal/worker"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "solvernet.Worker"

// StatusRequest is the (empty) GetStatus request message.
type StatusRequest struct{}

// WorkerServer is the server-side API of the solvernet.Worker service.
type WorkerServer interface {
	Solve(ctx context.Context, req *cluster.SolveRequest) (*cluster.SolveResponse, error)
	GetStatus(ctx context.Context, req *StatusRequest) (*cluster.StatusResponse, error)
}

// serviceAdapter exposes a worker.Service as a WorkerServer.
type serviceAdapter struct {
	svc *worker.Service
}

func (a serviceAdapter) Solve(ctx context.Context, req *cluster.SolveRequest) (*cluster.SolveResponse, error) {
	solution, err := a.svc.Solve(ctx, req.Matrix)
	if err != nil {
		return nil, toStatus(err)
	}
	return &cluster.SolveResponse{Solution: solution}, nil
}

func (a serviceAdapter) GetStatus(ctx context.Context, _ *StatusRequest) (*cluster.StatusResponse, error) {
	st, err := a.svc.GetStatus(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &st, nil
}

// toStatus maps service errors onto gRPC codes. The message is kept verbatim
// so clients can report the worker's own text.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, solver.ErrInvalidMatrix):
		code = codes.InvalidArgument
	case errors.Is(err, solver.ErrSingularMatrix):
		code = codes.FailedPrecondition
	case errors.Is(err, worker.ErrObservability):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Error(code, err.Error())
}

// NewServer returns a gRPC server serving svc as solvernet.Worker with the
// JSON codec and a request-logging interceptor.
//
// Example:
//
//	srv := rpc.NewServer(svc, log)
//	lis, _ := net.Listen("tcp", ":5001")
//	go srv.Serve(lis)
//	defer srv.GracefulStop()
func NewServer(svc *worker.Service, log logging.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if log == nil {
		log = logging.NewNop()
	}
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(loggingInterceptor(log)),
	}, opts...)

	srv := grpc.NewServer(opts...)
	RegisterWorkerServer(srv, serviceAdapter{svc: svc})
	return srv
}

// RegisterWorkerServer registers impl on s.
func RegisterWorkerServer(s grpc.ServiceRegistrar, impl WorkerServer) {
	s.RegisterService(&workerServiceDesc, impl)
}

func loggingInterceptor(log logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("rpc failed", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
		} else {
			log.Debug("rpc served", "method", info.FullMethod, "duration", time.Since(start))
		}
		return resp, err
	}
}

var workerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Solve", Handler: solveHandler},
		{MethodName: "GetStatus", Handler: getStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "solvernet/worker.json",
}

func solveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(cluster.SolveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServer).Solve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: solveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkerServer).Solve(ctx, req.(*cluster.SolveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkerServer).GetStatus(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

const (
	solveMethod     = "/" + ServiceName + "/Solve"
	getStatusMethod = "/" + ServiceName + "/GetStatus"
)
