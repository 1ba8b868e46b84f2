package grpc

import (
	"DocQA/backend/go/internal/config"
	"DocQA/backend/go/pkg/grpcinterceptor"
	"DocQA/backend/go/pkg/logger"
	"DocQA/backend/go/pkg/ratelimiter"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server 封装了标准的 grpc.Server, 内置标准健康检查服务以及限流和日志拦截器。
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	address    string
	log        *logger.Logger
}

// ServerOption 定义了用于配置 Server 的函数。
type ServerOption func(*Server)

// WithAddress 设置服务器监听的地址。
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.address = addr
	}
}

// NewServer 根据配置创建 gRPC 服务器。启用限流时为每个客户端地址单独计数。
// 健康状态初始为 NOT_SERVING, 由调用方通过 SetServing 更新。
func NewServer(cfg *config.AppConfig, log *logger.Logger, opts ...ServerOption) (*Server, error) {
	interceptors := []grpc.UnaryServerInterceptor{grpcinterceptor.LoggingUnaryInterceptor(log)}

	// 如果启用了限流器，则添加限流拦截器。
	if cfg.Middleware.RateLimiter.Enabled {
		factory, err := ratelimiter.NewFactory(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		limiter, err := ratelimiter.NewPerClient(factory, cfg.Middleware.RateLimiter.Clients)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		interceptors = append(interceptors, grpcinterceptor.RateLimitUnaryInterceptor(limiter))
	}

	srv := &Server{
		grpcServer: grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...)),
		health:     health.NewServer(),
		address:    cfg.Server.GRPCAddress,
		log:        log,
	}
	healthpb.RegisterHealthServer(srv.grpcServer, srv.health)
	srv.SetServing(false)

	for _, opt := range opts {
		opt(srv)
	}
	if srv.address == "" {
		srv.address = ":9090"
	}
	return srv, nil
}

// SetServing 更新整体 ("" 服务名) 健康状态。
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
}

// Serve 在 lis 上提供服务, 直到 GracefulStop 被调用。
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info(fmt.Sprintf("Starting gRPC server on %s", lis.Addr()))
	return s.grpcServer.Serve(lis)
}

// ListenAndServe 开始监听并提供 gRPC 服务。
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(lis)
}

// GracefulStop 将健康状态置为 NOT_SERVING 后优雅地停止服务器。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
