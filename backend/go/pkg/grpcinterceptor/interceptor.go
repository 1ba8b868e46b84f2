package grpcinterceptor

import (
	"DocQA/backend/go/pkg/logger"
	"DocQA/backend/go/pkg/ratelimiter"
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RateLimitUnaryInterceptor 返回一个按客户端地址限流的 gRPC 一元拦截器。
func RateLimitUnaryInterceptor(limiter *ratelimiter.PerClient) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !limiter.Allow(clientKey(ctx)) {
			// 被限流时返回 gRPC 标准的 ResourceExhausted 错误码。
			return nil, status.Errorf(codes.ResourceExhausted, "request rejected due to rate limiting")
		}
		return handler(ctx, req)
	}
}

// LoggingUnaryInterceptor 为每个调用记录一条包含方法、耗时和状态码的日志。
func LoggingUnaryInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithPayload(map[string]interface{}{
			"method":     info.FullMethod,
			"peer":       clientKey(ctx),
			"code":       status.Code(err).String(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.Warn(fmt.Sprintf("gRPC %s failed: %v", info.FullMethod, err))
		} else {
			entry.Debug(fmt.Sprintf("gRPC %s", info.FullMethod))
		}
		return resp, err
	}
}

// clientKey 取调用方地址, 无法获取时返回空字符串。
func clientKey(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}
