package main

import (
	"DocQA/backend/go/internal/config"
	"DocQA/backend/go/internal/rag_service/app"
	grpcserver "DocQA/backend/go/pkg/grpc"
	httpserver "DocQA/backend/go/pkg/http"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DocQA/backend/go/pkg/logger"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthProbeInterval = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	// 1. 加载 .env 与配置文件
	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("RAGService", "", "")
	appLogger.Info(fmt.Sprintf("Starting %s %s (%s)", cfg.App.Name, cfg.App.Version, cfg.App.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 组装依赖
	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to build application: %v", err))
	}
	defer a.Close()

	if cfg.Reconcile.Interval != "" {
		a.Service.StartReconciler(ctx, config.Duration(cfg.Reconcile.Interval))
	}

	g, gctx := errgroup.WithContext(ctx)

	// 4. HTTP 服务
	httpSrv := httpserver.NewServer(&cfg.Server, a.Router)
	g.Go(func() error {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", httpSrv.Addr()))
		return httpSrv.ListenAndServe()
	})

	// 5. 可选的 gRPC 健康检查服务
	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPCAddress != "" {
		grpcSrv, err = grpcserver.NewServer(cfg, appLogger)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create gRPC server: %v", err))
		}
		g.Go(func() error {
			appLogger.Info(fmt.Sprintf("gRPC health server listening at %s", cfg.Server.GRPCAddress))
			return grpcSrv.ListenAndServe()
		})
		g.Go(func() error {
			probeHealth(gctx, a, grpcSrv)
			return nil
		})
	}

	// 6. 优雅关闭
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error(fmt.Sprintf("Server stopped with error: %v", err))
		return
	}
	appLogger.Info("Servers gracefully stopped")
}

// probeHealth 定期检查后端存储并同步到 gRPC 健康状态。
func probeHealth(ctx context.Context, a *app.App, srv *grpcserver.Server) {
	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, healthProbeInterval/2)
		defer cancel()
		srv.SetServing(a.Service.HealthCheck(probeCtx) == nil)
	}

	check()
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
