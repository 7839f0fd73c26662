package main

import (
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"datascrub/api"
	_ "datascrub/docs"
	"datascrub/logger"
	"datascrub/service"
	"datascrub/service/config"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title 数据清洗服务 API
// @version 1.0
// @description 表格数据清洗管道服务：缺失值处理、日期规范化、翻译、文本清洗、数值变换、列展开与去重
// @BasePath /
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("error: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(cfg.Log.Level)

	if err := service.Init(cfg); err != nil {
		slog.Error("服务初始化失败", "error", err)
		os.Exit(1)
	}

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if cfg.Server.BaseContext != "" {
		mux.Route(cfg.Server.BaseContext, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(cfg.Server.Port), mux)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("收到退出信号，正在停止服务")
		if err := s.Stop(); err != nil {
			slog.Warn("停止 HTTP 服务失败", "error", err)
		}
	}()

	slog.Info("服务启动", "port", cfg.Server.Port, "base_context", cfg.Server.BaseContext)
	if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("error: %v", err)
	}
	service.Shutdown()
}
