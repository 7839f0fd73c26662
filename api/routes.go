/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers/pipeline_controller.go, main.go
 */

package api

import (
	"context"

	"datascrub/api/controllers"
	"datascrub/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	RegisterRoutes(r, service.GlobalCleaningService, service.GlobalDataRoot, readinessChecks())
}

// RegisterRoutes 使用指定的清洗服务注册路由，dataRoot 限定接口可读取的文件目录
func RegisterRoutes(r *chi.Mux, cleaningService *service.CleaningService, dataRoot string, checks map[string]controllers.Pinger) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController(checks)
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 清洗管道
	r.Route("/pipeline", func(r chi.Router) {
		pipelineController := controllers.NewPipelineController(cleaningService, dataRoot)
		r.Post("/run", pipelineController.RunPipeline)
		r.Get("/runs", pipelineController.ListRuns)
		r.Get("/runs/stats", pipelineController.GetRunStats)
		r.Get("/runs/{id}", pipelineController.GetRun)
	})
}

// readinessChecks 已初始化的依赖
func readinessChecks() map[string]controllers.Pinger {
	checks := make(map[string]controllers.Pinger)
	if service.DB != nil {
		if sqlDB, err := service.DB.DB(); err == nil {
			checks["database"] = controllers.PingerFunc(sqlDB.PingContext)
		}
	}
	if service.RedisClient != nil {
		checks["redis"] = controllers.PingerFunc(func(ctx context.Context) error {
			return service.RedisClient.Ping(ctx).Err()
		})
	}
	return checks
}
