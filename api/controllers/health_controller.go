/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供存活与就绪检查
 * @architecture MVC架构 - 控制器层
 * @stateFlow HTTP请求处理流程
 * @rules 存活检查不访问依赖；就绪检查探测已配置的数据库和 Redis
 * @dependencies github.com/go-chi/render
 * @refs api/routes.go, service/init.go
 */

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

const (
	serviceName    = "datascrub"
	serviceVersion = "1.0.0"
)

// Pinger 可探测的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc 函数形式的 Pinger
type PingerFunc func(ctx context.Context) error

// Ping 调用函数
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthController 健康检查控制器
type HealthController struct {
	dependencies map[string]Pinger
}

// NewHealthController 创建健康检查控制器，dependencies 为就绪检查要探测的依赖
func NewHealthController(dependencies map[string]Pinger) *HealthController {
	return &HealthController{dependencies: dependencies}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string            `json:"status" example:"ok"`
	Timestamp time.Time         `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string            `json:"version" example:"1.0.0"`
	Service   string            `json:"service" example:"datascrub"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 探测数据库和 Redis，任一失败返回 503
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   serviceName,
		Checks:    make(map[string]string, len(c.dependencies)),
	}

	for name, dep := range c.dependencies {
		if err := dep.Ping(ctx); err != nil {
			response.Checks[name] = err.Error()
			response.Status = "not_ready"
			continue
		}
		response.Checks[name] = "ok"
	}

	if response.Status != "ready" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response)
}
