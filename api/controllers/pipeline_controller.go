/*
 * @module api/controllers/pipeline_controller
 * @description 清洗管道控制器，提供运行清洗和查询运行记录的接口
 * @architecture 分层架构 - 控制器层
 * @stateFlow HTTP请求 -> 参数验证 -> CleaningService -> 响应返回
 * @rules path 与 table 必须且只能提供一个；path 必须位于数据目录内；错误按类型映射 HTTP 状态码
 * @dependencies datascrub/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs api/routes.go, service/cleaning_service.go
 */

package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"datascrub/service"
	"datascrub/service/data_cleaning"
	"datascrub/service/models"
	"datascrub/service/table_io"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

// PipelineController 清洗管道控制器
type PipelineController struct {
	cleaningService *service.CleaningService
	dataRoot        string
}

// NewPipelineController 创建清洗管道控制器，dataRoot 为空时不接受文件路径
func NewPipelineController(cleaningService *service.CleaningService, dataRoot string) *PipelineController {
	return &PipelineController{cleaningService: cleaningService, dataRoot: dataRoot}
}

// PipelineRunRequest 运行清洗请求
type PipelineRunRequest struct {
	Path   string                      `json:"path,omitempty" example:"people.csv"`
	Table  *models.Table               `json:"table,omitempty"`
	Config data_cleaning.RequestConfig `json:"config"`
}

// PipelineRunResponse 运行清洗结果
type PipelineRunResponse struct {
	RunID    string                  `json:"run_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Table    *models.Table           `json:"table"`
	Stages   []string                `json:"stages" example:"clean,deduplicate"`
	Warnings []data_cleaning.Warning `json:"warnings"`
}

// RunPipeline 运行清洗管道
// @Summary 运行清洗管道
// @Description 对数据目录（DATA_ROOT）下的文件（.csv/.xlsx）或内联表执行清洗，阶段顺序固定：
// @Description missing_values → parse_date → translate_columns → clean → perform_scaling_normalization → explode → deduplicate
// @Tags 清洗管道
// @Accept json
// @Produce json
// @Param request body PipelineRunRequest true "清洗请求"
// @Success 200 {object} APIResponse{data=PipelineRunResponse} "运行成功"
// @Failure 400 {object} APIResponse "配置错误、列不存在或路径不在数据目录内"
// @Failure 422 {object} APIResponse "文件加载失败"
// @Failure 502 {object} APIResponse "翻译服务失败"
// @Router /pipeline/run [post]
func (c *PipelineController) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req PipelineRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderBadRequest(w, r, "请求参数解析失败", err)
		return
	}

	path := strings.TrimSpace(req.Path)
	if (path == "") == (req.Table == nil) {
		renderBadRequest(w, r, "path 与 table 必须且只能提供一个", nil)
		return
	}

	runReq := service.RunRequest{Config: req.Config, Trigger: service.TriggerAPI}
	if req.Table != nil {
		runReq.Input = req.Table
	} else {
		resolved, err := table_io.ResolvePath(c.dataRoot, path)
		if err != nil {
			renderError(w, r, "清洗运行失败", err)
			return
		}
		runReq.Input = resolved
	}

	output, err := c.cleaningService.Run(r.Context(), runReq)
	if err != nil {
		resp := ErrorResponse("清洗运行失败", err)
		if output != nil {
			resp.Data = map[string]string{"run_id": output.RunID}
		}
		render.Status(r, HTTPStatusOf(err))
		render.JSON(w, r, resp)
		return
	}

	warnings := output.Result.Warnings
	if warnings == nil {
		warnings = []data_cleaning.Warning{}
	}
	render.JSON(w, r, SuccessResponse("清洗运行成功", PipelineRunResponse{
		RunID:    output.RunID,
		Table:    output.Result.Table,
		Stages:   output.Result.Stages,
		Warnings: warnings,
	}))
}

// ListRuns 查询运行记录
// @Summary 查询运行记录
// @Description 按开始时间倒序返回最近的运行记录
// @Tags 清洗管道
// @Produce json
// @Param limit query int false "返回条数，默认20，最大200"
// @Param status query string false "状态过滤 success/failed"
// @Success 200 {object} APIResponse{data=[]models.PipelineRun} "查询成功"
// @Failure 503 {object} APIResponse "未启用运行记录"
// @Router /pipeline/runs [get]
func (c *PipelineController) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil || n < 0 {
			renderBadRequest(w, r, "limit 必须是非负整数", err)
			return
		}
		limit = n
	}

	status := r.URL.Query().Get("status")
	if status != "" && status != models.PipelineRunStatusSuccess && status != models.PipelineRunStatusFailed {
		renderBadRequest(w, r, "无效的状态: "+status, nil)
		return
	}

	runs, err := c.cleaningService.ListRuns(r.Context(), limit, status)
	if err != nil {
		renderError(w, r, "查询运行记录失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询运行记录成功", runs))
}

// GetRun 获取运行记录详情
// @Summary 获取运行记录详情
// @Tags 清洗管道
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.PipelineRun} "查询成功"
// @Failure 404 {object} APIResponse "运行记录不存在"
// @Router /pipeline/runs/{id} [get]
func (c *PipelineController) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		renderBadRequest(w, r, "运行ID不能为空", nil)
		return
	}

	run, err := c.cleaningService.GetRun(r.Context(), id)
	if err != nil {
		renderError(w, r, "查询运行记录失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询运行记录成功", run))
}

// GetRunStats 运行次数统计
// @Summary 运行次数统计
// @Tags 清洗管道
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]int64} "查询成功"
// @Router /pipeline/runs/stats [get]
func (c *PipelineController) GetRunStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.cleaningService.RunStats(r.Context())
	if err != nil {
		renderError(w, r, "统计运行记录失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("统计运行记录成功", stats))
}
