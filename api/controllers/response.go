package controllers

import (
	"errors"
	"net/http"

	"datascrub/service"
	"datascrub/service/history"
	"datascrub/service/models"

	"github.com/go-chi/render"
)

// 业务状态码，0 表示成功
const (
	StatusOK         = 0
	StatusBadRequest = 1
	StatusFailed     = 2
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status    int         `json:"status" example:"0"`
	Msg       string      `json:"msg" example:"操作成功"`
	ErrorType string      `json:"error_type,omitempty" example:"column_not_found"`
	Data      interface{} `json:"data,omitempty"`
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: StatusOK, Msg: msg, Data: data}
}

// BadRequestResponse 请求参数错误响应
func BadRequestResponse(msg string, err error) *APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &APIResponse{Status: StatusBadRequest, Msg: msg}
}

// ErrorResponse 业务错误响应，携带错误类型
func ErrorResponse(msg string, err error) *APIResponse {
	resp := &APIResponse{Status: StatusFailed, Msg: msg}
	if err != nil {
		resp.Msg = msg + ": " + err.Error()
		resp.ErrorType = string(models.ErrorTypeOf(err))
	}
	return resp
}

// HTTPStatusOf 错误对应的 HTTP 状态码
func HTTPStatusOf(err error) int {
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	}

	switch models.ErrorTypeOf(err) {
	case models.ErrorTypeConfig, models.ErrorTypeColumnNotFound,
		models.ErrorTypeInvalidInput, models.ErrorTypeUnsupportedFormat:
		return http.StatusBadRequest
	case models.ErrorTypeLoad:
		return http.StatusUnprocessableEntity
	case models.ErrorTypeTranslation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// renderError 按错误类型设置状态码并输出
func renderError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	render.Status(r, HTTPStatusOf(err))
	render.JSON(w, r, ErrorResponse(msg, err))
}

// renderBadRequest 输出 400
func renderBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, BadRequestResponse(msg, err))
}
