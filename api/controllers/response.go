/*
 * @module api/controllers/response
 * @description 统一API响应结构与响应构造辅助函数
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/api_design.md
 * @stateFlow 控制器处理结果 -> 响应构造 -> render.JSON输出
 * @rules status为0表示成功，非0表示对应的HTTP错误码；错误信息统一拼接到msg
 * @dependencies 无
 * @refs api/routes.go
 */

package controllers

import "net/http"

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 构造成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
	}
}

// ErrorResponse 构造指定状态码的错误响应
func ErrorResponse(status int, msg string, err error) *APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &APIResponse{
		Status: status,
		Msg:    msg,
	}
}

// BadRequestResponse 构造参数错误响应
func BadRequestResponse(msg string, err error) *APIResponse {
	return ErrorResponse(http.StatusBadRequest, msg, err)
}

// NotFoundResponse 构造资源不存在响应
func NotFoundResponse(msg string, err error) *APIResponse {
	return ErrorResponse(http.StatusNotFound, msg, err)
}

// ConflictResponse 构造资源冲突响应
func ConflictResponse(msg string, err error) *APIResponse {
	return ErrorResponse(http.StatusConflict, msg, err)
}

// TooManyRequestsResponse 构造限流响应
func TooManyRequestsResponse(msg string, err error) *APIResponse {
	return ErrorResponse(http.StatusTooManyRequests, msg, err)
}

// UnauthorizedResponse 构造认证失败响应
func UnauthorizedResponse(msg string, err error) *APIResponse {
	return ErrorResponse(http.StatusUnauthorized, msg, err)
}

// ForbiddenResponse 构造权限不足响应
func ForbiddenResponse(msg string, err error) *APIResponse {
	return ErrorResponse(http.StatusForbidden, msg, err)
}

// InternalErrorResponse 构造服务器内部错误响应
func InternalErrorResponse(msg string, err error) *APIResponse {
	return ErrorResponse(http.StatusInternalServerError, msg, err)
}

// PaginatedSuccessResponse 构造分页成功响应
func PaginatedSuccessResponse(msg string, data interface{}, total int64, page, size int) *PaginatedResponse {
	return &PaginatedResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
		Total:  total,
		Page:   page,
		Size:   size,
	}
}
