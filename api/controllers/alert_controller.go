/*
 * @module api/controllers/alert_controller
 * @description 预警消费控制器，提供账户维度的预警列表查询和已读确认
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/api_design.md
 * @stateFlow HTTP请求 -> 账户上下文提取 -> 服务调用 -> 响应返回
 * @rules 预警严格按账户隔离；已读确认单向不可逆
 * @dependencies service/alert
 * @refs api/routes.go, service/alert/alert_service.go
 */

package controllers

import (
	"net/http"

	"carrierwatch-service/api/middleware"
	"carrierwatch-service/service"
	"carrierwatch-service/service/alert"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

// AlertController 预警消费控制器
type AlertController struct {
	alertService *alert.AlertService
}

// NewAlertController 创建预警消费控制器实例
func NewAlertController() *AlertController {
	return &AlertController{
		alertService: service.GlobalAlertService,
	}
}

// ListAlerts 查询当前账户的预警列表
// @Summary 查询预警列表
// @Description 按创建时间倒序返回当前账户的预警，可选只看未读
// @Tags 预警
// @Produce json
// @Param unread query bool false "只返回未读预警"
// @Param limit query int false "返回条数（默认50，最大200）"
// @Success 200 {object} APIResponse{data=[]models.Alert}
// @Failure 401 {object} APIResponse
// @Router /alerts [get]
func (c *AlertController) ListAlerts(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r.Context())
	if account == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, UnauthorizedResponse("未认证的请求", nil))
		return
	}

	unreadOnly := cast.ToBool(r.URL.Query().Get("unread"))
	limit := cast.ToInt(r.URL.Query().Get("limit"))

	alerts, err := c.alertService.ListAlerts(account.ID, unreadOnly, limit)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询预警列表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询预警列表成功", alerts))
}

// AcknowledgeAlert 将预警标记为已读
// @Summary 确认预警
// @Description 将指定预警标记为已读，重复确认保持已读状态
// @Tags 预警
// @Produce json
// @Param id path string true "预警ID"
// @Success 200 {object} APIResponse{data=models.Alert}
// @Failure 401 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /alerts/{id}/acknowledge [post]
func (c *AlertController) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	account := middleware.AccountFromContext(r.Context())
	if account == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, UnauthorizedResponse("未认证的请求", nil))
		return
	}

	alertID := chi.URLParam(r, "id")
	if alertID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("预警ID不能为空", nil))
		return
	}

	acknowledged, err := c.alertService.AcknowledgeAlert(account.ID, alertID)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("预警不存在", err))
		return
	}

	render.JSON(w, r, SuccessResponse("确认预警成功", acknowledged))
}
