/*
 * @module api/controllers/monitoring_controller
 * @description 监控运行控制器，提供手动触发监控周期与调度状态查询
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/api_design.md
 * @stateFlow HTTP请求 -> 周期触发 -> 摘要返回
 * @rules 同一时间只允许一个监控周期运行，并发触发返回409
 * @dependencies service/monitoring, service/scheduler
 * @refs api/routes.go, service/monitoring/monitor_service.go
 */

package controllers

import (
	"errors"
	"net/http"

	"carrierwatch-service/service"
	"carrierwatch-service/service/monitoring"
	"carrierwatch-service/service/scheduler"

	"github.com/go-chi/render"
)

// MonitoringController 监控运行控制器
type MonitoringController struct {
	monitorService   *monitoring.MonitorService
	schedulerService *scheduler.SchedulerService
}

// NewMonitoringController 创建监控运行控制器实例
func NewMonitoringController() *MonitoringController {
	return &MonitoringController{
		monitorService:   service.GlobalMonitorService,
		schedulerService: service.GlobalSchedulerService,
	}
}

// MonitoringStatusResponse 调度状态响应
type MonitoringStatusResponse struct {
	SchedulerRunning bool                       `json:"scheduler_running" example:"true"`
	LastExecution    *scheduler.ExecutionRecord `json:"last_execution,omitempty"`
}

// RunCycle 手动触发一次监控周期
// @Summary 触发监控周期
// @Description 立即对所有处于监控中的承运商执行一次完整的监控周期并返回摘要
// @Tags 监控
// @Produce json
// @Success 200 {object} APIResponse{data=monitoring.CycleSummary}
// @Failure 409 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /monitoring/run [post]
func (c *MonitoringController) RunCycle(w http.ResponseWriter, r *http.Request) {
	summary, err := c.monitorService.RunMonitoringCycle(r.Context())
	if err != nil {
		if errors.Is(err, monitoring.ErrCycleInProgress) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, ConflictResponse("监控周期正在运行中", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("监控周期执行失败", err))
		return
	}

	if summary.Status() == monitoring.CycleStatusPartialFailure {
		render.JSON(w, r, SuccessResponse("监控周期完成（部分承运商处理失败）", summary))
		return
	}
	render.JSON(w, r, SuccessResponse("监控周期完成", summary))
}

// GetStatus 查询调度器状态与最近一次执行结果
// @Summary 查询监控调度状态
// @Description 返回定时调度器的运行状态和最近一次周期的执行记录
// @Tags 监控
// @Produce json
// @Success 200 {object} APIResponse{data=MonitoringStatusResponse}
// @Router /monitoring/status [get]
func (c *MonitoringController) GetStatus(w http.ResponseWriter, r *http.Request) {
	response := MonitoringStatusResponse{}
	if c.schedulerService != nil {
		response.SchedulerRunning = c.schedulerService.IsRunning()
		response.LastExecution = c.schedulerService.LastExecution()
	}

	render.JSON(w, r, SuccessResponse("查询调度状态成功", &response))
}
