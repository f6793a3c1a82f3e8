/*
 * @module service/scheduler/scheduler_service
 * @description 监控周期调度服务：按cron表达式定时触发监控周期，记录最近执行结果
 * @architecture 分层架构 - 任务调度层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow cron触发 -> 执行监控周期 -> 记录执行结果 -> 等待下次触发
 * @rules 1. 周期重叠时跳过本次触发（编排器自身拒绝并发周期）
 *        2. 停止调度不打断在途周期
 * @dependencies github.com/robfig/cron/v3
 * @refs service/monitoring/monitor_service.go, main.go
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"carrierwatch-service/service/monitoring"
)

// 每小时整点触发
const defaultMonitoringCron = "0 0 * * * *"

// ExecutionRecord 最近一次调度执行记录
type ExecutionRecord struct {
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Status     string                    `json:"status"` // success, partial_failure, skipped, failed
	Summary    *monitoring.CycleSummary  `json:"summary,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

// SchedulerService 监控周期调度服务
type SchedulerService struct {
	cron     *cron.Cron
	monitor  *monitoring.MonitorService
	cronExpr string

	mutex         sync.RWMutex
	lastExecution *ExecutionRecord
	isRunning     bool
}

// NewSchedulerService 创建调度服务，cron表达式从MONITORING_CRON读取（带秒字段）
func NewSchedulerService(monitor *monitoring.MonitorService) *SchedulerService {
	cronExpr := os.Getenv("MONITORING_CRON")
	if cronExpr == "" {
		cronExpr = defaultMonitoringCron
	}

	return &SchedulerService{
		cron:     cron.New(cron.WithSeconds()),
		monitor:  monitor,
		cronExpr: cronExpr,
	}
}

// Start 注册定时任务并启动调度器
func (s *SchedulerService) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return nil
	}

	_, err := s.cron.AddFunc(s.cronExpr, s.runCycle)
	if err != nil {
		return fmt.Errorf("注册监控周期任务失败: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	slog.Info("监控调度器已启动", "cron", s.cronExpr)
	return nil
}

// Stop 停止调度器，等待在途周期完成
func (s *SchedulerService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	slog.Info("监控调度器已停止")
}

// LastExecution 最近一次执行记录，供状态接口查询
func (s *SchedulerService) LastExecution() *ExecutionRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastExecution
}

// IsRunning 调度器运行状态
func (s *SchedulerService) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isRunning
}

func (s *SchedulerService) runCycle() {
	record := &ExecutionRecord{StartedAt: time.Now()}

	summary, err := s.monitor.RunMonitoringCycle(context.Background())
	record.FinishedAt = time.Now()

	switch {
	case errors.Is(err, monitoring.ErrCycleInProgress):
		// 上个周期尚未结束，跳过本次触发
		record.Status = "skipped"
		slog.Warn("上个监控周期未结束，跳过本次触发")
	case err != nil:
		record.Status = "failed"
		record.Error = err.Error()
		slog.Error("定时监控周期启动失败", "error", err)
	default:
		record.Status = summary.Status()
		record.Summary = summary
	}

	s.mutex.Lock()
	s.lastExecution = record
	s.mutex.Unlock()
}
