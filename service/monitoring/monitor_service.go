/*
 * @module service/monitoring/monitor_service
 * @description 监控周期编排器：遍历受监控承运商，刷新档案、评分、落快照并生成告警，
 *              单个承运商的失败不影响其他承运商
 * @architecture 分层架构 - 业务服务层，有界并发worker池
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 取监控列表 -> worker池并发处理 -> 刷新/评分/对比/告警 -> 汇总周期结果
 * @rules 1. 每个承运商独立处理，失败记录到汇总但不中断周期
 *        2. 上游瞬时失败且有过期缓存时，用过期档案继续评分
 *        3. 周期取消只停止派发新任务，已完成的写入保持不变
 *        4. 同一时间只允许一个周期运行
 * @dependencies gorm.io/gorm, github.com/spf13/cast
 * @refs candidate_builder.go, service/carrier/profile_service.go, service/risk/snapshot_service.go
 */

package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cast"
	"gorm.io/gorm"

	"carrierwatch-service/service/alert"
	"carrierwatch-service/service/carrier"
	"carrierwatch-service/service/models"
	"carrierwatch-service/service/risk"
)

const defaultWorkerCount = 4

// 周期结果状态
const (
	CycleStatusSuccess        = "success"
	CycleStatusPartialFailure = "partial_failure"
)

// ErrCycleInProgress 已有周期在运行时返回
var ErrCycleInProgress = errors.New("监控周期正在运行中")

// CycleError 单个承运商的处理失败记录
type CycleError struct {
	DOTNumber string `json:"dot_number"`
	Stage     string `json:"stage"` // fetch, score, alert
	Message   string `json:"message"`
}

// CycleSummary 监控周期汇总结果
type CycleSummary struct {
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
	Processed        int          `json:"processed"`
	Succeeded        int          `json:"succeeded"`
	AlertsCreated    int          `json:"alerts_created"`
	AlertsSuppressed int          `json:"alerts_suppressed"`
	Errors           []CycleError `json:"errors"`
}

// Status 周期结果状态：全部成功或部分失败
func (cs *CycleSummary) Status() string {
	if len(cs.Errors) > 0 {
		return CycleStatusPartialFailure
	}
	return CycleStatusSuccess
}

// MonitorService 监控周期编排器
type MonitorService struct {
	db          *gorm.DB
	profiles    *carrier.ProfileService
	snapshots   *risk.SnapshotService
	alerts      *alert.AlertService
	metrics     *MetricsCollector
	workerCount int

	runMutex sync.Mutex
	running  bool
}

// NewMonitorService 创建编排器，worker数从MONITOR_WORKERS读取
func NewMonitorService(db *gorm.DB, profiles *carrier.ProfileService, snapshots *risk.SnapshotService, alerts *alert.AlertService, metrics *MetricsCollector) *MonitorService {
	workerCount := cast.ToInt(os.Getenv("MONITOR_WORKERS"))
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	return &MonitorService{
		db:          db,
		profiles:    profiles,
		snapshots:   snapshots,
		alerts:      alerts,
		metrics:     metrics,
		workerCount: workerCount,
	}
}

// RunMonitoringCycle 执行一个完整监控周期
// 返回error仅表示周期无法启动，单个承运商的失败记录在汇总的Errors中
func (s *MonitorService) RunMonitoringCycle(ctx context.Context) (*CycleSummary, error) {
	s.runMutex.Lock()
	if s.running {
		s.runMutex.Unlock()
		return nil, ErrCycleInProgress
	}
	s.running = true
	s.runMutex.Unlock()
	defer func() {
		s.runMutex.Lock()
		s.running = false
		s.runMutex.Unlock()
	}()

	summary := &CycleSummary{StartedAt: time.Now(), Errors: []CycleError{}}

	dotNumbers, err := models.GetActiveMonitoredDOTNumbers(s.db)
	if err != nil {
		return nil, fmt.Errorf("获取监控列表失败: %w", err)
	}

	slog.Info("监控周期开始", "carrier_count", len(dotNumbers), "workers", s.workerCount)

	var (
		wg         sync.WaitGroup
		workerPool = make(chan struct{}, s.workerCount)
		mu         sync.Mutex
	)

	for _, dotNumber := range dotNumbers {
		// 取消后停止派发新任务，已在途的任务自然完成
		if ctx.Err() != nil {
			slog.Warn("监控周期被取消，停止派发", "remaining", len(dotNumbers)-summary.Processed)
			break
		}

		wg.Add(1)
		workerPool <- struct{}{}
		go func(dot string) {
			defer wg.Done()
			defer func() { <-workerPool }()

			created, suppressed, procErr := s.processCarrier(ctx, dot)

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			summary.AlertsCreated += created
			summary.AlertsSuppressed += suppressed
			if procErr != nil {
				summary.Errors = append(summary.Errors, *procErr)
				s.metrics.RecordCarrierResult("error")
			} else {
				summary.Succeeded++
				s.metrics.RecordCarrierResult("ok")
			}
		}(dotNumber)
	}

	wg.Wait()
	summary.FinishedAt = time.Now()

	duration := summary.FinishedAt.Sub(summary.StartedAt)
	s.metrics.RecordCycle(summary.Status(), duration.Seconds())

	slog.Info("监控周期结束",
		"status", summary.Status(),
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"alerts_created", summary.AlertsCreated,
		"alerts_suppressed", summary.AlertsSuppressed,
		"error_count", len(summary.Errors),
		"duration", duration.String())

	return summary, nil
}

// processCarrier 处理单个承运商：刷新 -> 评分 -> 对比 -> 告警
func (s *MonitorService) processCarrier(ctx context.Context, dotNumber string) (created, suppressed int, cycleErr *CycleError) {
	fetch := s.profiles.FetchAndStore(ctx, dotNumber)

	var profile *models.CarrierProfile
	switch {
	case fetch.OK():
		profile = fetch.Profile
		s.metrics.RecordProfileFetch(fetch.Source)
	case fetch.StaleProfile != nil:
		// 上游失败但有历史数据，用过期档案继续本周期评分
		profile = fetch.StaleProfile
		s.metrics.RecordProfileFetch("stale_fallback")
		slog.Warn("上游刷新失败，使用过期档案继续",
			"dot_number", dotNumber,
			"failure_code", fetch.Failure.Code,
			"staleness_hours", profile.StalenessHours(time.Now()))
	default:
		s.metrics.RecordProfileFetch("error")
		slog.Error("承运商档案获取失败", "dot_number", dotNumber, "failure_code", fetch.Failure.Code)
		return 0, 0, &CycleError{DOTNumber: dotNumber, Stage: "fetch", Message: fetch.Failure.Message}
	}

	now := time.Now()
	assessment := risk.Score(profile)
	snapshot, err := s.snapshots.RecordAssessment(dotNumber, assessment, profile, now)
	if err != nil {
		slog.Error("承运商评分落库失败", "dot_number", dotNumber, "error", err)
		return 0, 0, &CycleError{DOTNumber: dotNumber, Stage: "score", Message: err.Error()}
	}

	previous, err := models.GetLatestSnapshotBefore(s.db, dotNumber, snapshot.SnapshotDate)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, &CycleError{DOTNumber: dotNumber, Stage: "score", Message: err.Error()}
		}
		previous = nil
	}

	candidates := BuildChangeCandidates(profile, snapshot, previous)
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	accountIDs, err := models.GetMonitoringAccountIDs(s.db, dotNumber)
	if err != nil {
		return 0, 0, &CycleError{DOTNumber: dotNumber, Stage: "alert", Message: err.Error()}
	}

	for _, accountID := range accountIDs {
		for _, candidate := range candidates {
			stored, outcome, alertErr := s.alerts.ProcessCandidate(alert.Candidate{
				AccountID: accountID,
				DOTNumber: dotNumber,
				AlertType: candidate.AlertType,
				Summary:   candidate.Summary,
				DiffKey:   candidate.DiffKey,
			}, now)
			if alertErr != nil {
				slog.Error("告警处理失败",
					"dot_number", dotNumber,
					"account_id", accountID,
					"alert_type", candidate.AlertType,
					"error", alertErr)
				return created, suppressed, &CycleError{DOTNumber: dotNumber, Stage: "alert", Message: alertErr.Error()}
			}
			switch outcome {
			case alert.OutcomeCreated:
				created++
				s.metrics.RecordAlertCreated(stored.Severity)
			default:
				suppressed++
				s.metrics.RecordAlertSuppressed(outcome)
			}
		}
	}

	return created, suppressed, nil
}
