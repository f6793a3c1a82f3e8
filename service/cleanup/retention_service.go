/*
 * @module service/cleanup/retention_service
 * @description 数据保留服务，定期清理过期的已读预警和历史风险快照
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 定时触发 -> 读取保留配置 -> 执行清理 -> 记录结果
 * @rules 只清理已读预警；未读预警和承运商档案永不删除
 * @dependencies service/config, gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/config/config_service.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carrierwatch-service/service/config"
	"carrierwatch-service/service/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// RetentionService 数据保留服务
type RetentionService struct {
	db            *gorm.DB
	configService *config.ConfigService
	cron          *cron.Cron
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
}

// NewRetentionService 创建数据保留服务实例
func NewRetentionService(db *gorm.DB, configService *config.ConfigService) *RetentionService {
	ctx, cancel := context.WithCancel(context.Background())

	return &RetentionService{
		db:            db,
		configService: configService,
		cron:          cron.New(cron.WithSeconds()),
		ctx:           ctx,
		cancel:        cancel,
		started:       false,
	}
}

// CleanupExpiredData 清理所有过期数据
func (s *RetentionService) CleanupExpiredData(ctx context.Context) error {
	slog.Info("开始清理过期数据")
	startTime := time.Now()

	alertRetentionDays, err := s.configService.GetAlertRetentionDays()
	if err != nil {
		slog.Error("获取预警保留天数失败", "error", err)
		alertRetentionDays = config.DefaultAlertRetentionDays
	}

	alertsDeleted, err := s.CleanupReadAlerts(ctx, alertRetentionDays)
	if err != nil {
		return err
	}

	snapshotRetentionDays, err := s.configService.GetSnapshotRetentionDays()
	if err != nil {
		slog.Error("获取快照保留天数失败", "error", err)
		snapshotRetentionDays = config.DefaultSnapshotRetentionDays
	}

	snapshotsDeleted, err := s.CleanupOldSnapshots(ctx, snapshotRetentionDays)
	if err != nil {
		return err
	}

	slog.Info("过期数据清理完成",
		"alerts_deleted", alertsDeleted,
		"snapshots_deleted", snapshotsDeleted,
		"duration", time.Since(startTime).String())

	return nil
}

// CleanupReadAlerts 清理超过保留期的已读预警
func (s *RetentionService) CleanupReadAlerts(ctx context.Context, retentionDays int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	slog.Debug("清理已读预警", "cutoff_date", cutoffDate.Format("2006-01-02 15:04:05"), "retention_days", retentionDays)

	result := s.db.Where("is_read = ? AND created_at < ?", true, cutoffDate).Delete(&models.Alert{})

	if result.Error != nil {
		return 0, fmt.Errorf("删除已读预警失败: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// CleanupOldSnapshots 清理超过保留期的风险快照
func (s *RetentionService) CleanupOldSnapshots(ctx context.Context, retentionDays int) (int64, error) {
	cutoffDate := time.Now().UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02")

	slog.Debug("清理历史风险快照", "cutoff_date", cutoffDate, "retention_days", retentionDays)

	result := s.db.Where("snapshot_date < ?", cutoffDate).Delete(&models.RiskSnapshot{})

	if result.Error != nil {
		return 0, fmt.Errorf("删除历史风险快照失败: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// StartScheduledCleanup 启动定时清理任务
func (s *RetentionService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("数据保留调度器已经启动")
	}

	slog.Info("启动数据保留调度器")

	// 每天凌晨2点执行清理任务
	// Cron表达式：秒 分 时 日 月 周
	_, err := s.cron.AddFunc("0 0 2 * * *", func() {
		slog.Info("开始执行定时数据清理任务")

		if err := s.CleanupExpiredData(s.ctx); err != nil {
			slog.Error("定时数据清理任务失败", "error", err)
		}
	})

	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true

	slog.Info("数据保留调度器启动成功，将于每天凌晨2点执行清理任务")

	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *RetentionService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	slog.Info("停止数据保留调度器")

	s.cancel()

	if s.cron != nil {
		s.cron.Stop()
	}

	s.started = false

	slog.Info("数据保留调度器已停止")
}
