/*
 * @module service/carrier/profile_service
 * @description 承运商档案缓存提供方，持有12小时新鲜度规则，是CarrierProfile唯一的写入路径
 * @architecture 分层架构 - 业务服务层（缓存旁路模式）
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 查缓存 -> 判断新鲜度 -> 命中返回 / 过期刷新 -> 归一化 -> 按DOT号幂等upsert
 * @rules 并发刷新同一DOT号允许竞态（最后写入者胜出）；LastFetchedAt仅在抓取成功后写入
 * @dependencies gorm.io/gorm, carrierwatch-service/service/fmcsa
 * @refs service/fmcsa/client.go, service/monitoring/monitor_service.go
 */

package carrier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carrierwatch-service/service/fmcsa"
	"carrierwatch-service/service/models"
)

// CacheTTL 档案新鲜度窗口，超过后触发刷新
const CacheTTL = 12 * time.Hour

// 数据来源标记
const (
	SourceCache = "cache"
	SourceFMCSA = "fmcsa"
)

// ErrCodeStorage 存储层失败的稳定错误码
const ErrCodeStorage = "storage-error"

var dotNumberPattern = regexp.MustCompile(`^\d{1,8}$`)

// ErrInvalidDOTNumber DOT号格式错误
var ErrInvalidDOTNumber = errors.New("DOT号必须为1-8位数字")

// ValidateDOTNumber 校验DOT号格式，所有组件运行前的入口校验
func ValidateDOTNumber(dotNumber string) error {
	if !dotNumberPattern.MatchString(dotNumber) {
		return ErrInvalidDOTNumber
	}
	return nil
}

// Failure 抓取流程的类型化失败
type Failure struct {
	Code       string `json:"code"`        // 错误码：upstream-not-found, upstream-rate-limited, upstream-error, storage-error
	Message    string `json:"message"`     // 固定的用户可见信息
	StatusCode int    `json:"status_code"` // 上游状态码（存储错误时为0）
}

// FetchResult 抓取结果，成功与失败统一为带标记的结构
type FetchResult struct {
	Profile        *models.CarrierProfile `json:"profile,omitempty"`
	Source         string                 `json:"source,omitempty"`          // cache 或 fmcsa
	StalenessHours float64                `json:"staleness_hours"`           // source=cache时距上次抓取的小时数
	Failure        *Failure               `json:"failure,omitempty"`         // 失败时非nil
	StaleProfile   *models.CarrierProfile `json:"stale_profile,omitempty"`   // 失败时仍存在的过期缓存行，回退决策由调用方做出
}

// OK 是否成功取得档案
func (r *FetchResult) OK() bool {
	return r.Failure == nil
}

// ProfileService 承运商档案服务（缓存提供方）
type ProfileService struct {
	db     *gorm.DB
	client *fmcsa.Client
}

// NewProfileService 创建档案服务实例
func NewProfileService(db *gorm.DB, client *fmcsa.Client) *ProfileService {
	return &ProfileService{
		db:     db,
		client: client,
	}
}

// GetProfile 按DOT号读取已存储的档案
func (s *ProfileService) GetProfile(dotNumber string) (*models.CarrierProfile, error) {
	var profile models.CarrierProfile
	if err := s.db.Where("dot_number = ?", dotNumber).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchAndStore 取得档案：缓存新鲜则直接返回，否则刷新并入库
func (s *ProfileService) FetchAndStore(ctx context.Context, dotNumber string) *FetchResult {
	now := time.Now()

	existing, err := s.GetProfile(dotNumber)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("读取承运商档案失败", "dot_number", dotNumber, "error", err)
		return &FetchResult{Failure: &Failure{
			Code:    ErrCodeStorage,
			Message: "内部错误",
		}}
	}

	// 缓存命中路径
	if existing != nil && !existing.IsStale(CacheTTL, now) {
		slog.Debug("承运商档案缓存命中",
			"dot_number", dotNumber,
			"staleness_hours", existing.StalenessHours(now))
		return &FetchResult{
			Profile:        existing,
			Source:         SourceCache,
			StalenessHours: existing.StalenessHours(now),
		}
	}

	// 刷新路径
	raw, fetchErr := s.client.Fetch(ctx, dotNumber)
	if fetchErr != nil {
		slog.Warn("承运商档案刷新失败",
			"dot_number", dotNumber,
			"code", fetchErr.Code,
			"status_code", fetchErr.StatusCode)
		result := &FetchResult{Failure: &Failure{
			Code:       fetchErr.Code,
			Message:    fetchErr.Message,
			StatusCode: fetchErr.StatusCode,
		}}
		// 过期缓存行交给调用方做回退决策
		if existing != nil {
			result.StaleProfile = existing
		}
		return result
	}

	profile, err := s.upsertProfile(dotNumber, raw, now)
	if err != nil {
		slog.Error("承运商档案入库失败", "dot_number", dotNumber, "error", err)
		result := &FetchResult{Failure: &Failure{
			Code:    ErrCodeStorage,
			Message: "内部错误",
		}}
		if existing != nil {
			result.StaleProfile = existing
		}
		return result
	}

	return &FetchResult{
		Profile: profile,
		Source:  SourceFMCSA,
	}
}

// upsertProfile 归一化后按唯一DOT号幂等写入
// 并发刷新最后写入者胜出：上游数据在TTL窗口内稳定，重复抓取不会破坏状态
func (s *ProfileService) upsertProfile(dotNumber string, raw fmcsa.CarrierRaw, fetchedAt time.Time) (*models.CarrierProfile, error) {
	normalized := fmcsa.Normalize(raw)

	profile := &models.CarrierProfile{
		DOTNumber:        dotNumber,
		LegalName:        normalized.LegalName,
		DBAName:          normalized.DBAName,
		PhysicalAddress:  normalized.PhysicalAddress,
		MailingAddress:   normalized.MailingAddress,
		Phone:            normalized.Phone,
		OperatingStatus:  normalized.OperatingStatus,
		SafetyRating:     normalized.SafetyRating,
		SafetyRatingDate: normalized.SafetyRatingDate,
		VehicleOOSRate:   normalized.VehicleOOSRate,
		DriverOOSRate:    normalized.DriverOOSRate,
		HazmatOOSRate:    normalized.HazmatOOSRate,
		TotalInspections: normalized.TotalInspections,
		TotalVehicles:    normalized.TotalVehicles,
		TotalDrivers:     normalized.TotalDrivers,
		RawData:          models.JSONB(raw),
		LastFetchedAt:    &fetchedAt,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dot_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"legal_name", "dba_name", "physical_address", "mailing_address",
			"phone", "operating_status", "safety_rating", "safety_rating_date",
			"vehicle_oos_rate", "driver_oos_rate", "hazmat_oos_rate",
			"total_inspections", "total_vehicles", "total_drivers",
			"raw_data", "last_fetched_at", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return nil, fmt.Errorf("upsert承运商档案失败: %w", err)
	}

	// 重新读取，拿到冲突更新后权威的行（含原ID与CreatedAt）
	return s.GetProfile(dotNumber)
}
