/*
 * @module api/controllers/carrier_controller
 * @description 承运商查询控制器，提供档案查询、风险历史查询和监控订阅管理
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/api_design.md
 * @stateFlow HTTP请求 -> DOT号校验 -> 限流检查 -> 服务调用 -> 响应返回
 * @rules 上游类型化错误映射为404/429/502；存在过期缓存时降级返回并标记stale
 * @dependencies service/carrier, service/rate_limiter, service/models
 * @refs api/routes.go, service/carrier/profile_service.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"carrierwatch-service/api/middleware"
	"carrierwatch-service/service"
	"carrierwatch-service/service/carrier"
	"carrierwatch-service/service/fmcsa"
	"carrierwatch-service/service/models"
	"carrierwatch-service/service/rate_limiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// CarrierController 承运商查询控制器
type CarrierController struct {
	profileService *carrier.ProfileService
	rateLimiter    *rate_limiter.RedisRateLimiter
}

// NewCarrierController 创建承运商查询控制器实例
func NewCarrierController() *CarrierController {
	return &CarrierController{
		profileService: service.GlobalProfileService,
		rateLimiter:    service.GlobalRateLimiter,
	}
}

// CarrierLookupResponse 承运商查询响应
type CarrierLookupResponse struct {
	Profile        *models.CarrierProfile `json:"profile"`
	Source         string                 `json:"source" example:"cache"`        // cache 或 fmcsa
	StalenessHours float64                `json:"staleness_hours" example:"2.5"` // 距上次成功抓取的小时数
	Stale          bool                   `json:"stale" example:"false"`         // 上游失败时回退过期缓存为true
	UpstreamError  *carrier.Failure       `json:"upstream_error,omitempty"`      // 降级返回时附带的上游错误
}

// GetCarrier 查询承运商档案
// @Summary 查询承运商档案
// @Description 按DOT号查询承运商档案，缓存新鲜时直接返回，否则从FMCSA刷新
// @Tags 承运商
// @Produce json
// @Param dotNumber path string true "DOT号（1-8位数字）"
// @Success 200 {object} APIResponse{data=CarrierLookupResponse}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 429 {object} APIResponse
// @Failure 502 {object} APIResponse
// @Router /carriers/{dotNumber} [get]
func (c *CarrierController) GetCarrier(w http.ResponseWriter, r *http.Request) {
	dotNumber := chi.URLParam(r, "dotNumber")
	if err := carrier.ValidateDOTNumber(dotNumber); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("DOT号格式错误", err))
		return
	}

	if !c.allowRequest(w, r) {
		return
	}

	result := c.profileService.FetchAndStore(r.Context(), dotNumber)
	if result.OK() {
		render.JSON(w, r, SuccessResponse("查询承运商档案成功", &CarrierLookupResponse{
			Profile:        result.Profile,
			Source:         result.Source,
			StalenessHours: result.StalenessHours,
		}))
		return
	}

	// 上游失败但存在过期缓存时降级返回
	if result.StaleProfile != nil {
		render.JSON(w, r, SuccessResponse("上游不可用，返回过期缓存", &CarrierLookupResponse{
			Profile:       result.StaleProfile,
			Source:        "cache",
			Stale:         true,
			UpstreamError: result.Failure,
		}))
		return
	}

	status := failureStatus(result.Failure)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse(status, result.Failure.Message, nil))
}

// GetCarrierRisk 查询承运商风险历史
// @Summary 查询承运商风险历史
// @Description 返回承运商最近的每日风险快照列表，需要有效的付费订阅
// @Tags 承运商
// @Produce json
// @Param dotNumber path string true "DOT号（1-8位数字）"
// @Param limit query int false "返回条数（默认30，最大90）"
// @Success 200 {object} APIResponse{data=[]models.RiskSnapshot}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Router /carriers/{dotNumber}/risk [get]
func (c *CarrierController) GetCarrierRisk(w http.ResponseWriter, r *http.Request) {
	dotNumber := chi.URLParam(r, "dotNumber")
	if err := carrier.ValidateDOTNumber(dotNumber); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("DOT号格式错误", err))
		return
	}

	account := middleware.AccountFromContext(r.Context())
	if account == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, UnauthorizedResponse("未认证的请求", nil))
		return
	}
	allowed, err := service.GlobalEntitlementService.MayAccessPremiumData(account.ID)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询账户权限失败", err))
		return
	}
	if !allowed {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, ForbiddenResponse("风险历史需要有效的付费订阅", nil))
		return
	}

	limit := cast.ToInt(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 30
	}
	if limit > 90 {
		limit = 90
	}

	snapshots, err := models.GetRecentSnapshots(service.DB, dotNumber, limit)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询风险历史失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询风险历史成功", snapshots))
}

// MonitorCarrierRequest 添加监控请求
type MonitorCarrierRequest struct {
	Alias string `json:"alias,omitempty" example:"主力干线承运商"`
}

// MonitorCarrier 将承运商加入本账户的监控列表
// @Summary 添加承运商监控
// @Description 将指定DOT号加入当前账户的监控列表，定时周期将覆盖该承运商
// @Tags 承运商
// @Accept json
// @Produce json
// @Param dotNumber path string true "DOT号（1-8位数字）"
// @Param request body MonitorCarrierRequest false "监控配置"
// @Success 200 {object} APIResponse{data=models.MonitoredCarrier}
// @Failure 400 {object} APIResponse
// @Router /carriers/{dotNumber}/monitor [post]
func (c *CarrierController) MonitorCarrier(w http.ResponseWriter, r *http.Request) {
	dotNumber := chi.URLParam(r, "dotNumber")
	if err := carrier.ValidateDOTNumber(dotNumber); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("DOT号格式错误", err))
		return
	}

	account := middleware.AccountFromContext(r.Context())
	if account == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, UnauthorizedResponse("未认证的请求", nil))
		return
	}

	var req MonitorCarrierRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
			return
		}
	}

	var monitored models.MonitoredCarrier
	err := service.DB.Where("account_id = ? AND dot_number = ?", account.ID, dotNumber).
		First(&monitored).Error
	switch {
	case err == nil:
		monitored.IsActive = true
		if req.Alias != "" {
			monitored.Alias = req.Alias
		}
		if err := service.DB.Save(&monitored).Error; err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, InternalErrorResponse("更新监控配置失败", err))
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		monitored = models.MonitoredCarrier{
			AccountID: account.ID,
			DOTNumber: dotNumber,
			Alias:     req.Alias,
			IsActive:  true,
		}
		if err := service.DB.Create(&monitored).Error; err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, InternalErrorResponse("创建监控配置失败", err))
			return
		}
	default:
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询监控配置失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("添加承运商监控成功", &monitored))
}

// UnmonitorCarrier 将承运商移出本账户的监控列表
// @Summary 取消承运商监控
// @Description 停用当前账户对指定DOT号的监控，不删除历史数据
// @Tags 承运商
// @Produce json
// @Param dotNumber path string true "DOT号（1-8位数字）"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /carriers/{dotNumber}/monitor [delete]
func (c *CarrierController) UnmonitorCarrier(w http.ResponseWriter, r *http.Request) {
	dotNumber := chi.URLParam(r, "dotNumber")
	if err := carrier.ValidateDOTNumber(dotNumber); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("DOT号格式错误", err))
		return
	}

	account := middleware.AccountFromContext(r.Context())
	if account == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, UnauthorizedResponse("未认证的请求", nil))
		return
	}

	result := service.DB.Model(&models.MonitoredCarrier{}).
		Where("account_id = ? AND dot_number = ? AND is_active = ?", account.ID, dotNumber, true).
		Update("is_active", false)
	if result.Error != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("取消监控失败", result.Error))
		return
	}
	if result.RowsAffected == 0 {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("未找到处于监控中的承运商", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("取消承运商监控成功", nil))
}

// allowRequest 执行账户级与上游配额限流，被限流时直接写出429响应
func (c *CarrierController) allowRequest(w http.ResponseWriter, r *http.Request) bool {
	if c.rateLimiter == nil {
		return true
	}

	accountID := ""
	tier := ""
	if account := middleware.AccountFromContext(r.Context()); account != nil {
		accountID = account.ID
		tier = account.SubscriptionTier
	}

	result, err := c.rateLimiter.CheckRateLimit(r.Context(), rate_limiter.LookupRulesFor(accountID, tier))
	if err != nil {
		// 限流器故障时放行，避免Redis故障阻断查询
		return true
	}
	if !result.Allowed {
		w.Header().Set("X-RateLimit-Limit", cast.ToString(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", cast.ToString(result.Remaining))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, TooManyRequestsResponse(result.Message, nil))
		return false
	}
	return true
}

// failureStatus 类型化抓取失败到HTTP状态码的映射
func failureStatus(failure *carrier.Failure) int {
	switch failure.Code {
	case fmcsa.ErrCodeNotFound:
		return http.StatusNotFound
	case fmcsa.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case carrier.ErrCodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
