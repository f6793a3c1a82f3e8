/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/api_design.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"carrierwatch-service/api/controllers"
	apimiddleware "carrierwatch-service/api/middleware"
	"carrierwatch-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API密钥鉴权（健康检查、指标等路径在白名单内）
	authMiddleware := apimiddleware.NewAPIKeyAuthMiddleware(service.GlobalEntitlementService)
	r.Use(authMiddleware.Handler)

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 承运商查询与监控订阅
	r.Route("/carriers", func(r chi.Router) {
		carrierController := controllers.NewCarrierController()

		r.Get("/{dotNumber}", carrierController.GetCarrier)
		r.Get("/{dotNumber}/risk", carrierController.GetCarrierRisk)
		r.Post("/{dotNumber}/monitor", carrierController.MonitorCarrier)
		r.Delete("/{dotNumber}/monitor", carrierController.UnmonitorCarrier)
	})

	// 预警消费
	r.Route("/alerts", func(r chi.Router) {
		alertController := controllers.NewAlertController()

		r.Get("/", alertController.ListAlerts)
		r.Post("/{id}/acknowledge", alertController.AcknowledgeAlert)
	})

	// 监控周期管理
	r.Route("/monitoring", func(r chi.Router) {
		monitoringController := controllers.NewMonitoringController()

		r.Post("/run", monitoringController.RunCycle)
		r.Get("/status", monitoringController.GetStatus)
	})
}
