/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移和各业务服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/carrier_pipeline.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务；Redis/Kafka缺失时降级运行
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs main.go, api/routes.go
 */

package service

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"carrierwatch-service/service/alert"
	"carrierwatch-service/service/carrier"
	"carrierwatch-service/service/cleanup"
	"carrierwatch-service/service/config"
	"carrierwatch-service/service/database"
	"carrierwatch-service/service/entitlement"
	"carrierwatch-service/service/event"
	"carrierwatch-service/service/fmcsa"
	"carrierwatch-service/service/monitoring"
	"carrierwatch-service/service/rate_limiter"
	"carrierwatch-service/service/risk"
	"carrierwatch-service/service/scheduler"
)

var (
	DB                       *gorm.DB
	GlobalFMCSAClient        *fmcsa.Client
	GlobalProfileService     *carrier.ProfileService
	GlobalSnapshotService    *risk.SnapshotService
	GlobalAlertPublisher     *event.AlertPublisher
	GlobalAlertService       *alert.AlertService
	GlobalEntitlementService *entitlement.EntitlementService
	GlobalMetricsCollector   *monitoring.MetricsCollector
	GlobalMonitorService     *monitoring.MonitorService
	GlobalSchedulerService   *scheduler.SchedulerService
	GlobalRateLimiter        *rate_limiter.RedisRateLimiter
	GlobalConfigService      *config.ConfigService
	GlobalRetentionService   *cleanup.RetentionService
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "carrierwatch2026")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=UTC",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}

	log.Println("所有数据库迁移任务完成")
}

// initServices 初始化服务
func initServices() {
	GlobalFMCSAClient = fmcsa.NewClient()
	GlobalProfileService = carrier.NewProfileService(DB, GlobalFMCSAClient)
	GlobalSnapshotService = risk.NewSnapshotService(DB)

	// 告警投递器未配置Kafka时为no-op
	GlobalAlertPublisher = event.NewAlertPublisher()
	GlobalAlertService = alert.NewAlertService(DB, GlobalAlertPublisher)
	GlobalEntitlementService = entitlement.NewEntitlementService(DB)

	GlobalMetricsCollector = monitoring.NewMetricsCollector()
	GlobalMonitorService = monitoring.NewMonitorService(DB,
		GlobalProfileService, GlobalSnapshotService, GlobalAlertService, GlobalMetricsCollector)

	// Redis不可用时限流降级为放行
	var err error
	GlobalRateLimiter, err = rate_limiter.NewRedisRateLimiter()
	if err != nil {
		log.Printf("Redis限流器初始化失败，限流功能关闭: %v", err)
		GlobalRateLimiter = nil
	}

	// 启动定时监控调度
	GlobalSchedulerService = scheduler.NewSchedulerService(GlobalMonitorService)
	if err := GlobalSchedulerService.Start(); err != nil {
		log.Printf("启动调度器服务失败: %v", err)
	}

	// 启动数据保留清理
	GlobalConfigService = config.NewConfigService(DB)
	GlobalRetentionService = cleanup.NewRetentionService(DB, GlobalConfigService)
	if err := GlobalRetentionService.StartScheduledCleanup(); err != nil {
		log.Printf("启动数据保留调度器失败: %v", err)
	}

	log.Println("服务初始化完成")
}
