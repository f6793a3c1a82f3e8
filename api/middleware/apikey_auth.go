/*
 * @module api/middleware/apikey_auth
 * @description API密钥鉴权中间件，验证请求携带的API密钥并注入账户上下文
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference dev_docs/api_design.md
 * @stateFlow 密钥提取 -> 密钥验证 -> 账户注入上下文 -> 下一个处理器
 * @rules 支持Authorization Bearer与X-API-Key两种携带方式；白名单路径跳过鉴权
 * @dependencies service/entitlement, net/http
 * @refs api/routes.go, service/entitlement/entitlement_service.go
 */

package middleware

import (
	"context"
	"net/http"
	"strings"

	"carrierwatch-service/service/entitlement"
	"carrierwatch-service/service/models"

	"github.com/go-chi/render"
)

// ContextKey 上下文键类型
type ContextKey string

// AccountKey 账户信息在上下文中的键
const AccountKey ContextKey = "account"

// APIKeyAuthMiddleware API密钥鉴权中间件
type APIKeyAuthMiddleware struct {
	entitlements *entitlement.EntitlementService
	// 白名单路径（不需要鉴权）
	whitelistPaths []string
}

// NewAPIKeyAuthMiddleware 创建API密钥鉴权中间件实例
func NewAPIKeyAuthMiddleware(entitlements *entitlement.EntitlementService) *APIKeyAuthMiddleware {
	return &APIKeyAuthMiddleware{
		entitlements: entitlements,
		whitelistPaths: []string{
			"/health",
			"/ready",
			"/metrics",
			"/swagger",
		},
	}
}

// Handler 中间件处理函数
func (m *APIKeyAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.isWhitelisted(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := extractAPIKey(r)
		if apiKey == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusUnauthorized,
				"msg":    "缺少API密钥",
			})
			return
		}

		account, err := m.entitlements.AuthenticateAPIKey(apiKey)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusUnauthorized,
				"msg":    "API密钥无效",
			})
			return
		}

		ctx := context.WithValue(r.Context(), AccountKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isWhitelisted 判断路径是否在白名单中
func (m *APIKeyAuthMiddleware) isWhitelisted(path string) bool {
	for _, prefix := range m.whitelistPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractAPIKey 从请求头中提取API密钥
func extractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// AccountFromContext 从请求上下文中取出已认证账户
func AccountFromContext(ctx context.Context) *models.Account {
	account, ok := ctx.Value(AccountKey).(*models.Account)
	if !ok {
		return nil
	}
	return account
}
