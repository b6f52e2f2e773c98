package middleware

import (
	"net/http"
	"strings"

	"meal_coupon/internal/domain/user/model"
	"meal_coupon/pkg/response"
	"meal_coupon/pkg/utils"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// AuthMiddleware JWT认证中间件，token 由外部登录系统签发
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		// 将 userID 和 role 存入上下文
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// OperatorMiddleware 发券、外带审批需要运营人员及以上角色
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		roleInt, ok := role.(int)
		if !ok {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Invalid role format")
			c.Abort()
			return
		}

		if roleInt < model.RoleOperator {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Operator permission required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID 返回当前登录用户，未登录时为空
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// IsOperator 当前用户是否具有运营权限
func IsOperator(c *gin.Context) bool {
	role, ok := c.Get(ContextRole)
	if !ok {
		return false
	}
	roleInt, ok := role.(int)
	return ok && roleInt >= model.RoleOperator
}
