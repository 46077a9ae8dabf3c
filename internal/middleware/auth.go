package middleware

import (
	"strings"

	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验 Bearer JWT；WebSocket 无法设置请求头，允许 ?token= 传入
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.String("path", c.FullPath()), zap.Error(err))
			util.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// CurrentUserID 取已认证用户 ID，未认证时返回 false 并写入 401
func CurrentUserID(c *gin.Context) (uint, bool) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return 0, false
	}
	return claims.UserID, true
}
