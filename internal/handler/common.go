// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"campus-smart-go/internal/model"

	"github.com/gin-gonic/gin"
)

// currentUser 从 Gin 上下文中取出认证中间件存入的用户对象，缺失时返回 nil。
func currentUser(c *gin.Context) *model.User {
	value, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}
