// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, handlers Handlers) {
	// 问答
	v1.POST("/chat", handlers.Chat.Chat)

	// 会话管理
	sessions := v1.Group("/sessions")
	{
		sessions.POST("", handlers.Session.Create)
		sessions.GET("/:id", handlers.Session.Get)
		sessions.DELETE("/:id", handlers.Session.Delete)
	}

	// 索引统计
	v1.GET("/stats", handlers.Stats.Stats)
}
