package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mid "QGuard/middleware"
	"QGuard/module/guard"
)

// Register 挂载只读状态接口。
// 观测用的外部旁路，不在消息处理链路上。
func Register(r *gin.Engine, eng *guard.Engine, secret []byte) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	opt := mid.RouteOpt{IsAuth: true, Secret: secret}
	mid.GET(r, "/status/group/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, eng.GroupStatus(c.Request.Context(), c.Param("id")))
	}, opt)
}
