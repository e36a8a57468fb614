package handler

import (
	"github.com/gin-gonic/gin"

	"checklist-api/internal/transport/http/ez"
	mdw "checklist-api/internal/transport/http/middleware"
	"checklist-api/internal/transport/ws"
)

// WSHandler GET /ws；浏览器无法设置 Authorization 头，可用 ?token=
type WSHandler struct {
	Hub *ws.Hub
}

func (WSHandler) Priority() int { return 200 }

func (h WSHandler) MountAPI(_, authed *gin.RouterGroup) {
	authed.GET("/ws", func(c *gin.Context) {
		if err := h.Hub.Serve(c.Writer, c.Request, c.GetString(mdw.KeyUserID)); err != nil {
			// Upgrade 失败时已写出 HTTP 错误
			_ = c.Error(ez.BadRequest(err.Error()))
		}
	})
}
