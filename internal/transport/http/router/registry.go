package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule public 为 /api/v1，authed 为其下的鉴权分组
type APIModule interface {
	MountAPI(public, authed *gin.RouterGroup)
}

// AdminModule admin 为 /admin/v1（已要求 admin 角色）
type AdminModule interface {
	MountAdmin(admin *gin.RouterGroup)
}

// 可选：控制挂载顺序（数值越小越先挂），不实现默认 100
type prioritizer interface{ Priority() int }

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}

func byPriority[M any](mods []M) []M {
	out := append([]M(nil), mods...)
	sort.SliceStable(out, func(i, j int) bool { return priorityOf(out[i]) < priorityOf(out[j]) })
	return out
}
