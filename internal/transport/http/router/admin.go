package router

import (
	"github.com/gin-gonic/gin"

	"checklist-api/internal/domain"
	mdw "checklist-api/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps, mods ...AdminModule) *gin.Engine {
	r := base(d, false)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.Authenticate(d.JWT, d.Sessions, domain.RoleAdmin, d.Log))

	for _, m := range byPriority(mods) {
		m.MountAdmin(admin)
	}
	return r
}
