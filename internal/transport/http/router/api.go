package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"checklist-api/internal/core/auth"
	"checklist-api/internal/core/config"
	"checklist-api/internal/core/server"
	mdw "checklist-api/internal/transport/http/middleware"
)

// Deps 两个引擎共用的依赖，全部由 main 显式注入
type Deps struct {
	Log      *zap.Logger
	JWT      *auth.JWTer
	Sessions mdw.SessionLoader
	Limits   config.Limits
}

// base 公共中间件链 + /health + /metrics
func base(d Deps, perIP bool) *gin.Engine {
	r := server.NewRouter(d.Log)
	l := d.Limits
	chain := []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(l.RPS), l.Burst),
	}
	if perIP {
		chain = append(chain, mdw.RateLimitPerIP(rate.Limit(l.PerIPRPS), l.PerIPBurst))
	}
	chain = append(chain,
		mdw.ConcurrencyLimit(l.MaxConcurrent),
		mdw.MaxBodyBytes(l.MaxBodyBytes),
		mdw.Timeout(time.Duration(l.RequestTimeout)*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)
	r.Use(chain...)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func NewAPIEngine(d Deps, mods ...APIModule) *gin.Engine {
	r := base(d, true)

	api := r.Group("/api/v1")
	authed := api.Group("")
	authed.Use(mdw.Authenticate(d.JWT, d.Sessions, "", d.Log))

	for _, m := range byPriority(mods) {
		m.MountAPI(api, authed)
	}
	return r
}
