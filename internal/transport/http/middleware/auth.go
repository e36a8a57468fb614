package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checklist-api/internal/core/auth"
	"checklist-api/internal/core/session"
	"checklist-api/internal/domain"
	resp "checklist-api/internal/transport/http/response"
)

// gin 上下文键
const (
	KeyUser   = "user"
	KeyUserID = "userId"
	KeyRole   = "role"
	KeySID    = "sid"
)

type SessionLoader interface {
	Load(ctx context.Context, sid string) (*domain.User, error)
}

// Authenticate 鉴权闸门：Bearer token（websocket 可用 ?token=）→ claims → 会话中的用户记录。
// requireRole 非空时要求会话用户具备该角色
func Authenticate(j *auth.JWTer, sessions SessionLoader, requireRole string, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		u, err := sessions.Load(c.Request.Context(), claims.SID)
		switch {
		case errors.Is(err, session.ErrNoSession):
			resp.Abort(c, resp.CodeUnauthorized, "session expired")
			return
		case err != nil:
			l.Error("session load failed", zap.String("sid", claims.SID), zap.Error(err))
			resp.Abort(c, resp.CodeServerError, "")
			return
		}
		if u.ID != claims.UID {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		if requireRole != "" && u.Role != requireRole {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Set(KeyUser, u)
		c.Set(KeyUserID, u.ID)
		c.Set(KeyRole, u.Role)
		c.Set(KeySID, claims.SID)
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimPrefix(ah, "Bearer ")
	}
	return c.Query("token")
}

// CurrentUser 鉴权分组内取当前用户
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(KeyUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
