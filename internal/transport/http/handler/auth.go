package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"checklist-api/internal/controller"
	"checklist-api/internal/core/auth"
	"checklist-api/internal/domain"
	"checklist-api/internal/transport/http/ez"
	mdw "checklist-api/internal/transport/http/middleware"
	"checklist-api/pkg/utils"
)

// SessionStore 登录写入、登出销毁
type SessionStore interface {
	Save(ctx context.Context, u *domain.User) (string, error)
	Destroy(ctx context.Context, sid string) error
}

// AuthHandler /auth/register、/auth/login（公共）；/auth/logout、/me（鉴权）
type AuthHandler struct {
	Strategy *auth.LocalStrategy
	Users    *controller.UserController
	Sessions SessionStore
	JWT      *auth.JWTer
}

func (AuthHandler) Priority() int { return 10 }

type credentials struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginOut struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h AuthHandler) MountAPI(public, authed *gin.RouterGroup) {
	pub, priv := ez.New(public), ez.New(authed)

	ez.RegisterAction(pub, ez.Action[credentials, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/auth/register",
		Binder:  ez.BindJSON,
		Handler: h.register,
	})
	ez.RegisterAction(pub, ez.Action[credentials, loginOut]{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Binder:  ez.BindJSON,
		Handler: h.login,
	})
	ez.RegisterAction(priv, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.Sessions.Destroy(c.Request.Context(), c.GetString(mdw.KeySID)); err != nil {
				return nil, ez.Internal("logout failed", err)
			}
			return gin.H{"ok": true}, nil
		},
	})
	ez.RegisterAction(priv, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return mdw.CurrentUser(c), nil
		},
	})
}

func (h AuthHandler) register(c *gin.Context, in *credentials) (*domain.User, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, ez.Internal("hash password failed", err)
	}
	u, err := h.Users.AddNewUser(c.Request.Context(),
		&domain.User{Username: strings.TrimSpace(in.Username), PasswordHash: hash, Role: domain.RoleUser})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, ez.BadRequest("username already taken")
	}
	return u, err
}

func (h AuthHandler) login(c *gin.Context, in *credentials) (loginOut, error) {
	ctx := c.Request.Context()
	v, err := h.Strategy.Verify(ctx, strings.TrimSpace(in.Username), in.Password)
	if err != nil {
		return loginOut{}, err
	}
	if !v.OK() {
		return loginOut{}, ez.Unauthorized(v.Message)
	}
	sid, err := h.Sessions.Save(ctx, v.User)
	if err != nil {
		return loginOut{}, ez.Internal("create session failed", err)
	}
	tok, err := h.JWT.Issue(v.User.ID, v.User.Role, sid)
	if err != nil {
		return loginOut{}, ez.Internal("issue token failed", err)
	}
	return loginOut{Token: tok, User: v.User}, nil
}
