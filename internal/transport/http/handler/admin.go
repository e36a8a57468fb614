package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"checklist-api/internal/controller"
	"checklist-api/internal/domain"
	"checklist-api/internal/transport/http/ez"
	"checklist-api/pkg/utils"
)

// AdminHandler 用户管理；分组已要求 admin 角色
type AdminHandler struct {
	Users *controller.UserController
}

type userQuery struct {
	Username string `form:"username" binding:"required"`
}

type userPatchIn struct {
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
}

func (h AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin)

	ez.RegisterAction(e, ez.Action[userQuery, *domain.User]{
		Method: http.MethodGet, Path: "/users", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *userQuery) (*domain.User, error) {
			return h.Users.GetUserByUsername(c.Request.Context(), in.Username)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet, Path: "/users/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.Users.GetUserByID(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[userPatchIn, *domain.User]{
		Method: http.MethodPatch, Path: "/users/:id", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *userPatchIn) (*domain.User, error) {
			p := domain.UserPatch{Role: in.Role}
			if in.Password != nil {
				hash, err := utils.HashPassword(*in.Password)
				if err != nil {
					return nil, ez.Internal("hash password failed", err)
				}
				p.PasswordHash = &hash
			}
			return h.Users.UpdateUser(c.Request.Context(), c.Param("id"), p)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.User]{
		Method: http.MethodDelete, Path: "/users/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.Users.DeleteUser(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet, Path: "/checklists/:id/users", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			return h.Users.GetAllUsersByChecklistID(c.Request.Context(), c.Param("id"))
		},
	})
}
