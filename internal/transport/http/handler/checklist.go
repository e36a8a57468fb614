package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checklist-api/internal/controller"
	"checklist-api/internal/domain"
	"checklist-api/internal/transport/http/ez"
	mdw "checklist-api/internal/transport/http/middleware"
	"checklist-api/internal/transport/ws"
)

// Publisher 变更事件出口；members 为空时由实现方在请求之外查询成员
type Publisher interface {
	Publish(ctx context.Context, ev ws.Event, members ...string)
}

// ChecklistHandler 清单与条目路由，全部挂在鉴权分组下。
// 审计字段在这里由当前用户填写，控制器原样透传
type ChecklistHandler struct {
	Checklists *controller.ChecklistController
	Items      *controller.ItemController
	Users      *controller.UserController
	Events     Publisher
}

type checklistFields struct {
	Name     *string  `json:"name" binding:"omitempty,max=191"`
	IsActive *bool    `json:"isActive"`
	Users    []string `json:"users"` // 成员 id
}

type checklistBody struct {
	Checklist *checklistFields `json:"checklist" binding:"required"`
}

type itemFields struct {
	Text      *string `json:"text"`
	IsChecked *bool   `json:"isChecked"`
	IsActive  *bool   `json:"isActive"`
}

type itemBody struct {
	Item *itemFields `json:"item" binding:"required"`
}

func stamp() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func (h ChecklistHandler) publish(c *gin.Context, typ, checklistID string, data any, members ...string) {
	if h.Events == nil {
		return
	}
	h.Events.Publish(c.Request.Context(), ws.Event{Type: typ, ChecklistID: checklistID, Data: data}, members...)
}

func (h ChecklistHandler) MountAPI(_, authed *gin.RouterGroup) {
	e := ez.New(authed)

	ez.RegisterAction(e, ez.Action[checklistBody, *domain.Checklist]{
		Method: http.MethodPost, Path: "/checklist", Binder: ez.BindJSON, Handler: h.addChecklist,
	})
	ez.RegisterAction(e, ez.Action[checklistBody, *domain.Checklist]{
		Method: http.MethodPatch, Path: "/checklist/:id", Binder: ez.BindJSON, Handler: h.updateChecklist,
	})
	ez.RegisterAction(e, ez.Action[itemBody, *domain.Item]{
		Method: http.MethodPut, Path: "/checklist/:id/item", Binder: ez.BindJSON, Handler: h.addItem,
	})
	ez.RegisterAction(e, ez.Action[itemBody, *domain.Item]{
		Method: http.MethodPatch, Path: "/checklist/:id/item/:itemId", Binder: ez.BindJSON, Handler: h.updateItem,
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Item]{
		Method: http.MethodDelete, Path: "/checklist/:id/item/:itemId", Binder: ez.BindNone, Handler: h.deleteItem,
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Checklist]{
		Method: http.MethodDelete, Path: "/checklist/:id", Binder: ez.BindNone, Handler: h.deleteChecklist,
	})

	// 读接口
	ez.RegisterAction(e, ez.Action[struct{}, []domain.Checklist]{
		Method: http.MethodGet, Path: "/checklist", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Checklist, error) {
			return h.Checklists.GetAllChecklists(c.Request.Context(), c.GetString(mdw.KeyUserID))
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Checklist]{
		Method: http.MethodGet, Path: "/checklist/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Checklist, error) {
			return h.Checklists.GetChecklistByID(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, []domain.Item]{
		Method: http.MethodGet, Path: "/checklist/:id/item", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Item, error) {
			return h.Items.GetAllItems(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, *domain.Item]{
		Method: http.MethodGet, Path: "/checklist/:id/item/:itemId", Binder: ez.BindNone, Handler: h.getItem,
	})
	ez.RegisterAction(e, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet, Path: "/checklist/:id/users", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			return h.Users.GetAllUsersByChecklistID(c.Request.Context(), c.Param("id"))
		},
	})
}

// addChecklist 创建者自动成为成员；isActive 缺省为 true
func (h ChecklistHandler) addChecklist(c *gin.Context, in *checklistBody) (*domain.Checklist, error) {
	f := in.Checklist
	if f.Name == nil || *f.Name == "" {
		return nil, ez.BadRequest("checklist.name is required")
	}
	uid := c.GetString(mdw.KeyUserID)
	cl := &domain.Checklist{
		Name:        *f.Name,
		Users:       domain.UserRefs(append([]string{uid}, f.Users...)),
		IsActive:    true,
		CreatedByID: uid,
	}
	if f.IsActive != nil {
		cl.IsActive = *f.IsActive
	}
	out, err := h.Checklists.AddNewChecklist(c.Request.Context(), cl)
	if err != nil {
		return nil, err
	}
	h.publish(c, ws.ChecklistCreated, out.ID, out, out.UserIDs()...)
	return out, nil
}

func (h ChecklistHandler) updateChecklist(c *gin.Context, in *checklistBody) (*domain.Checklist, error) {
	uid := c.GetString(mdw.KeyUserID)
	now := stamp()
	f := in.Checklist
	p := domain.ChecklistPatch{
		Name:       f.Name,
		IsActive:   f.IsActive,
		Modified:   &now,
		ModifiedBy: &uid,
	}
	if f.Users != nil {
		p.Users = domain.UniqueIDs(f.Users)
	}
	out, err := h.Checklists.UpdateChecklist(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		return nil, err
	}
	h.publish(c, ws.ChecklistUpdated, out.ID, out, out.UserIDs()...)
	return out, nil
}

func (h ChecklistHandler) deleteChecklist(c *gin.Context, _ *struct{}) (*domain.Checklist, error) {
	prior, err := h.Checklists.DeleteChecklistByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	// 清单已不存在，成员取删除前的快照
	h.publish(c, ws.ChecklistDeleted, prior.ID, prior, prior.UserIDs()...)
	return prior, nil
}

func (h ChecklistHandler) addItem(c *gin.Context, in *itemBody) (*domain.Item, error) {
	f := in.Item
	if f.Text == nil {
		return nil, ez.BadRequest("item.text is required")
	}
	it := &domain.Item{
		ChecklistID: c.Param("id"),
		Text:        *f.Text,
		IsActive:    true,
		CreatedByID: c.GetString(mdw.KeyUserID),
	}
	if f.IsChecked != nil {
		it.IsChecked = *f.IsChecked
	}
	if f.IsActive != nil {
		it.IsActive = *f.IsActive
	}
	out, err := h.Items.AddItemToChecklist(c.Request.Context(), it)
	if err != nil {
		return nil, err
	}
	h.publish(c, ws.ItemAdded, out.ChecklistID, out)
	return out, nil
}

func (h ChecklistHandler) updateItem(c *gin.Context, in *itemBody) (*domain.Item, error) {
	uid := c.GetString(mdw.KeyUserID)
	now := stamp()
	f := in.Item
	out, err := h.Items.UpdateItemInChecklist(c.Request.Context(), c.Param("id"), c.Param("itemId"), domain.ItemPatch{
		Text:       f.Text,
		IsChecked:  f.IsChecked,
		IsActive:   f.IsActive,
		Modified:   &now,
		ModifiedBy: &uid,
	})
	if err != nil {
		return nil, err
	}
	h.publish(c, ws.ItemUpdated, out.ChecklistID, out)
	return out, nil
}

func (h ChecklistHandler) deleteItem(c *gin.Context, _ *struct{}) (*domain.Item, error) {
	out, err := h.Items.DeleteItemFromChecklist(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		return nil, err
	}
	h.publish(c, ws.ItemDeleted, out.ChecklistID, out)
	return out, nil
}

// getItem 条目不属于该清单时同样视为不存在
func (h ChecklistHandler) getItem(c *gin.Context, _ *struct{}) (*domain.Item, error) {
	id := c.Param("itemId")
	it, err := h.Items.GetItemByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if it.ChecklistID != c.Param("id") {
		return nil, domain.NotFound("item", "findById", id)
	}
	return it, nil
}

// MembersOf 供 ws.Hub 查询清单成员
func MembersOf(checklists *controller.ChecklistController) ws.MemberLookup {
	return func(ctx context.Context, checklistID string) ([]string, error) {
		cl, err := checklists.GetChecklistByID(ctx, checklistID)
		if err != nil {
			return nil, err
		}
		return cl.UserIDs(), nil
	}
}
