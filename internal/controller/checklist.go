// Package controller 控制器层：每个方法只调用一次仓储，结果与错误原样返回。
// 审计字段（createdBy/modified/modifiedBy）由调用方（路由处理器）填写。
package controller

import (
	"context"

	"checklist-api/internal/domain"
)

type ChecklistController struct {
	repo domain.ChecklistRepository
}

func NewChecklistController(repo domain.ChecklistRepository) *ChecklistController {
	return &ChecklistController{repo: repo}
}

func (c *ChecklistController) AddNewChecklist(ctx context.Context, in *domain.Checklist) (*domain.Checklist, error) {
	return c.repo.Insert(ctx, in)
}

func (c *ChecklistController) GetChecklistByID(ctx context.Context, id string) (*domain.Checklist, error) {
	return c.repo.FindByID(ctx, id)
}

// GetAllChecklists userID 为成员的全部清单
func (c *ChecklistController) GetAllChecklists(ctx context.Context, userID string) ([]domain.Checklist, error) {
	return c.repo.FindAllByUser(ctx, userID)
}

func (c *ChecklistController) UpdateChecklist(ctx context.Context, id string, p domain.ChecklistPatch) (*domain.Checklist, error) {
	return c.repo.Update(ctx, id, p)
}

func (c *ChecklistController) DeleteChecklistByID(ctx context.Context, id string) (*domain.Checklist, error) {
	return c.repo.Delete(ctx, id)
}
