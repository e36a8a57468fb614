package controller

import (
	"context"

	"checklist-api/internal/domain"
)

type ItemController struct {
	repo domain.ItemRepository
}

func NewItemController(repo domain.ItemRepository) *ItemController {
	return &ItemController{repo: repo}
}

// AddItemToChecklist in.ChecklistID 指定所属清单
func (c *ItemController) AddItemToChecklist(ctx context.Context, in *domain.Item) (*domain.Item, error) {
	return c.repo.Insert(ctx, in)
}

func (c *ItemController) GetItemByID(ctx context.Context, id string) (*domain.Item, error) {
	return c.repo.FindByID(ctx, id)
}

func (c *ItemController) GetAllItems(ctx context.Context, checklistID string) ([]domain.Item, error) {
	return c.repo.FindAllByChecklist(ctx, checklistID)
}

func (c *ItemController) UpdateItemInChecklist(ctx context.Context, checklistID, itemID string, p domain.ItemPatch) (*domain.Item, error) {
	return c.repo.Update(ctx, checklistID, itemID, p)
}

func (c *ItemController) DeleteItemFromChecklist(ctx context.Context, checklistID, itemID string) (*domain.Item, error) {
	return c.repo.Delete(ctx, checklistID, itemID)
}
