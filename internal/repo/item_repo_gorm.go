package repo

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"checklist-api/internal/domain"
	"checklist-api/pkg/utils"
)

type ItemRepo struct{ c crud[domain.Item] }

func NewItemRepo(db *gorm.DB, l *zap.Logger) *ItemRepo {
	return &ItemRepo{c: newCrud[domain.Item](db, l, "item")}
}

func inChecklist(checklistID string) scopeFn {
	return func(q *gorm.DB) *gorm.DB { return q.Where("items.checklist_id = ?", checklistID) }
}

// Insert 所属清单不存在时返回清单的 NotFound
func (r *ItemRepo) Insert(ctx context.Context, it *domain.Item) (*domain.Item, error) {
	if it.ID == "" {
		it.ID = utils.NewID()
	}
	it.Created = now()
	return r.c.insert(ctx, it.ID, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Checklist{}).Where("id = ?", it.ChecklistID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound("checklist", "findById", it.ChecklistID)
		}
		return create(it)(tx)
	})
}

func (r *ItemRepo) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	return r.c.findByID(ctx, id)
}

func (r *ItemRepo) FindAllByChecklist(ctx context.Context, checklistID string) ([]domain.Item, error) {
	return r.c.findAll(ctx, checklistID, func(q *gorm.DB) *gorm.DB {
		return inChecklist(checklistID)(q).Order("items.created")
	})
}

func (r *ItemRepo) Update(ctx context.Context, checklistID, id string, p domain.ItemPatch) (*domain.Item, error) {
	return r.c.update(ctx, id, p.Fields(), nil, inChecklist(checklistID))
}

func (r *ItemRepo) Delete(ctx context.Context, checklistID, id string) (*domain.Item, error) {
	return r.c.delete(ctx, id, nil, inChecklist(checklistID))
}
