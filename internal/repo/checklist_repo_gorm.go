package repo

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"checklist-api/internal/domain"
	"checklist-api/pkg/utils"
)

type ChecklistRepo struct{ c crud[domain.Checklist] }

func NewChecklistRepo(db *gorm.DB, l *zap.Logger) *ChecklistRepo {
	return &ChecklistRepo{c: newCrud[domain.Checklist](db, l, "checklist", "Items", "Users", "CreatedBy", "ModifiedBy")}
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// Insert created 由服务端设置；Items 忽略（条目只能通过 ItemRepo 加入）
func (r *ChecklistRepo) Insert(ctx context.Context, c *domain.Checklist) (*domain.Checklist, error) {
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	c.Created = now()
	members := c.UserIDs()
	return r.c.insert(ctx, c.ID, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		return setMembers(tx, c.ID, members)
	})
}

func (r *ChecklistRepo) FindByID(ctx context.Context, id string) (*domain.Checklist, error) {
	return r.c.findByID(ctx, id)
}

func (r *ChecklistRepo) FindAllByUser(ctx context.Context, userID string) ([]domain.Checklist, error) {
	return r.c.findAll(ctx, userID, func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN checklist_users ON checklist_users.checklist_id = checklists.id").
			Where("checklist_users.user_id = ?", userID).
			Order("checklists.created")
	})
}

func (r *ChecklistRepo) Update(ctx context.Context, id string, p domain.ChecklistPatch) (*domain.Checklist, error) {
	var extra func(tx *gorm.DB) error
	if p.Users != nil {
		extra = func(tx *gorm.DB) error {
			if err := tx.Where("checklist_id = ?", id).Delete(&domain.ChecklistUser{}).Error; err != nil {
				return err
			}
			return setMembers(tx, id, p.Users)
		}
	}
	return r.c.update(ctx, id, p.Fields(), extra)
}

// Delete 同一事务内删除条目、成员关系和清单本身
func (r *ChecklistRepo) Delete(ctx context.Context, id string) (*domain.Checklist, error) {
	return r.c.delete(ctx, id, func(tx *gorm.DB) error {
		if err := tx.Where("checklist_id = ?", id).Delete(&domain.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("checklist_id = ?", id).Delete(&domain.ChecklistUser{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Checklist{}).Error
	})
}

func setMembers(tx *gorm.DB, checklistID string, userIDs []string) error {
	ids := domain.UniqueIDs(userIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]domain.ChecklistUser, 0, len(ids))
	for _, uid := range ids {
		rows = append(rows, domain.ChecklistUser{ChecklistID: checklistID, UserID: uid})
	}
	return tx.Create(&rows).Error
}
