package repo

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"checklist-api/internal/domain"
	"checklist-api/pkg/utils"
)

type UserRepo struct{ c crud[domain.User] }

func NewUserRepo(db *gorm.DB, l *zap.Logger) *UserRepo {
	return &UserRepo{c: newCrud[domain.User](db, l, "user")}
}

func (r *UserRepo) Insert(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	return r.c.insert(ctx, u.ID, create(u))
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.c.findByID(ctx, id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (u *domain.User, err error) {
	defer func() { r.c.done("findByUsername", username, err) }()
	return r.c.findOne(ctx, "findByUsername", username, func(q *gorm.DB) *gorm.DB {
		return q.Where("username = ?", username)
	})
}

func (r *UserRepo) FindAllByChecklist(ctx context.Context, checklistID string) ([]domain.User, error) {
	return r.c.findAll(ctx, checklistID, func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN checklist_users ON checklist_users.user_id = users.id").
			Where("checklist_users.checklist_id = ?", checklistID).
			Order("users.username")
	})
}

func (r *UserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	return r.c.update(ctx, id, p.Fields(), nil)
}

// Delete 同时移除该用户的所有成员关系
func (r *UserRepo) Delete(ctx context.Context, id string) (*domain.User, error) {
	return r.c.delete(ctx, id, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.ChecklistUser{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.User{}).Error
	})
}
