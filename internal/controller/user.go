package controller

import (
	"context"

	"checklist-api/internal/domain"
)

type UserController struct {
	repo domain.UserRepository
}

func NewUserController(repo domain.UserRepository) *UserController {
	return &UserController{repo: repo}
}

// AddNewUser 入参需已带密码哈希
func (c *UserController) AddNewUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	return c.repo.Insert(ctx, u)
}

func (c *UserController) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return c.repo.FindByID(ctx, id)
}

func (c *UserController) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return c.repo.FindByUsername(ctx, username)
}

func (c *UserController) GetAllUsersByChecklistID(ctx context.Context, checklistID string) ([]domain.User, error) {
	return c.repo.FindAllByChecklist(ctx, checklistID)
}

func (c *UserController) UpdateUser(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	return c.repo.Update(ctx, id, p)
}

func (c *UserController) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	return c.repo.Delete(ctx, id)
}
