package domain

import (
	"context"
	"time"

	"checklist-api/pkg/utils"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:191;not null" json:"username"`
	PasswordHash string    `gorm:"size:191;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"` // "user"/"admin"
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// ValidPassword 校验明文密码与存储的 bcrypt 哈希
func (u *User) ValidPassword(pw string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return utils.CheckPassword(pw, u.PasswordHash)
}

// UserPatch 部分更新；nil 表示不修改
type UserPatch struct {
	PasswordHash *string
	Role         *string
}

func (p UserPatch) Fields() map[string]any {
	f := map[string]any{}
	if p.PasswordHash != nil {
		f["password_hash"] = *p.PasswordHash
	}
	if p.Role != nil {
		f["role"] = *p.Role
	}
	return f
}

type UserRepository interface {
	Insert(ctx context.Context, u *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAllByChecklist(ctx context.Context, checklistID string) ([]User, error)
	Update(ctx context.Context, id string, p UserPatch) (*User, error)
	Delete(ctx context.Context, id string) (*User, error)
}
