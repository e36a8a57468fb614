package domain

import (
	"context"
	"time"
)

// Checklist 清单；Items/Users/CreatedBy/ModifiedBy 在读取时 populate
type Checklist struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Name     string `gorm:"size:191" json:"name"`
	Items    []Item `gorm:"foreignKey:ChecklistID" json:"items"`
	Users    []User `gorm:"many2many:checklist_users" json:"users"`
	IsActive bool   `gorm:"not null" json:"isActive"`

	Created  time.Time  `gorm:"not null" json:"created"`
	Modified *time.Time `json:"modified"`

	CreatedByID  string  `gorm:"size:36;not null" json:"-"`
	CreatedBy    *User   `gorm:"foreignKey:CreatedByID" json:"createdBy"`
	ModifiedByID *string `gorm:"size:36" json:"-"`
	ModifiedBy   *User   `gorm:"foreignKey:ModifiedByID" json:"modifiedBy"`
}

func (Checklist) TableName() string { return "checklists" }

// ChecklistUser 成员关系（many2many 关联表）
type ChecklistUser struct {
	ChecklistID string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"primaryKey;size:36"`
}

func (ChecklistUser) TableName() string { return "checklist_users" }

// UserIDs 成员 id 列表
func (c *Checklist) UserIDs() []string {
	ids := make([]string, 0, len(c.Users))
	for _, u := range c.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

// HasMember 判断 uid 是否为成员
func (c *Checklist) HasMember(uid string) bool {
	for _, u := range c.Users {
		if u.ID == uid {
			return true
		}
	}
	return false
}

// UniqueIDs 去空、去重，保持原顺序
func UniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UserRefs 把 id 转成仅含 ID 的引用（写入时只落关联关系）
func UserRefs(ids []string) []User {
	uniq := UniqueIDs(ids)
	out := make([]User, 0, len(uniq))
	for _, id := range uniq {
		out = append(out, User{ID: id})
	}
	return out
}

type ChecklistPatch struct {
	Name       *string
	IsActive   *bool
	Users      []string // nil 不修改；非 nil 整体替换成员
	Modified   *time.Time
	ModifiedBy *string
}

// Fields 只包含列字段；成员替换由仓储单独处理
func (p ChecklistPatch) Fields() map[string]any {
	f := map[string]any{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.IsActive != nil {
		f["is_active"] = *p.IsActive
	}
	if p.Modified != nil {
		f["modified"] = *p.Modified
	}
	if p.ModifiedBy != nil {
		f["modified_by_id"] = *p.ModifiedBy
	}
	return f
}

type ChecklistRepository interface {
	Insert(ctx context.Context, c *Checklist) (*Checklist, error)
	FindByID(ctx context.Context, id string) (*Checklist, error)
	FindAllByUser(ctx context.Context, userID string) ([]Checklist, error)
	Update(ctx context.Context, id string, p ChecklistPatch) (*Checklist, error)
	Delete(ctx context.Context, id string) (*Checklist, error)
}
