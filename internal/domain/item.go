package domain

import (
	"context"
	"time"
)

type Item struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	ChecklistID string `gorm:"size:36;not null;index" json:"checklist"`
	Text        string `gorm:"size:512" json:"text"`
	IsChecked   bool   `gorm:"not null;default:false" json:"isChecked"`
	IsActive    bool   `gorm:"not null" json:"isActive"`

	Created      time.Time  `gorm:"not null" json:"created"`
	Modified     *time.Time `json:"modified"`
	CreatedByID  string     `gorm:"size:36" json:"createdBy"`
	ModifiedByID *string    `gorm:"size:36" json:"modifiedBy"`
}

func (Item) TableName() string { return "items" }

type ItemPatch struct {
	Text       *string
	IsChecked  *bool
	IsActive   *bool
	Modified   *time.Time
	ModifiedBy *string
}

func (p ItemPatch) Fields() map[string]any {
	f := map[string]any{}
	if p.Text != nil {
		f["text"] = *p.Text
	}
	if p.IsChecked != nil {
		f["is_checked"] = *p.IsChecked
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

// ItemRepository 写操作都限定在所属 checklist 内
type ItemRepository interface {
	Insert(ctx context.Context, it *Item) (*Item, error)
	FindByID(ctx context.Context, id string) (*Item, error)
	FindAllByChecklist(ctx context.Context, checklistID string) ([]Item, error)
	Update(ctx context.Context, checklistID, id string, p ItemPatch) (*Item, error)
	Delete(ctx context.Context, checklistID, id string) (*Item, error)
}
