package repo

import (
	"sort"
	"time"

	"checklist-api/internal/domain"
)

// 文档库中的存储形态：引用只存 id，读取时 $lookup 成 *Docs 字段

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"passwordHash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func userDocOf(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type itemDoc struct {
	ID         string     `bson:"_id"`
	Checklist  string     `bson:"checklist"`
	Text       string     `bson:"text"`
	IsChecked  bool       `bson:"isChecked"`
	IsActive   bool       `bson:"isActive"`
	Created    time.Time  `bson:"created"`
	Modified   *time.Time `bson:"modified,omitempty"`
	CreatedBy  string     `bson:"createdBy"`
	ModifiedBy *string    `bson:"modifiedBy,omitempty"`
}

func (d itemDoc) toDomain() domain.Item {
	return domain.Item{
		ID:           d.ID,
		ChecklistID:  d.Checklist,
		Text:         d.Text,
		IsChecked:    d.IsChecked,
		IsActive:     d.IsActive,
		Created:      d.Created,
		Modified:     d.Modified,
		CreatedByID:  d.CreatedBy,
		ModifiedByID: d.ModifiedBy,
	}
}

func itemDocOf(it *domain.Item) itemDoc {
	return itemDoc{
		ID:         it.ID,
		Checklist:  it.ChecklistID,
		Text:       it.Text,
		IsChecked:  it.IsChecked,
		IsActive:   it.IsActive,
		Created:    it.Created,
		Modified:   it.Modified,
		CreatedBy:  it.CreatedByID,
		ModifiedBy: it.ModifiedByID,
	}
}

// ChecklistDoc 需导出：bson 编解码器会跳过未导出类型的内嵌字段
type ChecklistDoc struct {
	ID         string     `bson:"_id"`
	Name       string     `bson:"name"`
	Items      []string   `bson:"items"`
	Users      []string   `bson:"users"`
	IsActive   bool       `bson:"isActive"`
	Created    time.Time  `bson:"created"`
	Modified   *time.Time `bson:"modified,omitempty"`
	CreatedBy  string     `bson:"createdBy"`
	ModifiedBy *string    `bson:"modifiedBy,omitempty"`
}

// checklistView 聚合读取的结果（已 populate）
type checklistView struct {
	ChecklistDoc   `bson:",inline"`
	ItemDocs       []itemDoc `bson:"itemDocs"`
	UserDocs       []userDoc `bson:"userDocs"`
	CreatedByDocs  []userDoc `bson:"createdByDocs"`
	ModifiedByDocs []userDoc `bson:"modifiedByDocs"`
}

func (v checklistView) toDomain() domain.Checklist {
	c := domain.Checklist{
		ID:           v.ID,
		Name:         v.Name,
		Items:        make([]domain.Item, 0, len(v.ItemDocs)),
		Users:        make([]domain.User, 0, len(v.UserDocs)),
		IsActive:     v.IsActive,
		Created:      v.Created,
		Modified:     v.Modified,
		CreatedByID:  v.CreatedBy,
		ModifiedByID: v.ModifiedBy,
	}
	for _, d := range v.ItemDocs {
		c.Items = append(c.Items, d.toDomain())
	}
	sort.SliceStable(c.Items, func(i, j int) bool { return c.Items[i].Created.Before(c.Items[j].Created) })
	for _, d := range v.UserDocs {
		c.Users = append(c.Users, d.toDomain())
	}
	if len(v.CreatedByDocs) > 0 {
		u := v.CreatedByDocs[0].toDomain()
		c.CreatedBy = &u
	}
	if len(v.ModifiedByDocs) > 0 {
		u := v.ModifiedByDocs[0].toDomain()
		c.ModifiedBy = &u
	}
	return c
}

func checklistDocOf(c *domain.Checklist) ChecklistDoc {
	items := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, it.ID)
	}
	return ChecklistDoc{
		ID:         c.ID,
		Name:       c.Name,
		Items:      items,
		Users:      c.UserIDs(),
		IsActive:   c.IsActive,
		Created:    c.Created,
		Modified:   c.Modified,
		CreatedBy:  c.CreatedByID,
		ModifiedBy: c.ModifiedByID,
	}
}
