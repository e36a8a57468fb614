package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"checklist-api/internal/domain"
	"checklist-api/pkg/utils"
)

type MongoChecklistRepo struct {
	c     mongoCRUD[checklistView]
	items *mongo.Collection
}

func NewMongoChecklistRepo(db *mongo.Database, l *zap.Logger) *MongoChecklistRepo {
	return &MongoChecklistRepo{
		c: newMongoCRUD[checklistView](db.Collection(colChecklists), l, "checklist",
			lookup(colItems, "items", "itemDocs"),
			lookup(colUsers, "users", "userDocs"),
			lookup(colUsers, "createdBy", "createdByDocs"),
			lookup(colUsers, "modifiedBy", "modifiedByDocs"),
		),
		items: db.Collection(colItems),
	}
}

func checklistOut(v *checklistView, err error) (*domain.Checklist, error) {
	if err != nil {
		return nil, err
	}
	c := v.toDomain()
	return &c, nil
}

func (r *MongoChecklistRepo) Insert(ctx context.Context, c *domain.Checklist) (*domain.Checklist, error) {
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	c.Created = now()
	c.Items = nil
	c.Users = domain.UserRefs(c.UserIDs())
	doc := checklistDocOf(c)
	return checklistOut(r.c.insert(ctx, c.ID, func(ctx context.Context) error {
		_, err := r.c.coll.InsertOne(ctx, doc)
		return err
	}))
}

func (r *MongoChecklistRepo) FindByID(ctx context.Context, id string) (*domain.Checklist, error) {
	return checklistOut(r.c.findOne(ctx, "findById", id, bson.M{"_id": id}))
}

func (r *MongoChecklistRepo) FindAllByUser(ctx context.Context, userID string) ([]domain.Checklist, error) {
	views, err := r.c.findAll(ctx, userID, bson.M{"users": userID}, bson.D{{Key: "created", Value: 1}})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Checklist, 0, len(views))
	for _, v := range views {
		out = append(out, v.toDomain())
	}
	return out, nil
}

func (r *MongoChecklistRepo) Update(ctx context.Context, id string, p domain.ChecklistPatch) (*domain.Checklist, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	if p.Users != nil {
		set["users"] = domain.UniqueIDs(p.Users)
	}
	if p.Modified != nil {
		set["modified"] = *p.Modified
	}
	if p.ModifiedBy != nil {
		set["modifiedBy"] = *p.ModifiedBy
	}
	return checklistOut(r.c.update(ctx, id, bson.M{"_id": id}, set))
}

// Delete 删除清单后再删除其条目（两次单文档写，不在同一事务）
func (r *MongoChecklistRepo) Delete(ctx context.Context, id string) (*domain.Checklist, error) {
	return checklistOut(r.c.delete(ctx, id, bson.M{"_id": id}, func(ctx context.Context) error {
		_, err := r.items.DeleteMany(ctx, bson.M{"checklist": id})
		return err
	}))
}
