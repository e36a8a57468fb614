package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"checklist-api/internal/domain"
	"checklist-api/pkg/utils"
)

type MongoItemRepo struct {
	c          mongoCRUD[itemDoc]
	checklists *mongo.Collection
}

func NewMongoItemRepo(db *mongo.Database, l *zap.Logger) *MongoItemRepo {
	return &MongoItemRepo{
		c:          newMongoCRUD[itemDoc](db.Collection(colItems), l, "item"),
		checklists: db.Collection(colChecklists),
	}
}

func itemOut(d *itemDoc, err error) (*domain.Item, error) {
	if err != nil {
		return nil, err
	}
	it := d.toDomain()
	return &it, nil
}

// Insert 写入条目并把 id 加入所属清单的 items；清单不存在则删除条目并返回清单的 NotFound
func (r *MongoItemRepo) Insert(ctx context.Context, it *domain.Item) (*domain.Item, error) {
	if it.ID == "" {
		it.ID = utils.NewID()
	}
	it.Created = now()
	doc := itemDocOf(it)
	return itemOut(r.c.insert(ctx, it.ID, func(ctx context.Context) error {
		if _, err := r.c.coll.InsertOne(ctx, doc); err != nil {
			return err
		}
		res, err := r.checklists.UpdateOne(ctx,
			bson.M{"_id": it.ChecklistID},
			bson.M{"$addToSet": bson.M{"items": it.ID}})
		if err == nil && res.MatchedCount == 0 {
			err = domain.NotFound("checklist", "findById", it.ChecklistID)
		}
		if err != nil {
			r.c.compensate("insert", it.ID, func() error {
				_, derr := r.c.coll.DeleteOne(ctx, bson.M{"_id": it.ID})
				return derr
			}, zap.String("checklist", it.ChecklistID))
			return err
		}
		return nil
	}))
}

func (r *MongoItemRepo) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	return itemOut(r.c.findOne(ctx, "findById", id, bson.M{"_id": id}))
}

func (r *MongoItemRepo) FindAllByChecklist(ctx context.Context, checklistID string) ([]domain.Item, error) {
	docs, err := r.c.findAll(ctx, checklistID, bson.M{"checklist": checklistID}, bson.D{{Key: "created", Value: 1}})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Item, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoItemRepo) Update(ctx context.Context, checklistID, id string, p domain.ItemPatch) (*domain.Item, error) {
	set := bson.M{}
	if p.Text != nil {
		set["text"] = *p.Text
	}
	if p.IsChecked != nil {
		set["isChecked"] = *p.IsChecked
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	if p.Modified != nil {
		set["modified"] = *p.Modified
	}
	if p.ModifiedBy != nil {
		set["modifiedBy"] = *p.ModifiedBy
	}
	return itemOut(r.c.update(ctx, id, byID(id, bson.M{"checklist": checklistID}), set))
}

func (r *MongoItemRepo) Delete(ctx context.Context, checklistID, id string) (*domain.Item, error) {
	return itemOut(r.c.delete(ctx, id, byID(id, bson.M{"checklist": checklistID}), func(ctx context.Context) error {
		_, err := r.checklists.UpdateOne(ctx, bson.M{"_id": checklistID}, bson.M{"$pull": bson.M{"items": id}})
		return err
	}))
}
