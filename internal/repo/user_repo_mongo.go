package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"checklist-api/internal/domain"
	"checklist-api/pkg/utils"
)

type MongoUserRepo struct {
	c          mongoCRUD[userDoc]
	checklists *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database, l *zap.Logger) *MongoUserRepo {
	return &MongoUserRepo{
		c:          newMongoCRUD[userDoc](db.Collection(colUsers), l, "user"),
		checklists: db.Collection(colChecklists),
	}
}

func userOut(d *userDoc, err error) (*domain.User, error) {
	if err != nil {
		return nil, err
	}
	u := d.toDomain()
	return &u, nil
}

func (r *MongoUserRepo) Insert(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	t := now()
	u.CreatedAt, u.UpdatedAt = t, t
	doc := userDocOf(u)
	return userOut(r.c.insert(ctx, u.ID, func(ctx context.Context) error {
		_, err := r.c.coll.InsertOne(ctx, doc)
		return err
	}))
}

func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return userOut(r.c.findOne(ctx, "findById", id, bson.M{"_id": id}))
}

func (r *MongoUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return userOut(r.c.findOne(ctx, "findByUsername", username, bson.M{"username": username}))
}

func (r *MongoUserRepo) FindAllByChecklist(ctx context.Context, checklistID string) ([]domain.User, error) {
	var members struct {
		Users []string `bson:"users"`
	}
	err := r.checklists.FindOne(ctx, bson.M{"_id": checklistID}).Decode(&members)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		r.c.done("findAll", checklistID, err)
		return nil, domain.Persistence("user", "findAll", checklistID, err)
	}
	if members.Users == nil {
		members.Users = []string{}
	}
	docs, err := r.c.findAll(ctx, checklistID, bson.M{"_id": bson.M{"$in": members.Users}}, bson.D{{Key: "username", Value: 1}})
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *MongoUserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	set := bson.M{"updatedAt": now()}
	if p.PasswordHash != nil {
		set["passwordHash"] = *p.PasswordHash
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	return userOut(r.c.update(ctx, id, bson.M{"_id": id}, set))
}

// Delete 同时从所有清单的成员列表中移除
func (r *MongoUserRepo) Delete(ctx context.Context, id string) (*domain.User, error) {
	return userOut(r.c.delete(ctx, id, bson.M{"_id": id}, func(ctx context.Context) error {
		_, err := r.checklists.UpdateMany(ctx, bson.M{"users": id}, bson.M{"$pull": bson.M{"users": id}})
		return err
	}))
}
