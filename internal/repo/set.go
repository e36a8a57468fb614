package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"checklist-api/internal/domain"
)

// Set 三个实体仓储，按存储后端组装
type Set struct {
	Users      domain.UserRepository
	Checklists domain.ChecklistRepository
	Items      domain.ItemRepository
}

func NewGormSet(db *gorm.DB, l *zap.Logger) Set {
	return Set{
		Users:      NewUserRepo(db, l),
		Checklists: NewChecklistRepo(db, l),
		Items:      NewItemRepo(db, l),
	}
}

// Migrate 建表；成员关系使用自定义关联表
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&domain.Checklist{}, "Users", &domain.ChecklistUser{}); err != nil {
		return err
	}
	return db.AutoMigrate(&domain.User{}, &domain.Checklist{}, &domain.ChecklistUser{}, &domain.Item{})
}

const (
	colUsers      = "users"
	colChecklists = "checklists"
	colItems      = "items"
)

func NewMongoSet(db *mongo.Database, l *zap.Logger) Set {
	return Set{
		Users:      NewMongoUserRepo(db, l),
		Checklists: NewMongoChecklistRepo(db, l),
		Items:      NewMongoItemRepo(db, l),
	}
}

// EnsureIndexes 文档库的唯一索引/查询索引
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(colUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := db.Collection(colChecklists).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "users", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := db.Collection(colItems).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "checklist", Value: 1}, {Key: "created", Value: 1}},
	})
	return err
}
