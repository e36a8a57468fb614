package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"checklist-api/internal/domain"
)

// mongoCRUD 文档库版本的通用 CRUD；populate 是追加在 $match 之后的 $lookup 阶段
type mongoCRUD[D any] struct {
	coll     *mongo.Collection
	populate mongo.Pipeline
	oplog
}

func newMongoCRUD[D any](coll *mongo.Collection, l *zap.Logger, entity string, populate ...bson.D) mongoCRUD[D] {
	if l == nil {
		l = zap.NewNop()
	}
	return mongoCRUD[D]{coll: coll, populate: populate, oplog: oplog{log: l, entity: entity}}
}

func lookup(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}

func byID(id string, extra bson.M) bson.M {
	f := bson.M{"_id": id}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

func (r *mongoCRUD[D]) findDocs(ctx context.Context, filter bson.M, sort bson.D, limit int64) ([]D, error) {
	var out []D
	if len(r.populate) == 0 {
		opts := options.Find()
		if len(sort) > 0 {
			opts.SetSort(sort)
		}
		if limit > 0 {
			opts.SetLimit(limit)
		}
		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return nil, err
		}
		if err := cur.All(ctx, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	pipe := mongo.Pipeline{{{Key: "$match", Value: filter}}}
	if len(sort) > 0 {
		pipe = append(pipe, bson.D{{Key: "$sort", Value: sort}})
	}
	if limit > 0 {
		pipe = append(pipe, bson.D{{Key: "$limit", Value: limit}})
	}
	pipe = append(pipe, r.populate...)
	cur, err := r.coll.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoCRUD[D]) findOneDoc(ctx context.Context, filter bson.M) (*D, error) {
	docs, err := r.findDocs(ctx, filter, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &docs[0], nil
}

func (r *mongoCRUD[D]) insert(ctx context.Context, id string, write func(ctx context.Context) error) (out *D, err error) {
	defer func() { r.done("insert", id, err) }()

	if e := write(ctx); e != nil {
		switch {
		case errors.Is(e, domain.ErrNotFound):
			return nil, e
		case mongo.IsDuplicateKeyError(e):
			return nil, domain.Duplicate(r.entity, "insert", id, e)
		}
		return nil, domain.Persistence(r.entity, "insert", id, e)
	}
	out, e := r.findOneDoc(ctx, bson.M{"_id": id})
	switch {
	case errors.Is(e, mongo.ErrNoDocuments):
		return nil, domain.NotFoundAfterWrite(r.entity, "insert", id)
	case e != nil:
		return nil, domain.Persistence(r.entity, "insert", id, e)
	}
	return out, nil
}

func (r *mongoCRUD[D]) findOne(ctx context.Context, op, label string, filter bson.M) (out *D, err error) {
	defer func() { r.done(op, label, err) }()

	out, e := r.findOneDoc(ctx, filter)
	switch {
	case errors.Is(e, mongo.ErrNoDocuments):
		return nil, domain.NotFound(r.entity, op, label)
	case e != nil:
		return nil, domain.Persistence(r.entity, op, label, e)
	}
	return out, nil
}

func (r *mongoCRUD[D]) findAll(ctx context.Context, label string, filter bson.M, sort bson.D) (out []D, err error) {
	defer func() { r.done("findAll", label, err) }()

	docs, e := r.findDocs(ctx, filter, sort, 0)
	if e != nil {
		return nil, domain.Persistence(r.entity, "findAll", label, e)
	}
	if len(docs) == 0 {
		return nil, domain.NotFound(r.entity, "findAll", label)
	}
	return docs, nil
}

// update 单文档 $set；未匹配即 NotFound；随后带 populate 回读
func (r *mongoCRUD[D]) update(ctx context.Context, id string, filter bson.M, set bson.M) (out *D, err error) {
	defer func() { r.done("update", id, err) }()

	if len(set) > 0 {
		res, e := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
		if e != nil {
			return nil, domain.Persistence(r.entity, "update", id, e)
		}
		if res.MatchedCount == 0 {
			return nil, domain.NotFound(r.entity, "update", id)
		}
	}
	out, e := r.findOneDoc(ctx, filter)
	switch {
	case errors.Is(e, mongo.ErrNoDocuments):
		return nil, domain.NotFound(r.entity, "update", id)
	case e != nil:
		return nil, domain.Persistence(r.entity, "update", id, e)
	}
	return out, nil
}

// delete 先读删除前状态，再删除；after 用于清理引用（非事务）
func (r *mongoCRUD[D]) delete(ctx context.Context, id string, filter bson.M, after func(ctx context.Context) error) (out *D, err error) {
	defer func() { r.done("delete", id, err) }()

	prior, e := r.findOneDoc(ctx, filter)
	switch {
	case errors.Is(e, mongo.ErrNoDocuments):
		return nil, domain.NotFound(r.entity, "delete", id)
	case e != nil:
		return nil, domain.Persistence(r.entity, "delete", id, e)
	}
	res, e := r.coll.DeleteOne(ctx, filter)
	if e != nil {
		return nil, domain.Persistence(r.entity, "delete", id, e)
	}
	if res.DeletedCount == 0 {
		return nil, domain.NotFound(r.entity, "delete", id)
	}
	if after != nil {
		if e := after(ctx); e != nil {
			return nil, domain.Persistence(r.entity, "delete", id, e)
		}
	}
	return prior, nil
}
