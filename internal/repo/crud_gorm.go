package repo

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"checklist-api/internal/domain"
)

type scopeFn = func(*gorm.DB) *gorm.DB

// isDuplicate 唯一约束冲突；postgres/mysql 由 TranslateError 转成 gorm.ErrDuplicatedKey，
// sqlite 驱动未翻译时按错误文本识别
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// crud 通用 CRUD；各实体仓储组合使用。populate 对应 Preload 的关联名
type crud[T any] struct {
	db       *gorm.DB
	populate []string
	oplog
}

func newCrud[T any](db *gorm.DB, l *zap.Logger, entity string, populate ...string) crud[T] {
	if l == nil {
		l = zap.NewNop()
	}
	return crud[T]{db: db, populate: populate, oplog: oplog{log: l, entity: entity}}
}

func (r *crud[T]) read(tx *gorm.DB) *gorm.DB {
	for _, p := range r.populate {
		tx = tx.Preload(p)
	}
	return tx
}

func (r *crud[T]) first(tx *gorm.DB, id string, scopes ...scopeFn) (*T, error) {
	var m T
	err := r.read(tx).Scopes(scopes...).Where(r.col("id")+" = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type tabler interface{ TableName() string }

// col 带表名前缀的列名，避免 Join 时列名歧义
func (r *crud[T]) col(name string) string {
	var m T
	if t, ok := any(m).(tabler); ok {
		return t.TableName() + "." + name
	}
	return name
}

// create 默认写入：不级联写关联对象
func create[T any](m *T) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error { return tx.Omit(clause.Associations).Create(m).Error }
}

// insert 写入后带 populate 回读；回读不到视为一致性错误
func (r *crud[T]) insert(ctx context.Context, id string, write func(tx *gorm.DB) error) (out *T, err error) {
	defer func() { r.done("insert", id, err) }()

	if e := r.db.WithContext(ctx).Transaction(write); e != nil {
		switch {
		case errors.Is(e, domain.ErrNotFound):
			return nil, e
		case isDuplicate(e):
			return nil, domain.Duplicate(r.entity, "insert", id, e)
		}
		return nil, domain.Persistence(r.entity, "insert", id, e)
	}
	out, e := r.first(r.db.WithContext(ctx), id)
	switch {
	case errors.Is(e, gorm.ErrRecordNotFound):
		return nil, domain.NotFoundAfterWrite(r.entity, "insert", id)
	case e != nil:
		return nil, domain.Persistence(r.entity, "insert", id, e)
	}
	return out, nil
}

func (r *crud[T]) findByID(ctx context.Context, id string, scopes ...scopeFn) (out *T, err error) {
	defer func() { r.done("findById", id, err) }()
	return r.findOne(ctx, "findById", id, func(q *gorm.DB) *gorm.DB {
		return q.Scopes(scopes...).Where(r.col("id")+" = ?", id)
	})
}

// findOne 按任意条件取一条；label 用于日志与错误
func (r *crud[T]) findOne(ctx context.Context, op, label string, scope scopeFn) (*T, error) {
	var m T
	err := r.read(r.db.WithContext(ctx)).Scopes(scope).First(&m).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.NotFound(r.entity, op, label)
	case err != nil:
		return nil, domain.Persistence(r.entity, op, label, err)
	}
	return &m, nil
}

// findAll 空结果集同样返回 NotFound
func (r *crud[T]) findAll(ctx context.Context, label string, scope scopeFn) (out []T, err error) {
	defer func() { r.done("findAll", label, err) }()

	var ms []T
	if e := r.read(r.db.WithContext(ctx)).Scopes(scope).Find(&ms).Error; e != nil {
		return nil, domain.Persistence(r.entity, "findAll", label, e)
	}
	if len(ms) == 0 {
		return nil, domain.NotFound(r.entity, "findAll", label)
	}
	return ms, nil
}

// update 先确认存在，再部分更新列，再执行 extra（如替换关联），最后带 populate 回读
func (r *crud[T]) update(ctx context.Context, id string, fields map[string]any, extra func(tx *gorm.DB) error, scopes ...scopeFn) (out *T, err error) {
	defer func() { r.done("update", id, err) }()

	e := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(new(T)).Scopes(scopes...).Where(r.col("id")+" = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		if len(fields) > 0 {
			if err := tx.Model(new(T)).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	switch {
	case errors.Is(e, gorm.ErrRecordNotFound):
		return nil, domain.NotFound(r.entity, "update", id)
	case e != nil:
		return nil, domain.Persistence(r.entity, "update", id, e)
	}

	out, e = r.first(r.db.WithContext(ctx), id)
	switch {
	case errors.Is(e, gorm.ErrRecordNotFound):
		return nil, domain.NotFound(r.entity, "update", id)
	case e != nil:
		return nil, domain.Persistence(r.entity, "update", id, e)
	}
	return out, nil
}

// delete 硬删除，返回删除前（已 populate）的记录
func (r *crud[T]) delete(ctx context.Context, id string, remove func(tx *gorm.DB) error, scopes ...scopeFn) (out *T, err error) {
	defer func() { r.done("delete", id, err) }()

	if remove == nil {
		remove = func(tx *gorm.DB) error { return tx.Where("id = ?", id).Delete(new(T)).Error }
	}
	e := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := r.first(tx, id, scopes...)
		if err != nil {
			return err
		}
		out = prior
		return remove(tx)
	})
	switch {
	case errors.Is(e, gorm.ErrRecordNotFound):
		return nil, domain.NotFound(r.entity, "delete", id)
	case e != nil:
		return nil, domain.Persistence(r.entity, "delete", id, e)
	}
	return out, nil
}
