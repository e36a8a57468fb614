package domain

import (
	"errors"
	"fmt"
)

// 仓储错误分类
var (
	ErrPersistence        = errors.New("persistence error")
	ErrNotFound           = errors.New("not found")
	ErrNotFoundAfterWrite = errors.New("not found after write")

	// ErrDuplicate 唯一约束冲突；总是包在 ErrPersistence 之内
	ErrDuplicate = errors.New("duplicate key")
)

// RepoError 带上下文的仓储错误；errors.Is(err, ErrNotFound) 按 Kind 匹配
type RepoError struct {
	Kind   error
	Entity string
	Op     string
	ID     string
	Err    error
}

func (e *RepoError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Entity, e.Op)
	if e.ID != "" {
		msg += fmt.Sprintf(" %q", e.ID)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RepoError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NotFound(entity, op, id string) error {
	return &RepoError{Kind: ErrNotFound, Entity: entity, Op: op, ID: id}
}

func NotFoundAfterWrite(entity, op, id string) error {
	return &RepoError{Kind: ErrNotFoundAfterWrite, Entity: entity, Op: op, ID: id}
}

func Persistence(entity, op, id string, err error) error {
	return &RepoError{Kind: ErrPersistence, Entity: entity, Op: op, ID: id, Err: err}
}

// Duplicate 唯一约束冲突：Kind 仍是 Persistence，可用 errors.Is(err, ErrDuplicate) 区分
func Duplicate(entity, op, id string, err error) error {
	return Persistence(entity, op, id, fmt.Errorf("%w: %w", ErrDuplicate, err))
}
