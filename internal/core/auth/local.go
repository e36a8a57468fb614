package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"checklist-api/internal/domain"
)

// 拒绝原因
const (
	ReasonUserNotFound = "user not found"
	ReasonBadPassword  = "password incorrect"
)

// UserFinder 认证只需要按用户名查找
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Verdict 认证结果：User 非空为通过；否则 Reason/Message 说明拒绝原因
type Verdict struct {
	User    *domain.User
	Reason  string
	Message string
}

func (v Verdict) OK() bool { return v.User != nil }

// LocalStrategy 用户名 + 密码认证
type LocalStrategy struct {
	Users UserFinder
	Log   *zap.Logger
}

func NewLocalStrategy(users UserFinder, l *zap.Logger) *LocalStrategy {
	if l == nil {
		l = zap.NewNop()
	}
	return &LocalStrategy{Users: users, Log: l}
}

// Verify 三种结果：error（存储故障）/ 拒绝（带原因）/ 通过（带用户记录）
func (s *LocalStrategy) Verify(ctx context.Context, username, password string) (Verdict, error) {
	u, err := s.Users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.Log.Info("login rejected", zap.String("username", username), zap.String("reason", ReasonUserNotFound))
		return Verdict{
			Reason:  ReasonUserNotFound,
			Message: fmt.Sprintf("Cannot find user with username %q", username),
		}, nil
	case err != nil:
		return Verdict{}, err
	}

	if !u.ValidPassword(password) {
		s.Log.Info("login rejected", zap.String("username", username), zap.String("reason", ReasonBadPassword))
		return Verdict{Reason: ReasonBadPassword, Message: "Password is incorrect"}, nil
	}
	return Verdict{User: u}, nil
}
