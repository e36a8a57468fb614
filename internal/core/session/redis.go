package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"checklist-api/internal/domain"
)

var ErrNoSession = errors.New("session not found")

// Store 登录态：sid -> 完整用户记录（序列化/反序列化都是恒等）
type Store struct {
	RDB    *redis.Client
	TTL    time.Duration
	Prefix string
	sf     singleflight.Group
}

func NewClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

func New(rdb *redis.Client, ttl time.Duration, prefix string) *Store {
	if prefix == "" {
		prefix = "sess:"
	}
	return &Store{RDB: rdb, TTL: ttl, Prefix: prefix}
}

func (s *Store) key(sid string) string { return s.Prefix + sid }

// Save 登录时创建 session，返回 sid
func (s *Store) Save(ctx context.Context, u *domain.User) (string, error) {
	sid := uuid.NewString()
	if err := setJSON(ctx, s.RDB, s.key(sid), s.TTL, recordOf(u)); err != nil {
		return "", err
	}
	return sid, nil
}

// Load 还原用户记录；同一 sid 的并发读取合并为一次
func (s *Store) Load(ctx context.Context, sid string) (*domain.User, error) {
	v, err, _ := s.sf.Do(sid, func() (any, error) {
		rec, err := getJSON[record](ctx, s.RDB, s.key(sid))
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		if err != nil {
			return nil, err
		}
		return rec.user(), nil
	})
	if err != nil {
		return nil, err
	}
	u := *v.(*domain.User)
	return &u, nil
}

// Destroy 登出
func (s *Store) Destroy(ctx context.Context, sid string) error {
	return s.RDB.Del(ctx, s.key(sid)).Err()
}

// record 序列化形态；PasswordHash 在 domain.User 上不参与 JSON，这里显式带上
type record struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
}

func recordOf(u *domain.User) record {
	return record{User: *u, PasswordHash: u.PasswordHash}
}

func (r record) user() *domain.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	return &u
}
