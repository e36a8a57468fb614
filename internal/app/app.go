// Package app 进程启动时的公共装配：日志、存储后端、会话、JWT
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"checklist-api/internal/core/auth"
	"checklist-api/internal/core/config"
	"checklist-api/internal/core/database"
	"checklist-api/internal/core/logger"
	"checklist-api/internal/core/session"
	"checklist-api/internal/repo"
)

// NewLogger 每行带上 service/env；log.file.enable 时同时写切割文件
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	c := logger.Config{
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Fields: map[string]string{"service": cfg.App.Name, "env": cfg.App.Env},
	}
	if f := cfg.Log.File; f.Enable {
		c.File = &logger.File{
			Filename:   f.Filename,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		}
	}
	return logger.New(c)
}

// Stores 已选定后端的仓储集合
type Stores struct {
	Backend string
	Repos   repo.Set
	Close   func(context.Context) error
}

// OpenStores store.backend = gorm | mongo；migrate 为 true 时建表/建索引
func OpenStores(ctx context.Context, cfg *config.Config, l *zap.Logger, migrate bool) (*Stores, error) {
	switch cfg.Store.Backend {
	case "", "gorm":
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
			SlowThresholdMs:    cfg.DB.SlowThresholdMs,
			Logger:             l,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.DB.Driver, err)
		}
		if migrate {
			if err := repo.Migrate(db); err != nil {
				return nil, fmt.Errorf("automigrate: %w", err)
			}
			l.Info("automigrate done")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		l.Info("database connected", zap.String("driver", cfg.DB.Driver))
		return &Stores{
			Backend: "gorm",
			Repos:   repo.NewGormSet(db, l),
			Close:   func(context.Context) error { return sqlDB.Close() },
		}, nil

	case "mongo":
		db, closeFn, err := database.NewMongo(ctx, database.MongoOpts{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		if migrate {
			if err := repo.EnsureIndexes(ctx, db); err != nil {
				_ = closeFn(ctx)
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		l.Info("database connected", zap.String("driver", "mongo"), zap.String("db", cfg.Mongo.Database))
		return &Stores{Backend: "mongo", Repos: repo.NewMongoSet(db, l), Close: closeFn}, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}

// NewSessions 连接 redis 并 ping
func NewSessions(ctx context.Context, cfg *config.Config) (*session.Store, error) {
	rdb := session.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return session.New(rdb, time.Duration(cfg.Session.TTLMin)*time.Minute, cfg.Session.KeyPrefix), nil
}

func NewJWTer(cfg *config.Config) *auth.JWTer {
	return &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}
}
