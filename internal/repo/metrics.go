package repo

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"checklist-api/internal/domain"
)

var repoOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "checklist_repo_operations_total", Help: "Count of repository operations"},
	[]string{"entity", "op", "result"},
)

func init() { prometheus.MustRegister(repoOpsTotal) }

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNotFoundAfterWrite):
		return "not_found_after_write"
	default:
		return "error"
	}
}

// oplog 每个仓储操作：成功 Info，失败 Error + 原因；同时计数
type oplog struct {
	log    *zap.Logger
	entity string
}

func (o oplog) done(op, id string, err error) {
	repoOpsTotal.WithLabelValues(o.entity, op, resultOf(err)).Inc()
	if err != nil {
		o.log.Error(o.entity+" "+op+" failed", zap.String("id", id), zap.Error(err))
		return
	}
	o.log.Info(o.entity+" "+op+" ok", zap.String("id", id))
}

// compensate 执行补偿写；失败只记录日志（留下孤儿数据），调用方照常返回原错误
func (o oplog) compensate(op, id string, undo func() error, fields ...zap.Field) {
	if err := undo(); err != nil {
		fields = append([]zap.Field{zap.String("id", id), zap.Error(err)}, fields...)
		o.log.Error(o.entity+" "+op+" rollback failed", fields...)
	}
}
