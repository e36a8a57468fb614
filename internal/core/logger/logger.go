// Package logger zap 日志：stdout（控制台或 JSON），可选 lumberjack 文件切割
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// File 文件输出；按大小切割，按个数/天数清理
type File struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Config struct {
	Level   string            // debug / info / warn / error，非法值按 info
	JSON    bool              // 否则为彩色控制台格式（开发模式）
	File    *File             // nil 不写文件
	Out     io.Writer         // 默认 os.Stdout
	Fields  map[string]string // 每行固定附带，如 service / env
	NoStack bool              // 关闭 error 级别以上的堆栈
}

// New 返回的 cleanup 负责 Sync 并关闭日志文件
func New(c Config) (*zap.Logger, func()) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(c.Level); err != nil {
		lvl = zapcore.InfoLevel
	}
	enc := encoder(c.JSON)

	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(out), lvl)}

	var file *lumberjack.Logger
	if c.File != nil && c.File.Filename != "" {
		file = &lumberjack.Logger{
			Filename:   c.File.Filename,
			MaxSize:    max(1, c.File.MaxSizeMB),
			MaxBackups: max(0, c.File.MaxBackups),
			MaxAge:     max(0, c.File.MaxAgeDays),
			Compress:   c.File.Compress,
		}
		// 文件统一用 JSON，便于采集
		cores = append(cores, zapcore.NewCore(encoder(true), zapcore.AddSync(file), lvl))
	}

	// 同一秒内同一条消息超过 100 次后每 100 次保留 1 条
	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)

	opts := []zap.Option{zap.AddCaller()}
	if !c.JSON {
		opts = append(opts, zap.Development())
	}
	if !c.NoStack {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if len(c.Fields) > 0 {
		fs := make([]zap.Field, 0, len(c.Fields))
		for k, v := range c.Fields {
			fs = append(fs, zap.String(k, v))
		}
		opts = append(opts, zap.Fields(fs...))
	}

	l := zap.New(core, opts...)
	return l, func() {
		_ = l.Sync()
		if file != nil {
			_ = file.Close()
		}
	}
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeDuration = zapcore.StringDurationEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// lineWriter 把 io.Writer 的输出当作一条日志消息
type lineWriter func(msg string)

func (f lineWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		// gorm 的 trace 是 "文件:行\n[耗时] SQL"，压成一行
		f(strings.Join(strings.Fields(msg), " "))
	}
	return len(p), nil
}

// ToWriter 供 http.Server.ErrorLog、gorm logger 等只接受 *log.Logger/io.Writer 的组件使用
func ToWriter(l *zap.Logger, level zapcore.Level) io.Writer {
	return lineWriter(func(msg string) {
		if ce := l.Check(level, msg); ce != nil {
			ce.Write()
		}
	})
}

// RedirectStdLog 标准库 log 输出转入 zap；返回恢复函数
func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l.Named("stdlog"), level)
	if err != nil {
		l.Warn("redirect std log", zap.Error(err))
		return func() {}
	}
	return undo
}
