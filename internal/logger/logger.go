// Package logger 基于 slog 的结构化日志封装
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	level = new(slog.LevelVar)
	// Logger 全局日志实例
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

// Setup 根据配置初始化全局日志
// format 支持 text / json，levelName 支持 debug / info / warn / error
func Setup(w io.Writer, format, levelName string) {
	SetLevel(levelName)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// SetLevel 设置日志级别，无法识别时使用 info
func SetLevel(levelName string) {
	switch strings.ToLower(levelName) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// With 返回带固定字段的子日志
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

// Debug 调试日志
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info 信息日志
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn 警告日志
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error 错误日志
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
