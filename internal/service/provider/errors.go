package provider

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured 提供商缺少凭证或被显式禁用，进程生命周期内不会恢复
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEmptyQuestion 问题为空
	ErrEmptyQuestion = errors.New("question is required")

	// ErrEmptyResponse 提供商返回了没有任何候选回答的响应
	ErrEmptyResponse = errors.New("no response from provider")

	// ErrUnknownProvider 注册表中不存在该提供商
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrDuplicateProvider 重复注册同名提供商
	ErrDuplicateProvider = errors.New("duplicate provider")
)

// ErrorKind 提供商错误分类
type ErrorKind string

const (
	KindConfig    ErrorKind = "config"    // 配置错误，永久禁用
	KindInput     ErrorKind = "input"     // 调用参数错误
	KindTimeout   ErrorKind = "timeout"   // 请求超时
	KindTransient ErrorKind = "transient" // 网络、非 2xx、响应格式错误
)

// Error 提供商调用失败
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError 包装底层错误并分类
func wrapError(name string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	kind := KindTransient
	switch {
	case errors.Is(err, ErrNotConfigured):
		kind = KindConfig
	case errors.Is(err, ErrEmptyQuestion):
		kind = KindInput
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	}
	return &Error{Provider: name, Kind: kind, Err: err}
}

// KindOf 返回错误分类，非提供商错误视为 transient
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransient
}

// IsNotConfigured 判断是否为配置错误
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
