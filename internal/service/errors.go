package service

import (
	"errors"
	"net/http"

	"MemeArena/internal/repository"

	"github.com/google/uuid"
)

// ErrorKind 业务错误类别，决定 HTTP 状态码
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// Error 面向调用方的业务错误，Message 原样返回给客户端
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // 内部原因，只记日志
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus 错误类别对应的状态码；重复投票等冲突沿用 400
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func validationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func forbiddenError(msg string) error  { return &Error{Kind: KindForbidden, Message: msg} }
func notFoundError(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func conflictError(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// ErrUnauthorized 未登录
var ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "Unauthorized"}

// AsError 提取业务错误
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// validID 非法 UUID 直接按不存在处理，避免数据库报类型错误
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
