package ez

import (
	"errors"

	"github.com/gin-gonic/gin"

	"checklist-api/internal/domain"
	resp "checklist-api/internal/transport/http/response"
)

// AErr 传输层错误，Code 对应 resp.Code*
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// CodeOf 错误 → 响应码与对外消息。仓储错误按类型映射，其余一律 500
func CodeOf(err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae.Code, ae.Error()
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return resp.CodeNotFound, err.Error()
	case errors.Is(err, domain.ErrNotFoundAfterWrite):
		return resp.CodeServerError, "record not found after write"
	case errors.Is(err, domain.ErrPersistence):
		return resp.CodeServerError, "persistence error"
	}
	return resp.CodeServerError, resp.CodeMsgMap[resp.CodeServerError]
}

// Fail 统一错误出口：原始错误挂到 c.Errors 供访问日志输出，响应体只带映射后的消息
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	code, msg := CodeOf(err)
	resp.Fail(c, code, msg)
}
