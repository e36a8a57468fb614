package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resp 统一响应体 {code, msg, data}
type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New data 为 nil 时输出 {}
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error customMsg 为空时使用默认 msg
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, nil)
}

func JSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, OK(data))
}

// KeyCode 失败时业务码写入 gin 上下文，供指标中间件读取
const KeyCode = "resp.code"

func Fail(c *gin.Context, code int, msg string) {
	c.Set(KeyCode, code)
	c.JSON(http.StatusOK, Error(code, msg))
}

// Abort 中间件中断请求
func Abort(c *gin.Context, code int, msg string) {
	c.Set(KeyCode, code)
	c.AbortWithStatusJSON(http.StatusOK, Error(code, msg))
}
