package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 102
	CodeLoginFailed  = 103
	CodeUnauthorized = 108
	CodeNotFound     = 404
	CodeServerError  = 500
)

const (
	CodeInvalidAmount     = 1001
	CodeServiceNotFound   = 1002
	CodeNoBalance         = 1003
	CodeInsufficientFunds = 1004
	CodeEmailTaken        = 1005
)

// Response 统一响应结构，失败时 data 恒为 null
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Status:  CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Error 返回失败响应
func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{
		Status:  code,
		Message: message,
		Data:    nil,
	})
}

// Abort 返回失败响应并中断后续 handler，用于中间件
func Abort(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Status:  code,
		Message: message,
		Data:    nil,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

func Unauthorized(c *gin.Context, message string) {
	Abort(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}
