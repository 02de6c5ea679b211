package handler

import (
	"errors"
	"log"
	"net/http"

	"digiwallet/internal/service"
	"digiwallet/pkg/response"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err        error
	httpStatus int
	code       int
	message    string
}

// 每个业务错误对应唯一的状态码，未列出的错误统一按 500 处理
var errorMappings = []errorMapping{
	{service.ErrInvalidAmount, http.StatusBadRequest, response.CodeInvalidAmount, "金额只能为正整数"},
	{service.ErrServiceNotFound, http.StatusBadRequest, response.CodeServiceNotFound, "服务不存在"},
	{service.ErrNoBalance, http.StatusBadRequest, response.CodeNoBalance, "余额账户不存在，请先充值"},
	{service.ErrInsufficientFunds, http.StatusBadRequest, response.CodeInsufficientFunds, "余额不足"},
	{service.ErrEmailTaken, http.StatusBadRequest, response.CodeEmailTaken, "邮箱已被注册"},
	{service.ErrInvalidEmail, http.StatusBadRequest, response.CodeParamError, "邮箱格式不正确"},
	{service.ErrWeakPassword, http.StatusBadRequest, response.CodeParamError, "密码长度至少8位"},
	{service.ErrInvalidImage, http.StatusBadRequest, response.CodeParamError, "图片格式不正确，仅支持 jpeg/png 且不超过大小限制"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.CodeLoginFailed, "邮箱或密码错误"},
	{service.ErrUserNotFound, http.StatusNotFound, response.CodeNotFound, "用户不存在"},
	{service.ErrHistoryNotFound, http.StatusNotFound, response.CodeNotFound, "交易记录不存在"},
}

func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			response.Error(c, m.httpStatus, m.code, m.message)
			return
		}
	}

	log.Printf("[HTTP] %s %s 处理失败: %v", c.Request.Method, c.Request.URL.Path, err)
	response.ServerError(c, "服务器内部错误")
}
