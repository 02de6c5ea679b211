package service

import "errors"

// 账务错误，前四个为调用方输入问题，在任何写入之前返回
var (
	ErrInvalidAmount     = errors.New("金额必须为正整数")
	ErrServiceNotFound   = errors.New("服务或层级不存在")
	ErrNoBalance         = errors.New("余额账户不存在，请先充值")
	ErrInsufficientFunds = errors.New("余额不足")
	ErrStoreUnavailable  = errors.New("存储不可用")
	ErrHistoryNotFound   = errors.New("交易记录不存在")
)

// 身份与资料错误
var (
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidImage       = errors.New("图片格式不正确")
	ErrInvalidEmail       = errors.New("邮箱格式不正确")
	ErrWeakPassword       = errors.New("密码长度至少8位")
)
