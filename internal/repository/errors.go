package repository

import "errors"

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailTaken      = errors.New("邮箱已被注册")
	ErrBalanceNotFound = errors.New("余额账户不存在")
	ErrServiceNotFound = errors.New("服务不存在")
)
