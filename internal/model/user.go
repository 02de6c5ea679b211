package model

import (
	"time"
)

// User 用户表，由身份模块维护，账务核心只读引用
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	Email        string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	FirstName    string    `gorm:"type:varchar(64);not null" json:"first_name"`
	LastName     string    `gorm:"type:varchar(64);not null" json:"last_name"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`
	ProfileImage string    `gorm:"type:varchar(256)" json:"profile_image"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Identity 经过鉴权的调用方身份，由中间件从 token 中解析
type Identity struct {
	UserID int64
	Email  string
}
