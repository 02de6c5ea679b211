package model

// Service 可支付的服务目录，只读
type Service struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	ServiceCode   string `gorm:"type:varchar(32);uniqueIndex;not null" json:"service_code"`
	ServiceName   string `gorm:"type:varchar(128);not null" json:"service_name"`
	ServiceIcon   string `gorm:"type:varchar(256)" json:"service_icon"`
	ServiceTariff int64  `gorm:"not null" json:"service_tariff"`
}

func (Service) TableName() string {
	return "services"
}

// Banner 首页横幅，只读
type Banner struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	BannerName  string `gorm:"type:varchar(128);not null" json:"banner_name"`
	BannerImage string `gorm:"type:varchar(256)" json:"banner_image"`
	Description string `gorm:"type:varchar(256)" json:"description"`
}

func (Banner) TableName() string {
	return "banners"
}
