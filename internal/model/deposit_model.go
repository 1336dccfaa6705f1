package model

import (
	"time"
)

// DepositModel 贡献者累计存款
type DepositModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string `json:"address" gorm:"not null;uniqueIndex"`
	Amount  string `json:"amount" gorm:"type:varchar(80);not null"`
}

// TableName 自定义表名
func (DepositModel) TableName() string {
	return "deposit"
}
