package model

import (
	"time"
)

// AccountModel 宿主账本账户余额（合约账户和外部账户）
type AccountModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string `json:"address" gorm:"not null;uniqueIndex"`
	Balance string `json:"balance" gorm:"type:varchar(80);not null"`
}

// TableName 自定义表名
func (AccountModel) TableName() string {
	return "account"
}
