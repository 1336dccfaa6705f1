package model

import (
	"time"
)

// CampaignModel 众筹合约配置，单合约部署只有一行
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnerAddress    string `json:"owner_address" gorm:"not null"`
	ContractAddress string `json:"contract_address" gorm:"not null;uniqueIndex"`

	// 金额以十进制字符串保存，避免精度丢失
	TargetAmount string  `json:"target_amount" gorm:"type:varchar(80);not null"`
	Deadline     uint64  `json:"deadline" gorm:"not null"`
	MaxPerWallet *string `json:"max_per_wallet" gorm:"type:varchar(80)"` // 为空表示不限制
}

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
