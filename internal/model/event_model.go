package model

import (
	"time"
)

// EventModel 合约调用事件记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CallId       string    `json:"call_id" gorm:"type:varchar(36);index"` // 同一次调用产生的事件共享
	EventType    EventType `json:"event_type" gorm:"not null;index"`
	Caller       string    `json:"caller" gorm:"index"`
	Counterparty string    `json:"counterparty"`
	Amount       string    `json:"amount" gorm:"type:varchar(80)"`
	Timestamp    uint64    `json:"timestamp" gorm:"not null"` // 宿主时间
	Data         string    `json:"data" gorm:"type:text"`
}

// EventType 事件类型
type EventType string

const (
	EventTypeInitialized     EventType = "Initialized"     // 部署初始化
	EventTypeFunded          EventType = "Funded"          // 贡献
	EventTypeMaxPerWalletSet EventType = "MaxPerWalletSet" // 设置钱包上限
	EventTypePayout          EventType = "Payout"          // 所有者提款
	EventTypeRefunded        EventType = "Refunded"        // 贡献者退款
	EventTypeTransfer        EventType = "Transfer"        // 普通转账
	EventTypeStatusResolved  EventType = "StatusResolved"  // 截止后阶段确定
)

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
