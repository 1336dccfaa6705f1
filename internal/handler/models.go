package handler

import (
	"math/big"
	"time"

	"github.com/blues/crowdfund/internal/campaign"
	"github.com/blues/crowdfund/internal/host"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/blues/crowdfund/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型，金额统一使用十进制字符串

// FundRequest 贡献请求
type FundRequest struct {
	Caller string `json:"caller" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// ClaimRequest 结算请求
type ClaimRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// SetMaxPerWalletRequest 设置钱包上限请求
type SetMaxPerWalletRequest struct {
	Caller string `json:"caller" binding:"required"`
	Max    string `json:"max" binding:"required"`
}

// TransferRequest 普通转账请求
type TransferRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// 响应模型

// CampaignResponse 合约概览
type CampaignResponse struct {
	Owner        string  `json:"owner"`
	Contract     string  `json:"contract"`
	Target       string  `json:"target"`
	Deadline     uint64  `json:"deadline"`
	MaxPerWallet *string `json:"maxPerWallet"`
	CurrentFunds string  `json:"currentFunds"`
	Status       string  `json:"status"`
	Now          uint64  `json:"now"`
}

// SettlementResponse 结算结果
type SettlementResponse struct {
	Kind   string `json:"kind"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// EventResponse 事件
type EventResponse struct {
	ID           int64     `json:"id"`
	CallID       string    `json:"callId"`
	EventType    string    `json:"eventType"`
	Caller       string    `json:"caller,omitempty"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	Timestamp    uint64    `json:"timestamp"`
	Data         string    `json:"data,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GetEventsResponse 事件列表
type GetEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// ContributeStatsResponse 贡献统计
type ContributeStatsResponse struct {
	TotalContributions int64  `json:"totalContributions"`
	UniqueContributors int64  `json:"uniqueContributors"`
	TotalFunded        string `json:"totalFunded"`
	TotalRefunded      string `json:"totalRefunded"`
	TotalPaidOut       string `json:"totalPaidOut"`
	OpenDeposits       int64  `json:"openDeposits"`
}

// 转换函数

// ToCampaignResponse 将运行时概览转换为响应模型
func ToCampaignResponse(info *host.Info) CampaignResponse {
	return CampaignResponse{
		Owner:        info.Owner.Hex(),
		Contract:     info.Contract.Hex(),
		Target:       info.Target.String(),
		Deadline:     info.Deadline,
		MaxPerWallet: optionalAmount(info.MaxPerWallet),
		CurrentFunds: info.CurrentFunds.String(),
		Status:       info.Status.String(),
		Now:          info.Now,
	}
}

// ToSettlementResponse 结算结果转换
func ToSettlementResponse(s campaign.Settlement) SettlementResponse {
	amount := "0"
	if s.Amount != nil {
		amount = s.Amount.String()
	}
	return SettlementResponse{
		Kind:   string(s.Kind),
		To:     s.To.Hex(),
		Amount: amount,
	}
}

// ToEventResponseList 事件列表转换
func ToEventResponseList(events []model.EventModel) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, event := range events {
		result[i] = EventResponse{
			ID:           event.Id,
			EventType:    string(event.EventType),
			Caller:       event.Caller,
			Counterparty: event.Counterparty,
			Amount:       event.Amount,
			Timestamp:    event.Timestamp,
			Data:         event.Data,
			CreatedAt:    event.CreatedAt,
		}
	}
	return result
}

// ToContributeStatsResponse 统计信息转换
func ToContributeStatsResponse(stats *logic.ContributeStats) ContributeStatsResponse {
	return ContributeStatsResponse{
		TotalContributions: stats.TotalContributions,
		UniqueContributors: stats.UniqueContributors,
		TotalFunded:        stats.TotalFunded.String(),
		TotalRefunded:      stats.TotalRefunded.String(),
		TotalPaidOut:       stats.TotalPaidOut.String(),
		OpenDeposits:       stats.OpenDeposits,
	}
}

func optionalAmount(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
