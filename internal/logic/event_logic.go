package logic

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// EventLogic 事件与统计业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// ContributeStats 贡献统计
type ContributeStats struct {
	TotalContributions int64    // 贡献次数
	UniqueContributors int64    // 唯一贡献者数量
	TotalFunded        *big.Int // 累计贡献金额
	TotalRefunded      *big.Int // 累计退款金额
	TotalPaidOut       *big.Int // 所有者累计提款
	OpenDeposits       int64    // 尚未退款的存款记录数
}

// GetEvents 分页获取事件列表
func (e *EventLogic) GetEvents(ctx context.Context, eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	if eventType != "" && !validEventType(model.EventType(eventType)) {
		return nil, 0, errors.New("unknown event type: " + eventType)
	}
	return repository.NewEventStore(e.db).List(ctx, model.EventType(eventType), page, pageSize)
}

// GetContributeStats 获取贡献统计信息
func (e *EventLogic) GetContributeStats(ctx context.Context) (*ContributeStats, error) {
	events := repository.NewEventStore(e.db)

	funded, err := events.All(ctx, model.EventTypeFunded)
	if err != nil {
		return nil, err
	}

	stats := &ContributeStats{
		TotalContributions: int64(len(funded)),
		TotalFunded:        new(big.Int),
	}

	contributors := make(map[string]struct{})
	for _, event := range funded {
		if err := addAmount(stats.TotalFunded, event); err != nil {
			return nil, err
		}
		contributors[event.Caller] = struct{}{}
	}
	stats.UniqueContributors = int64(len(contributors))

	if stats.TotalRefunded, err = sumEvents(ctx, events, model.EventTypeRefunded); err != nil {
		return nil, err
	}
	if stats.TotalPaidOut, err = sumEvents(ctx, events, model.EventTypePayout); err != nil {
		return nil, err
	}

	deposits, err := repository.NewCampaignStore(e.db, common.Address{}, common.Address{}).Deposits(ctx)
	if err != nil {
		return nil, err
	}
	stats.OpenDeposits = int64(len(deposits))

	return stats, nil
}

func sumEvents(ctx context.Context, events *repository.EventStore, eventType model.EventType) (*big.Int, error) {
	rows, err := events.All(ctx, eventType)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, event := range rows {
		if err := addAmount(total, event); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func addAmount(total *big.Int, event model.EventModel) error {
	v, ok := new(big.Int).SetString(event.Amount, 10)
	if !ok {
		return fmt.Errorf("event %d has invalid amount %q", event.Id, event.Amount)
	}
	total.Add(total, v)
	return nil
}

func validEventType(t model.EventType) bool {
	switch t {
	case model.EventTypeInitialized,
		model.EventTypeFunded,
		model.EventTypeMaxPerWalletSet,
		model.EventTypePayout,
		model.EventTypeRefunded,
		model.EventTypeTransfer,
		model.EventTypeStatusResolved:
		return true
	}
	return false
}
