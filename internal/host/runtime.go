package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blues/crowdfund/internal/campaign"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/blues/crowdfund/internal/model"
	"github.com/blues/crowdfund/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotDeployed     = errors.New("campaign is not deployed")
	ErrAlreadyDeployed = errors.New("campaign is already deployed")
	ErrNoPayment       = errors.New("no value attached")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrContractAccount = errors.New("contract account can only be spent by the contract")
)

// Clock 宿主时间（unix 秒）
type Clock interface {
	Now(ctx context.Context) (uint64, error)
}

// SystemClock 使用本机时间
type SystemClock struct{}

func (SystemClock) Now(context.Context) (uint64, error) {
	return uint64(time.Now().Unix()), nil
}

// ContractAddress 合约地址由所有者地址推导
func ContractAddress(owner common.Address) common.Address {
	return crypto.CreateAddress(owner, 0)
}

// DeployParams 部署参数
type DeployParams struct {
	Target   *big.Int
	Deadline uint64
	Alloc    map[common.Address]*big.Int // 初始账户余额
}

// Info 合约概览
type Info struct {
	Owner        common.Address
	Contract     common.Address
	Target       *big.Int
	Deadline     uint64
	MaxPerWallet *big.Int // nil 表示不限制
	CurrentFunds *big.Int
	Status       campaign.Status
	Now          uint64
}

// Runtime 宿主运行时：串行执行合约调用，每次调用是一个数据库事务
type Runtime struct {
	mu    sync.Mutex
	db    *gorm.DB
	clock Clock
}

// NewRuntime 创建运行时
func NewRuntime(db *gorm.DB, clock Clock) *Runtime {
	return &Runtime{db: db, clock: clock}
}

// call 一次调用的上下文，所有存储都绑定到同一个事务
type call struct {
	id       string
	now      uint64
	owner    common.Address
	contract common.Address
	campaign *campaign.Campaign
	store    *repository.CampaignStore
	accounts *repository.AccountStore
	events   *repository.EventStore
}

func newCall(tx *gorm.DB, now uint64, owner, contract common.Address) *call {
	store := repository.NewCampaignStore(tx, owner, contract)
	accounts := repository.NewAccountStore(tx)
	return &call{
		id:       uuid.NewString(),
		now:      now,
		owner:    owner,
		contract: contract,
		campaign: campaign.New(owner, store, contractLedger{accounts: accounts, contract: contract}),
		store:    store,
		accounts: accounts,
		events:   repository.NewEventStore(tx),
	}
}

func (c *call) record(ctx context.Context, eventType model.EventType, caller, counterparty common.Address, amount *big.Int, data interface{}) error {
	event := &model.EventModel{
		CallId:    c.id,
		EventType: eventType,
		Timestamp: c.now,
	}
	if caller != (common.Address{}) {
		event.Caller = caller.Hex()
	}
	if counterparty != (common.Address{}) {
		event.Counterparty = counterparty.Hex()
	}
	if amount != nil {
		event.Amount = amount.String()
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode %s event data: %w", eventType, err)
		}
		event.Data = string(raw)
	}
	return c.events.Record(ctx, event)
}

// transact 加锁并在事务中执行 fn，fn 返回错误时整体回滚
func (r *Runtime) transact(ctx context.Context, fn func(tx *gorm.DB, now uint64) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now, err := r.clock.Now(ctx)
	if err != nil {
		return fmt.Errorf("failed to read host time: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, now)
	})
}

// execute 在已部署的合约上执行一次调用
func (r *Runtime) execute(ctx context.Context, fn func(ctx context.Context, c *call) error) error {
	return r.transact(ctx, func(tx *gorm.DB, now uint64) error {
		row, err := repository.NewCampaignStore(tx, common.Address{}, common.Address{}).Load(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotInitialized) {
				return ErrNotDeployed
			}
			return err
		}
		c := newCall(tx, now, common.HexToAddress(row.OwnerAddress), common.HexToAddress(row.ContractAddress))
		return fn(ctx, c)
	})
}

// Deploy 部署合约：写入初始余额并调用 Initialize
func (r *Runtime) Deploy(ctx context.Context, owner common.Address, params DeployParams) error {
	contract := ContractAddress(owner)

	err := r.transact(ctx, func(tx *gorm.DB, now uint64) error {
		c := newCall(tx, now, owner, contract)

		if _, err := c.store.Load(ctx); err == nil {
			return ErrAlreadyDeployed
		} else if !errors.Is(err, repository.ErrNotInitialized) {
			return err
		}

		for addr, amount := range params.Alloc {
			if err := c.accounts.Credit(ctx, addr, amount); err != nil {
				return fmt.Errorf("genesis allocation for %s: %w", addr.Hex(), err)
			}
		}

		if err := c.campaign.Initialize(ctx, params.Target, params.Deadline, now); err != nil {
			return err
		}

		return c.record(ctx, model.EventTypeInitialized, owner, contract, params.Target, map[string]interface{}{
			"deadline": params.Deadline,
		})
	})
	if err != nil {
		return err
	}

	logger.Info("Campaign deployed at %s (owner: %s, target: %s, deadline: %d)",
		contract.Hex(), owner.Hex(), params.Target, params.Deadline)
	return nil
}

// Deployed 合约是否已部署
func (r *Runtime) Deployed(ctx context.Context) (bool, error) {
	err := r.execute(ctx, func(context.Context, *call) error { return nil })
	if errors.Is(err, ErrNotDeployed) {
		return false, nil
	}
	return err == nil, err
}

// Fund 调用方附带 payment 向合约贡献，返回同一事务中的累计存款
func (r *Runtime) Fund(ctx context.Context, caller common.Address, payment *big.Int) (*big.Int, error) {
	if payment == nil || payment.Sign() <= 0 {
		return nil, ErrNoPayment
	}

	var deposit *big.Int
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		// 附带的金额先转入合约，Fund 失败时随事务回滚
		if err := c.accounts.Move(ctx, caller, c.contract, payment); err != nil {
			return err
		}
		if err := c.campaign.Fund(ctx, caller, payment, c.now); err != nil {
			return err
		}
		v, err := c.campaign.Deposit(ctx, caller)
		if err != nil {
			return err
		}
		deposit = v
		return c.record(ctx, model.EventTypeFunded, caller, c.contract, payment, nil)
	})
	if err != nil {
		logger.Warn("Fund from %s rejected: %v", caller.Hex(), err)
		return nil, err
	}

	logger.Info("Funded %s from %s (deposit: %s)", payment, caller.Hex(), deposit)
	return deposit, nil
}

// Claim 截止后结算
func (r *Runtime) Claim(ctx context.Context, caller common.Address) (campaign.Settlement, error) {
	var settlement campaign.Settlement

	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		s, err := c.campaign.Claim(ctx, caller, c.now)
		if err != nil {
			return err
		}
		settlement = s

		switch s.Kind {
		case campaign.SettlementPayout:
			return c.record(ctx, model.EventTypePayout, caller, c.contract, s.Amount, nil)
		case campaign.SettlementRefund:
			return c.record(ctx, model.EventTypeRefunded, caller, c.contract, s.Amount, nil)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Claim by %s rejected: %v", caller.Hex(), err)
		return campaign.Settlement{}, err
	}

	if settlement.Kind == campaign.SettlementNone {
		logger.Info("Claim by %s had nothing to refund", caller.Hex())
	} else {
		logger.Info("Claim %s of %s to %s", settlement.Kind, settlement.Amount, settlement.To.Hex())
	}
	return settlement, nil
}

// SetMaxPerWallet 所有者设置钱包上限
func (r *Runtime) SetMaxPerWallet(ctx context.Context, caller common.Address, max *big.Int) error {
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		if err := c.campaign.SetMaxPerWallet(ctx, caller, max); err != nil {
			return err
		}
		return c.record(ctx, model.EventTypeMaxPerWalletSet, caller, common.Address{}, max, nil)
	})
	if err != nil {
		logger.Warn("SetMaxPerWallet by %s rejected: %v", caller.Hex(), err)
		return err
	}

	logger.Info("Max per wallet set to %s", max)
	return nil
}

// Send 宿主层面的普通转账，不经过合约逻辑
func (r *Runtime) Send(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	return r.transact(ctx, func(tx *gorm.DB, now uint64) error {
		c := newCall(tx, now, common.Address{}, common.Address{})

		// 合约余额只能由 Claim 转出
		row, err := c.store.Load(ctx)
		switch {
		case err == nil:
			if from == common.HexToAddress(row.ContractAddress) {
				return ErrContractAccount
			}
		case !errors.Is(err, repository.ErrNotInitialized):
			return err
		}

		if err := c.accounts.Move(ctx, from, to, amount); err != nil {
			return err
		}
		return c.record(ctx, model.EventTypeTransfer, from, to, amount, nil)
	})
}

// ResolveStatus 截止后第一次观察到最终阶段时记录 StatusResolved 事件
func (r *Runtime) ResolveStatus(ctx context.Context) (campaign.Status, bool, error) {
	var status campaign.Status
	var recorded bool

	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		s, err := c.campaign.Status(ctx, c.now)
		if err != nil {
			return err
		}
		status = s
		if s == campaign.FundingPeriod {
			return nil
		}

		exists, err := c.events.Exists(ctx, model.EventTypeStatusResolved)
		if err != nil || exists {
			return err
		}

		funds, err := c.campaign.CurrentFunds(ctx)
		if err != nil {
			return err
		}
		recorded = true
		return c.record(ctx, model.EventTypeStatusResolved, common.Address{}, c.contract, funds, map[string]string{
			"status": s.String(),
		})
	})
	return status, recorded, err
}

// Info 查询合约概览
func (r *Runtime) Info(ctx context.Context) (*Info, error) {
	var info *Info

	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		target, err := c.campaign.Target(ctx)
		if err != nil {
			return err
		}
		deadline, err := c.campaign.Deadline(ctx)
		if err != nil {
			return err
		}
		max, err := c.campaign.MaxPerWallet(ctx)
		if err != nil {
			return err
		}
		funds, err := c.campaign.CurrentFunds(ctx)
		if err != nil {
			return err
		}
		info = &Info{
			Owner:        c.owner,
			Contract:     c.contract,
			Target:       target,
			Deadline:     deadline,
			MaxPerWallet: max,
			CurrentFunds: funds,
			Status:       campaign.DeriveStatus(c.now, deadline, funds, target),
			Now:          c.now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Status 当前阶段
func (r *Runtime) Status(ctx context.Context) (campaign.Status, error) {
	var status campaign.Status
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		s, err := c.campaign.Status(ctx, c.now)
		status = s
		return err
	})
	return status, err
}

// CurrentFunds 合约当前余额
func (r *Runtime) CurrentFunds(ctx context.Context) (*big.Int, error) {
	var funds *big.Int
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		v, err := c.campaign.CurrentFunds(ctx)
		funds = v
		return err
	})
	return funds, err
}

func (r *Runtime) Target(ctx context.Context) (*big.Int, error) {
	var target *big.Int
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		v, err := c.campaign.Target(ctx)
		target = v
		return err
	})
	return target, err
}

func (r *Runtime) Deadline(ctx context.Context) (uint64, error) {
	var deadline uint64
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		v, err := c.campaign.Deadline(ctx)
		deadline = v
		return err
	})
	return deadline, err
}

func (r *Runtime) Deposit(ctx context.Context, contributor common.Address) (*big.Int, error) {
	var deposit *big.Int
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		v, err := c.campaign.Deposit(ctx, contributor)
		deposit = v
		return err
	})
	return deposit, err
}

// MaxPerWallet 未设置时返回 nil
func (r *Runtime) MaxPerWallet(ctx context.Context) (*big.Int, error) {
	var max *big.Int
	err := r.execute(ctx, func(ctx context.Context, c *call) error {
		v, err := c.campaign.MaxPerWallet(ctx)
		max = v
		return err
	})
	return max, err
}

// BalanceOf 宿主账本中任意账户的余额
func (r *Runtime) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	var balance *big.Int
	err := r.transact(ctx, func(tx *gorm.DB, _ uint64) error {
		v, err := repository.NewAccountStore(tx).Balance(ctx, addr)
		balance = v
		return err
	})
	return balance, err
}
