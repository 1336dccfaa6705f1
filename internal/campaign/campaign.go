package campaign

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Store 合约持久化存储
//
// 每次调用由宿主提供一个事务内的 Store，失败时宿主负责回滚。
type Store interface {
	Initialize(ctx context.Context, target *big.Int, deadline uint64) error
	Target(ctx context.Context) (*big.Int, error)
	Deadline(ctx context.Context) (uint64, error)
	// MaxPerWallet 未设置上限时返回 nil
	MaxPerWallet(ctx context.Context) (*big.Int, error)
	SetMaxPerWallet(ctx context.Context, max *big.Int) error
	// Deposit 不存在的记录返回 0
	Deposit(ctx context.Context, contributor common.Address) (*big.Int, error)
	SetDeposit(ctx context.Context, contributor common.Address, amount *big.Int) error
	ClearDeposit(ctx context.Context, contributor common.Address) error
}

// Ledger 宿主账本，提供合约余额和转账能力
type Ledger interface {
	Balance(ctx context.Context) (*big.Int, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// SettlementKind 结算类型
type SettlementKind string

const (
	SettlementNone   SettlementKind = "none"   // 无操作（零存款退款）
	SettlementPayout SettlementKind = "payout" // 成功后付款给所有者
	SettlementRefund SettlementKind = "refund" // 失败后退款给贡献者
)

// Settlement Claim 的执行结果
type Settlement struct {
	Kind   SettlementKind
	To     common.Address
	Amount *big.Int
}

// Campaign 众筹状态机
type Campaign struct {
	owner  common.Address
	store  Store
	ledger Ledger
}

// New 创建状态机实例，owner 由宿主在部署时确定
func New(owner common.Address, store Store, ledger Ledger) *Campaign {
	return &Campaign{
		owner:  owner,
		store:  store,
		ledger: ledger,
	}
}

// Owner 返回所有者地址
func (c *Campaign) Owner() common.Address {
	return c.owner
}

// Initialize 初始化目标金额和截止时间
func (c *Campaign) Initialize(ctx context.Context, target *big.Int, deadline, now uint64) error {
	if target == nil || target.Sign() <= 0 {
		return ErrInvalidTarget
	}
	if deadline <= now {
		return ErrInvalidDeadline
	}
	return c.store.Initialize(ctx, target, deadline)
}

// SetMaxPerWallet 设置单个钱包的累计贡献上限（仅所有者）
func (c *Campaign) SetMaxPerWallet(ctx context.Context, caller common.Address, max *big.Int) error {
	if caller != c.owner {
		return ErrUnauthorized
	}
	if max == nil || max.Sign() <= 0 {
		return ErrInvalidCap
	}
	return c.store.SetMaxPerWallet(ctx, max)
}

// Fund 记录一次贡献，payment 已由宿主转入合约余额
func (c *Campaign) Fund(ctx context.Context, caller common.Address, payment *big.Int, now uint64) error {
	deadline, err := c.store.Deadline(ctx)
	if err != nil {
		return err
	}
	// 严格早于截止时间，比 DeriveStatus 的判断更严格
	if now >= deadline {
		return ErrCampaignClosed
	}

	deposited, err := c.store.Deposit(ctx, caller)
	if err != nil {
		return err
	}
	newTotal := new(big.Int).Set(deposited)
	if payment != nil {
		newTotal.Add(newTotal, payment)
	}

	max, err := c.store.MaxPerWallet(ctx)
	if err != nil {
		return err
	}
	if max != nil && newTotal.Cmp(max) > 0 {
		return ErrWalletCapExceeded
	}

	return c.store.SetDeposit(ctx, caller, newTotal)
}

// Claim 截止后结算：成功时所有者提走全部余额，失败时贡献者取回自己的存款
func (c *Campaign) Claim(ctx context.Context, caller common.Address, now uint64) (Settlement, error) {
	status, err := c.Status(ctx, now)
	if err != nil {
		return Settlement{}, err
	}

	switch status {
	case FundingPeriod:
		return Settlement{}, ErrTooEarly

	case Successful:
		if caller != c.owner {
			return Settlement{}, ErrUnauthorized
		}
		balance, err := c.ledger.Balance(ctx)
		if err != nil {
			return Settlement{}, err
		}
		if err := c.ledger.Transfer(ctx, caller, balance); err != nil {
			return Settlement{}, fmt.Errorf("payout to owner: %w", err)
		}
		return Settlement{Kind: SettlementPayout, To: caller, Amount: balance}, nil

	default:
		deposit, err := c.store.Deposit(ctx, caller)
		if err != nil {
			return Settlement{}, err
		}
		if deposit.Sign() <= 0 {
			return Settlement{Kind: SettlementNone, To: caller, Amount: new(big.Int)}, nil
		}
		// 先清零再转账，重入的 Claim 只能看到 0
		if err := c.store.ClearDeposit(ctx, caller); err != nil {
			return Settlement{}, err
		}
		if err := c.ledger.Transfer(ctx, caller, deposit); err != nil {
			return Settlement{}, fmt.Errorf("refund to %s: %w", caller.Hex(), err)
		}
		return Settlement{Kind: SettlementRefund, To: caller, Amount: deposit}, nil
	}
}

// Status 当前阶段，每次都重新计算
func (c *Campaign) Status(ctx context.Context, now uint64) (Status, error) {
	deadline, err := c.store.Deadline(ctx)
	if err != nil {
		return FundingPeriod, err
	}
	funds, err := c.ledger.Balance(ctx)
	if err != nil {
		return FundingPeriod, err
	}
	target, err := c.store.Target(ctx)
	if err != nil {
		return FundingPeriod, err
	}
	return DeriveStatus(now, deadline, funds, target), nil
}

// CurrentFunds 合约当前持有的余额
func (c *Campaign) CurrentFunds(ctx context.Context) (*big.Int, error) {
	return c.ledger.Balance(ctx)
}

func (c *Campaign) Target(ctx context.Context) (*big.Int, error) {
	return c.store.Target(ctx)
}

func (c *Campaign) Deadline(ctx context.Context) (uint64, error) {
	return c.store.Deadline(ctx)
}

func (c *Campaign) Deposit(ctx context.Context, contributor common.Address) (*big.Int, error) {
	return c.store.Deposit(ctx, contributor)
}

// MaxPerWallet 未设置时返回 nil
func (c *Campaign) MaxPerWallet(ctx context.Context) (*big.Int, error) {
	return c.store.MaxPerWallet(ctx)
}
