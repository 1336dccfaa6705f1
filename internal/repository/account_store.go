package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/blues/crowdfund/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must not be negative")
)

// AccountStore 宿主账本余额
type AccountStore struct {
	db *gorm.DB
}

// NewAccountStore 创建账户存储
func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

// Balance 查询余额，不存在的账户余额为 0
func (s *AccountStore) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var row model.AccountModel
	err := s.db.WithContext(ctx).Where("address = ?", addr.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("failed to load account %s: %w", addr.Hex(), err)
	}
	return parseAmount(row.Balance)
}

// Credit 增加余额
func (s *AccountStore) Credit(ctx context.Context, addr common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	balance, err := s.Balance(ctx, addr)
	if err != nil {
		return err
	}
	return s.save(ctx, addr, balance.Add(balance, amount))
}

// Debit 扣减余额，余额不足时返回 ErrInsufficientBalance
func (s *AccountStore) Debit(ctx context.Context, addr common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	balance, err := s.Balance(ctx, addr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, addr.Hex(), balance, amount)
	}
	return s.save(ctx, addr, balance.Sub(balance, amount))
}

// Move 从 from 转账到 to，调用方需要保证在事务中执行
func (s *AccountStore) Move(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if err := s.Debit(ctx, from, amount); err != nil {
		return err
	}
	return s.Credit(ctx, to, amount)
}

func (s *AccountStore) save(ctx context.Context, addr common.Address, balance *big.Int) error {
	row := model.AccountModel{
		Address: addr.Hex(),
		Balance: formatAmount(balance),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", addr.Hex(), err)
	}
	return nil
}
