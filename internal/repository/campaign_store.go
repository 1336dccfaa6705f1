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
	ErrNotInitialized     = errors.New("campaign is not initialized")
	ErrAlreadyInitialized = errors.New("campaign is already initialized")
)

const campaignRowID = 1

// CampaignStore 基于 GORM 的合约存储，实现 campaign.Store
type CampaignStore struct {
	db       *gorm.DB
	owner    common.Address
	contract common.Address
}

// NewCampaignStore 创建合约存储，db 通常是宿主调用中的事务
func NewCampaignStore(db *gorm.DB, owner, contract common.Address) *CampaignStore {
	return &CampaignStore{db: db, owner: owner, contract: contract}
}

// Load 读取合约配置行
func (s *CampaignStore) Load(ctx context.Context) (*model.CampaignModel, error) {
	var row model.CampaignModel
	if err := s.db.WithContext(ctx).First(&row, campaignRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	return &row, nil
}

// Initialize 写入目标金额和截止时间，只能执行一次
func (s *CampaignStore) Initialize(ctx context.Context, target *big.Int, deadline uint64) error {
	if _, err := s.Load(ctx); err == nil {
		return ErrAlreadyInitialized
	} else if !errors.Is(err, ErrNotInitialized) {
		return err
	}

	row := model.CampaignModel{
		Id:              campaignRowID,
		OwnerAddress:    s.owner.Hex(),
		ContractAddress: s.contract.Hex(),
		TargetAmount:    formatAmount(target),
		Deadline:        deadline,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (s *CampaignStore) Target(ctx context.Context) (*big.Int, error) {
	row, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return parseAmount(row.TargetAmount)
}

func (s *CampaignStore) Deadline(ctx context.Context) (uint64, error) {
	row, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return row.Deadline, nil
}

// MaxPerWallet 未设置时返回 nil
func (s *CampaignStore) MaxPerWallet(ctx context.Context) (*big.Int, error) {
	row, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if row.MaxPerWallet == nil {
		return nil, nil
	}
	return parseAmount(*row.MaxPerWallet)
}

func (s *CampaignStore) SetMaxPerWallet(ctx context.Context, max *big.Int) error {
	if _, err := s.Load(ctx); err != nil {
		return err
	}
	value := formatAmount(max)
	err := s.db.WithContext(ctx).Model(&model.CampaignModel{}).
		Where("id = ?", campaignRowID).
		Update("max_per_wallet", value).Error
	if err != nil {
		return fmt.Errorf("failed to update max per wallet: %w", err)
	}
	return nil
}

// Deposit 没有记录时返回 0
func (s *CampaignStore) Deposit(ctx context.Context, contributor common.Address) (*big.Int, error) {
	var row model.DepositModel
	err := s.db.WithContext(ctx).Where("address = ?", contributor.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("failed to load deposit: %w", err)
	}
	return parseAmount(row.Amount)
}

func (s *CampaignStore) SetDeposit(ctx context.Context, contributor common.Address, amount *big.Int) error {
	row := model.DepositModel{
		Address: contributor.Hex(),
		Amount:  formatAmount(amount),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save deposit: %w", err)
	}
	return nil
}

// ClearDeposit 删除贡献者的存款记录
func (s *CampaignStore) ClearDeposit(ctx context.Context, contributor common.Address) error {
	err := s.db.WithContext(ctx).Where("address = ?", contributor.Hex()).Delete(&model.DepositModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear deposit: %w", err)
	}
	return nil
}

// Deposits 列出所有未清零的存款
func (s *CampaignStore) Deposits(ctx context.Context) ([]model.DepositModel, error) {
	var rows []model.DepositModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return rows, nil
}
