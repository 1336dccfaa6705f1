package host

import (
	"context"
	"math/big"

	"github.com/blues/crowdfund/internal/repository"
	"github.com/ethereum/go-ethereum/common"
)

// contractLedger 把账户存储适配为合约视角的 campaign.Ledger
type contractLedger struct {
	accounts *repository.AccountStore
	contract common.Address
}

func (l contractLedger) Balance(ctx context.Context) (*big.Int, error) {
	return l.accounts.Balance(ctx, l.contract)
}

func (l contractLedger) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return l.accounts.Move(ctx, l.contract, to, amount)
}
