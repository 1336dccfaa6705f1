package handler

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("无效的地址 %s: %q", field, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("无效的金额 %s: %q", field, s)
	}
	return v, nil
}
