package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// HeaderReader 读取区块头，ethclient.Client 和模拟后端都满足
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// BlockClock 以最新区块时间作为宿主时间
type BlockClock struct {
	reader HeaderReader
}

// NewBlockClock 创建区块时钟
func NewBlockClock(reader HeaderReader) *BlockClock {
	return &BlockClock{reader: reader}
}

// Now 返回最新区块的时间戳（unix 秒）
func (c *BlockClock) Now(ctx context.Context) (uint64, error) {
	header, err := c.reader.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest header: %w", err)
	}
	return header.Time, nil
}
