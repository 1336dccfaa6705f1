package chain

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/blues/crowdfund/internal/config"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/ethereum/go-ethereum/ethclient"
)

const dialAttempts = 5

var supportedTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism"}

// Dial 创建链客户端并测试连接
func Dial(ctx context.Context, cfg config.ChainConfig) (*ethclient.Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}
	if !slices.Contains(supportedTypes, cfg.ChainType) {
		return nil, fmt.Errorf("unsupported chain type %s, supported types: %v", cfg.ChainType, supportedTypes)
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	err = retry.Do(func() error {
		return checkChain(ctx, client, cfg.ChainId)
	},
		retry.Context(ctx),
		retry.Attempts(dialAttempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn("%s node check attempt %d/%d failed: %v", cfg.ChainType, attempt+1, dialAttempts, err)
		}),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}

	logger.Info("Successfully created %s client", cfg.ChainType)
	return client, nil
}

// checkChain 确认节点可用，配置了链ID时校验是否一致
func checkChain(ctx context.Context, client *ethclient.Client, chainId int64) error {
	if _, err := client.BlockNumber(ctx); err != nil {
		return fmt.Errorf("failed to get block number: %w", err)
	}
	if chainId == 0 {
		return nil
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if id.Int64() != chainId {
		return fmt.Errorf("chain id mismatch: node reports %s, configured %d", id, chainId)
	}
	return nil
}
