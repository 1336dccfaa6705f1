package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// ChainConfig 宿主时间来源
type ChainConfig struct {
	Clock     string `mapstructure:"clock"`      // system: 本机时间, block: 最新区块时间
	ChainType string `mapstructure:"chain_type"` // 链类型 (ethereum, polygon, etc.)
	ChainId   int64  `mapstructure:"chain_id"`   // 链ID
	RpcUrl    string `mapstructure:"rpc_url"`    // RPC节点URL
}

// CampaignConfig 部署参数，仅在首次启动时生效
type CampaignConfig struct {
	Owner    string            `mapstructure:"owner"`    // 所有者地址
	Target   string            `mapstructure:"target"`   // 目标金额（十进制）
	Deadline uint64            `mapstructure:"deadline"` // 截止时间（unix 秒）
	Genesis  map[string]string `mapstructure:"genesis"`  // 初始账户余额: 地址 -> 金额
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Load 从配置文件和环境变量加载配置
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/crowdfunding")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFile 读取指定的配置文件
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// 环境变量 CFS_SERVER_PORT 覆盖 server.port
	v.SetEnvPrefix("CFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "crowdfunding")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "crowdfunding.db")
	v.SetDefault("chain.clock", "system")
	v.SetDefault("chain.chain_type", "ethereum")
	v.SetDefault("task.interval", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Validate 启动前检查配置
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Campaign.Owner) {
		return fmt.Errorf("campaign.owner is not a valid address: %q", c.Campaign.Owner)
	}
	if _, err := ParseAmount(c.Campaign.Target); err != nil {
		return fmt.Errorf("campaign.target: %w", err)
	}
	for addr, amount := range c.Campaign.Genesis {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("campaign.genesis: invalid address %q", addr)
		}
		if _, err := ParseAmount(amount); err != nil {
			return fmt.Errorf("campaign.genesis[%s]: %w", addr, err)
		}
	}
	switch c.Chain.Clock {
	case "system":
	case "block":
		if c.Chain.RpcUrl == "" {
			return errors.New("chain.rpc_url is required for block clock")
		}
	default:
		return fmt.Errorf("unsupported chain.clock %q", c.Chain.Clock)
	}
	if c.Task.Interval <= 0 {
		return fmt.Errorf("task.interval must be positive, got %d", c.Task.Interval)
	}
	return nil
}

// OwnerAddress 所有者地址
func (c CampaignConfig) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// TargetAmount 目标金额
func (c CampaignConfig) TargetAmount() *big.Int {
	v, _ := ParseAmount(c.Target)
	return v
}

// GenesisAlloc 初始账户余额
func (c CampaignConfig) GenesisAlloc() map[common.Address]*big.Int {
	alloc := make(map[common.Address]*big.Int, len(c.Genesis))
	for addr, amount := range c.Genesis {
		v, _ := ParseAmount(amount)
		alloc[common.HexToAddress(addr)] = v
	}
	return alloc
}

// ParseAmount 解析十进制金额字符串
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %s", s)
	}
	return v, nil
}
