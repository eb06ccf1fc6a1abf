// Package chain 模拟链配置区域
//
// 承载模拟环境的链级常量（链标识、初始高度、燃气上限）、
// 预置账户与质押静态表
package chain

import (
	"time"

	"github.com/weisyn/wasmsim/pkg/types"
)

// Options 模拟链配置选项
type Options struct {
	ChainID         string `json:"chain_id"`          // 链标识
	BondedDenom     string `json:"bonded_denom"`      // 质押币种
	BaseHeight      uint64 `json:"base_height"`       // 初始区块高度
	BaseTimeSeconds uint64 `json:"base_time_seconds"` // 初始区块时间（Unix秒）
	GasLimit        uint64 `json:"gas_limit"`         // 每实例燃气上限
	MaxCallDepth    int    `json:"max_call_depth"`    // 跨合约调用深度上限
	FetchTimeoutMS  int    `json:"fetch_timeout_ms"`  // fetch自定义查询超时
	WatchIntervalMS int    `json:"watch_interval_ms"` // 合约文件轮询间隔

	Accounts    []types.UserAccount `json:"accounts"`    // 预置账户
	Validators  []types.Validator   `json:"validators"`  // 验证人静态表
	Delegations []types.Delegation  `json:"delegations"` // 委托静态表
}

// Config 模拟链配置实现
type Config struct {
	options *Options
}

// New 创建模拟链配置，用户配置覆盖默认值
func New(userConfig *types.UserChainConfig) *Config {
	options := &Options{
		ChainID:         DefaultChainID,
		BondedDenom:     DefaultDenom,
		BaseHeight:      DefaultBaseHeight,
		BaseTimeSeconds: DefaultBaseTimeSeconds,
		GasLimit:        DefaultGasLimit,
		MaxCallDepth:    defaultMaxCallDepth,
		FetchTimeoutMS:  defaultFetchTimeoutMS,
		WatchIntervalMS: defaultWatchIntervalMS,
		Accounts: []types.UserAccount{
			{Address: DefaultAccount, Coins: types.Coins{types.NewCoin(DefaultBalance, DefaultDenom)}},
		},
	}
	if userConfig != nil {
		if userConfig.ChainID != nil {
			options.ChainID = *userConfig.ChainID
		}
		if userConfig.BondedDenom != nil {
			options.BondedDenom = *userConfig.BondedDenom
		}
		if userConfig.BaseHeight != nil {
			options.BaseHeight = *userConfig.BaseHeight
		}
		if userConfig.BaseTimeSeconds != nil {
			options.BaseTimeSeconds = *userConfig.BaseTimeSeconds
		}
		if userConfig.GasLimit != nil {
			options.GasLimit = *userConfig.GasLimit
		}
		if userConfig.MaxCallDepth != nil {
			options.MaxCallDepth = *userConfig.MaxCallDepth
		}
		if userConfig.FetchTimeoutMS != nil {
			options.FetchTimeoutMS = *userConfig.FetchTimeoutMS
		}
		if userConfig.WatchIntervalMS != nil {
			options.WatchIntervalMS = *userConfig.WatchIntervalMS
		}
		if len(userConfig.Accounts) > 0 {
			options.Accounts = userConfig.Accounts
		}
		if len(userConfig.Validators) > 0 {
			options.Validators = userConfig.Validators
		}
		if len(userConfig.Delegations) > 0 {
			options.Delegations = userConfig.Delegations
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的模拟链配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// FetchTimeout fetch查询超时
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.options.FetchTimeoutMS) * time.Millisecond
}

// WatchInterval 合约文件轮询间隔
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.options.WatchIntervalMS) * time.Millisecond
}

// Balances 预置账户转换为地址→余额映射
func (c *Config) Balances() map[string]types.Coins {
	balances := make(map[string]types.Coins, len(c.options.Accounts))
	for _, account := range c.options.Accounts {
		balances[account.Address] = account.Coins
	}
	return balances
}
