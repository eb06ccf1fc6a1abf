package state

import (
	"go.uber.org/fx"

	chaincfg "github.com/weisyn/wasmsim/internal/config/chain"
)

// Module 返回链上静态状态模块
// 账户余额、验证人与委托表均来自链配置的预置数据
func Module() fx.Option {
	return fx.Module("state",
		fx.Provide(
			func(config *chaincfg.Config) *Accounts {
				return NewAccounts(config.Balances())
			},
			func(config *chaincfg.Config) *Staking {
				options := config.GetOptions()
				return NewStaking(options.BondedDenom, options.Validators, options.Delegations)
			},
		),
	)
}
