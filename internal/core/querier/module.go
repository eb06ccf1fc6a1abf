package querier

import (
	"go.uber.org/fx"

	chaincfg "github.com/weisyn/wasmsim/internal/config/chain"
	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

// Module 返回链查询路由模块
//
// ⚠️ 合约查询解析需要回指引擎，而引擎又依赖路由器；
// 构造时先留空，由引擎模块在装配完成后回填（SetContractQuerier）
func Module() fx.Option {
	return fx.Module("querier",
		fx.Provide(
			func(config *chaincfg.Config) simulation.CustomQueryHandler {
				return NewFetchHandler(config.FetchTimeout())
			},
			func(accounts *state.Accounts, staking *state.Staking, custom simulation.CustomQueryHandler) *Router {
				return NewRouter(accounts, staking, nil, custom)
			},
			func(router *Router) simulation.ChainQuerier {
				return router
			},
		),
	)
}
