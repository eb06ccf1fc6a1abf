package engine

import (
	"context"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/zap"

	chaincfg "github.com/weisyn/wasmsim/internal/config/chain"
	"github.com/weisyn/wasmsim/internal/core/querier"
	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

// Module 返回模拟引擎模块
func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			NewRegistry,
			func(config *chaincfg.Config) Params {
				options := config.GetOptions()
				return Params{
					ChainID:    options.ChainID,
					BaseHeight: options.BaseHeight,
					// 区块时间以纳秒字符串下发，与链上env格式一致
					BlockTime:    strconv.FormatUint(options.BaseTimeSeconds*1_000_000_000, 10),
					GasLimit:     options.GasLimit,
					MaxCallDepth: options.MaxCallDepth,
				}
			},
			func(
				registry *Registry,
				accounts *state.Accounts,
				factory simulation.BackendFactory,
				codec simulation.AddressCodec,
				chainQuerier simulation.ChainQuerier,
				observer simulation.ChangeObserver,
				params Params,
				logger *zap.SugaredLogger,
			) *Engine {
				return New(registry, accounts, factory, codec, chainQuerier, observer, params, logger)
			},
		),
		// 路由器的合约查询分支在装配完成后回指引擎
		fx.Invoke(func(lifecycle fx.Lifecycle, router *querier.Router, eng *Engine) {
			router.SetContractQuerier(eng)
			lifecycle.Append(fx.Hook{
				OnStop: func(context.Context) error {
					return eng.Close()
				},
			})
		}),
	)
}
