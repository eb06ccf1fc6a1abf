package wasm

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

// Module 返回WASM执行引擎模块
func Module() fx.Option {
	return fx.Module("engine-wasm",
		fx.Provide(
			DefaultConfig,
			NewFactory,
			func(factory *Factory) simulation.BackendFactory {
				return factory
			},
		),
		fx.Invoke(func(lifecycle fx.Lifecycle, factory *Factory) {
			lifecycle.Append(fx.Hook{
				OnStop: func(context.Context) error {
					return factory.Close()
				},
			})
		}),
	)
}
