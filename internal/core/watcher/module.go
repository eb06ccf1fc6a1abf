package watcher

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	chaincfg "github.com/weisyn/wasmsim/internal/config/chain"
	"github.com/weisyn/wasmsim/internal/core/engine"
)

// Module 返回合约文件监视模块
// 监视目标（命令行指定的wasm文件及其同级合约目录）由应用层提供
func Module() fx.Option {
	return fx.Module("watcher",
		fx.Provide(
			func(targets []Target, eng *engine.Engine, config *chaincfg.Config, logger *zap.SugaredLogger) *Watcher {
				return New(eng, targets, config.WatchInterval(), logger)
			},
		),
		fx.Invoke(func(lifecycle fx.Lifecycle, w *Watcher) {
			watchCtx, cancel := context.WithCancel(context.Background())
			lifecycle.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if err := w.LoadAll(); err != nil {
						cancel()
						return err
					}
					go w.Run(watchCtx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
