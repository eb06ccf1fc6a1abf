package http

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	apicfg "github.com/weisyn/wasmsim/internal/config/api"
	"github.com/weisyn/wasmsim/internal/core/engine"
)

// Module 返回REST服务模块
// 配置未启用REST时不注册任何东西由调用方决定，这里始终挂接
// 生命周期钩子，Enabled=false时Start直接跳过
func Module() fx.Option {
	return fx.Module("api-http",
		fx.Provide(func(config *apicfg.Config, eng *engine.Engine, logger *zap.SugaredLogger) *Server {
			return NewServer(config, eng, logger)
		}),
		fx.Invoke(func(lifecycle fx.Lifecycle, config *apicfg.Config, server *Server) {
			if !config.GetOptions().Enabled {
				return
			}
			lifecycle.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					return server.Start()
				},
				OnStop: func(ctx context.Context) error {
					return server.Stop(ctx)
				},
			})
		}),
	)
}
