package log

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(New),
		// fx自身的事件也走同一日志器
		fx.WithLogger(func(logger *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Desugar()}
		}),
	)
}
