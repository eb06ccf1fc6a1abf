package event

import (
	"go.uber.org/fx"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

// Module 返回事件模块
// 审计总线同时作为状态变更观察者注入引擎与存储
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(
			NewAuditBus,
			func(bus *AuditBus) simulation.ChangeObserver {
				return bus
			},
		),
	)
}
