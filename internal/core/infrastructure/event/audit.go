// Package event 基于asaskevich/EventBus的存储变更审计总线
//
// 🎯 **核心职责**：以预写审计（write-ahead audit）的方式广播每一次
// 存储写入/删除，供日志、REPL等订阅方观察模拟链状态的演变
//
// ⚠️ 审计钩子的任何失败（订阅方panic等）都不会影响写入本身
package event

import (
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

// 审计事件主题
const (
	// TopicStoreWrite 存储写入事件，参数为 (contract, key, value)
	TopicStoreWrite = "store:write"

	// TopicStoreRemove 存储删除事件，参数为 (contract, key)
	TopicStoreRemove = "store:remove"
)

// AuditBus 存储变更审计总线
type AuditBus struct {
	bus evbus.Bus

	// 统计计数，供诊断输出使用
	writes  atomic.Uint64
	removes atomic.Uint64
}

var _ simulation.ChangeObserver = (*AuditBus)(nil)

// NewAuditBus 创建审计总线
func NewAuditBus() *AuditBus {
	return &AuditBus{bus: evbus.New()}
}

// OnWrite 广播写入事件
// 订阅方异常被吞掉，保证写入路径不受审计影响
func (a *AuditBus) OnWrite(contract string, key, value []byte) {
	a.writes.Add(1)
	a.publish(TopicStoreWrite, contract, append([]byte(nil), key...), append([]byte(nil), value...))
}

// OnRemove 广播删除事件
func (a *AuditBus) OnRemove(contract string, key []byte) {
	a.removes.Add(1)
	a.publish(TopicStoreRemove, contract, append([]byte(nil), key...))
}

func (a *AuditBus) publish(topic string, args ...interface{}) {
	defer func() {
		// 审计链路的panic到此为止
		_ = recover()
	}()
	a.bus.Publish(topic, args...)
}

// SubscribeWrite 订阅写入事件
func (a *AuditBus) SubscribeWrite(fn func(contract string, key, value []byte)) error {
	return a.bus.Subscribe(TopicStoreWrite, fn)
}

// SubscribeRemove 订阅删除事件
func (a *AuditBus) SubscribeRemove(fn func(contract string, key []byte)) error {
	return a.bus.Subscribe(TopicStoreRemove, fn)
}

// Stats 返回累计的写入/删除次数
func (a *AuditBus) Stats() (writes, removes uint64) {
	return a.writes.Load(), a.removes.Load()
}
