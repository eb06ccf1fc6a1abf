// Package gas 提供调用级燃气计量实现
//
// 燃气是模拟器中对存储访问、地址编解码与链查询的统一计费单位，
// 也是单次调用唯一的终止保障（参见链配置中的燃气上限）
package gas

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfGas 燃气耗尽
// 作为合约层错误对外呈现，只中止当前调用
var ErrOutOfGas = errors.New("out of gas")

// Meter 燃气计量器
//
// 一个计量器绑定一个合约实例，生命周期内累计消耗；
// 多处宿主函数并发访问时由内部互斥保护
type Meter struct {
	mu       sync.Mutex
	limit    uint64
	consumed uint64
}

// NewMeter 创建指定上限的计量器
func NewMeter(limit uint64) *Meter {
	return &Meter{limit: limit}
}

// Consume 扣除燃气
// 余额不足时返回ErrOutOfGas，且不做部分扣除
func (m *Meter) Consume(amount uint64, descriptor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount > m.limit-m.consumed {
		// 直接打满，后续操作全部失败
		m.consumed = m.limit
		return fmt.Errorf("%w: %s needs %d", ErrOutOfGas, descriptor, amount)
	}
	m.consumed += amount
	return nil
}

// Consumed 已消耗燃气
func (m *Meter) Consumed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumed
}

// Remaining 剩余燃气
func (m *Meter) Remaining() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit - m.consumed
}

// Limit 燃气上限
func (m *Meter) Limit() uint64 {
	return m.limit
}
