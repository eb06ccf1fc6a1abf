// Package simulation 定义模拟引擎各组件之间的接缝接口
//
// 🎯 **核心职责**：约定执行后端、链状态、查询路由之间的边界，
// 使核心编排逻辑不依赖任何具体的WASM运行时实现
package simulation

import (
	"context"

	"github.com/weisyn/wasmsim/pkg/types"
)

// GasMeter 燃气计量器
//
// 📋 **计量范围**：
//   - 存储访问（按键值字节长度计费）
//   - 地址编解码（每个方向固定费用）
//   - 链查询（请求+响应字节计费）
//
// 燃气耗尽只中止当前调用，不影响实例后续使用
type GasMeter interface {
	// Consume 扣除燃气，余额不足时返回OutOfGas错误
	Consume(amount uint64, descriptor string) error

	// Consumed 返回已消耗的燃气总量
	Consumed() uint64

	// Remaining 返回剩余燃气
	Remaining() uint64

	// Limit 返回燃气上限
	Limit() uint64
}

// Backend 沙箱化执行后端
//
// 合约字节码的编译与执行由外部运行时承担，核心只通过
// 三个生命周期入口与其交互。合约逻辑错误以error返回，
// 实例保持可用（错误在调用边界被转换为 {"error": ...}）
type Backend interface {
	// Instantiate 调用合约的instantiate入口
	Instantiate(ctx context.Context, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error)

	// Execute 调用合约的execute入口
	Execute(ctx context.Context, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error)

	// Query 调用合约的query入口，返回原始响应字节
	Query(ctx context.Context, env types.Env, msg []byte) ([]byte, error)

	// GasRemaining 返回后端视角的剩余燃气
	GasRemaining() uint64

	// Close 释放后端资源
	Close() error
}

// BackendHost 后端宿主能力集合
//
// 创建后端时注入，宿主函数通过它访问实例专属的
// 存储、地址编解码、链查询与燃气计量
type BackendHost struct {
	Store   KVStore
	Codec   AddressCodec
	Querier ChainQuerier
	Meter   GasMeter
}

// BackendFactory 根据模块字节构造执行后端
//
// 热重载时对同一地址重复调用，每次返回全新的后端实例
type BackendFactory interface {
	NewBackend(code []byte, host BackendHost) (Backend, error)
}

// KVStore 燃气计费的键值存储视图
//
// 每个操作返回其燃气费用，由调用方决定如何入账
type KVStore interface {
	Get(key []byte) (value []byte, gasCost uint64)
	Set(key, value []byte) (gasCost uint64)
	Remove(key []byte) (gasCost uint64)

	// Scan 在调用时刻对匹配区间做快照并返回迭代器id
	// start > end 的区间返回空迭代器而非错误
	Scan(start, end []byte, order types.Order) (iteratorID uint64, gasCost uint64)

	// Next 推进迭代器；耗尽后返回nil键值与固定的收尾费用
	// 未知迭代器id返回IteratorNotFound错误
	Next(iteratorID uint64) (key, value []byte, gasCost uint64, err error)
}

// AddressCodec 人类可读地址与规范二进制形式的双向映射
//
// 不变式：长度界内的任意地址满足 Humanize(Canonicalize(a)) == a
type AddressCodec interface {
	Canonicalize(human string) (canonical []byte, gasCost uint64, err error)
	Humanize(canonical []byte) (human string, gasCost uint64, err error)
}

// ChainQuerier 链查询路由入口
//
// 请求与响应的字节总量按调用方的燃气计费，
// 费用超限时在返回数据之前以OutOfGas失败
type ChainQuerier interface {
	Route(request []byte, meter GasMeter) types.QueryResult
}

// ContractQuerier 跨合约智能查询解析
//
// 由注册表实现；目标地址不存在时返回NoSuchContract错误
type ContractQuerier interface {
	QueryContract(addr string, msg []byte) ([]byte, error)
}

// ChangeObserver 存储变更观察者（审计钩子）
//
// 观察者的失败绝不影响写入本身
type ChangeObserver interface {
	OnWrite(contract string, key, value []byte)
	OnRemove(contract string, key []byte)
}

// CustomQueryHandler 自定义查询处理器
//
// 由外围应用提供的同步扩展点（如外部HTTP抓取桥接）
type CustomQueryHandler func(request []byte) ([]byte, error)
