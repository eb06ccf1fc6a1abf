package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// ErrRecursionLimit 跨合约调用深度超限
// 两个合约互相调用可以无限递归，深度上限把这种失控变成
// 可捕获的合约错误而不是栈耗尽
var ErrRecursionLimit = errors.New("recursion limit exceeded")

// Engine 模拟引擎
//
// 🎯 **核心职责**：编排一次 call(kind, payload, account)：
// 解析默认账户 → 进入全局互斥 → 调用目标实例 → 递归调度
// 出站消息 → 汇总属性与燃气
//
// 📋 **并发模型**：单一引擎锁，同一时刻只有一次外部调用在
// 进行。递归调度严格发生在Call之下（锁已持有），内部一律走
// 不加锁路径，因此不存在锁重入问题。装载/替换同样在锁内，
// 对并发调用表现为原子操作
type Engine struct {
	mu sync.Mutex

	registry *Registry
	accounts *state.Accounts
	factory  simulation.BackendFactory
	codec    simulation.AddressCodec
	querier  simulation.ChainQuerier
	observer simulation.ChangeObserver
	params   Params
	logger   *zap.SugaredLogger
}

var _ simulation.ContractQuerier = (*Engine)(nil)

// New 创建引擎
// querier的跨合约解析需要回指引擎本身，构造后由调用方回填
func New(
	registry *Registry,
	accounts *state.Accounts,
	factory simulation.BackendFactory,
	codec simulation.AddressCodec,
	querier simulation.ChainQuerier,
	observer simulation.ChangeObserver,
	params Params,
	logger *zap.SugaredLogger,
) *Engine {
	if params.MaxCallDepth <= 0 {
		params.MaxCallDepth = DefaultMaxCallDepth
	}
	return &Engine{
		registry: registry,
		accounts: accounts,
		factory:  factory,
		codec:    codec,
		querier:  querier,
		observer: observer,
		params:   params,
		logger:   logger,
	}
}

// DefaultMaxCallDepth 默认的跨合约调用深度上限
const DefaultMaxCallDepth = 32

// Call 外部调用入口
//
// account为空时使用默认账户（字典序最小的已配置地址）。
// 所有失败都以 {"error": ...} 形式体现在CallOutcome.Data中，
// 返回error仅表示调用根本无法定位（未知kind/地址/账户）
func (e *Engine) Call(ctx context.Context, kind CallKind, addr string, payload []byte, account string) (CallOutcome, error) {
	if _, err := ParseCallKind(string(kind)); err != nil {
		return CallOutcome{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.registry.Get(addr)
	if !ok {
		return CallOutcome{}, fmt.Errorf("%w: %s", simulation.ErrNoSuchContract, addr)
	}

	info := types.MessageInfo{Sender: account, Funds: types.Coins{}}
	if info.Sender == "" {
		def, err := e.accounts.DefaultAddress()
		if err != nil {
			return CallOutcome{}, err
		}
		info.Sender = def
	}

	if e.logger != nil {
		e.logger.Infow("调用开始", "contract", addr, "kind", string(kind), "sender", info.Sender)
	}
	outcome := inst.call(ctx, kind, info, payload, e.dispatcherAt(ctx, 0))
	return outcome, nil
}

// LoadOrReplace 装载或热替换合约模块
//
// 同地址已有实例时，把其存储内容复制进新实例后再安装，
// 使模拟链状态在合约二进制更新后存活。整个过程持有引擎锁，
// 对其他地址上的并发调用表现为原子操作
func (e *Engine) LoadOrReplace(addr string, code []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, _ := e.registry.Get(addr)
	inst, err := buildInstance(addr, code, prev, e.factory, e.codec, e.querier, e.observer, e.params, e.logger)
	if err != nil {
		return err
	}

	old := e.registry.install(inst)
	if old != nil {
		// 旧后端资源立即释放；其存储已整体复制，不再被引用
		_ = old.Close()
		if e.logger != nil {
			e.logger.Infow("合约已热替换", "contract", addr)
		}
	} else if e.logger != nil {
		e.logger.Infow("合约已装载", "contract", addr)
	}
	return nil
}

// QueryContract 跨合约智能查询解析（simulation.ContractQuerier）
//
// ⚠️ 仅在一次调用内部（引擎锁已持有）由查询路由器触发，
// 因此直接走不加锁路径。目标实例的燃气独立核算
func (e *Engine) QueryContract(addr string, msg []byte) ([]byte, error) {
	inst, ok := e.registry.Get(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", simulation.ErrNoSuchContract, addr)
	}
	outcome := inst.call(context.Background(), KindQuery, types.MessageInfo{}, msg, nil)
	return []byte(outcome.Data), nil
}

// Addresses 已注册合约地址（字典序）
func (e *Engine) Addresses() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Addresses()
}

// ContractEnv 读取某实例的环境快照（REPL展示用）
func (e *Engine) ContractEnv(addr string) (types.Env, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.registry.Get(addr)
	if !ok {
		return types.Env{}, false
	}
	return inst.Env(), true
}

// DefaultAccount 默认账户地址
func (e *Engine) DefaultAccount() (string, error) {
	return e.accounts.DefaultAddress()
}

// Close 关闭全部实例后端
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for _, addr := range e.registry.Addresses() {
		if inst, ok := e.registry.Get(addr); ok {
			if err := inst.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
