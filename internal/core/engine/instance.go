// Package engine 实现模拟引擎的编排核心：
// 合约实例生命周期、注册表与热重载、出站消息的递归调度
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/weisyn/wasmsim/internal/core/gas"
	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// CallKind 生命周期调用类型
type CallKind string

const (
	KindInstantiate CallKind = "instantiate"
	KindExecute     CallKind = "execute"
	KindQuery       CallKind = "query"
)

// ErrUnknownCallKind 非法的调用类型
var ErrUnknownCallKind = errors.New("unknown call kind")

// ParseCallKind 解析调用类型字符串
func ParseCallKind(s string) (CallKind, error) {
	switch CallKind(s) {
	case KindInstantiate, KindExecute, KindQuery:
		return CallKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCallKind, s)
	}
}

// StateChanging 是否为状态变更调用（决定区块高度推进）
func (k CallKind) StateChanging() bool {
	return k == KindInstantiate || k == KindExecute
}

// CallOutcome 一次生命周期调用的结果
type CallOutcome struct {
	// Data 结果JSON：状态变更调用为 {"message":"<kind> succeeded"}
	// 或 {"error": ...}；查询为合约原始响应字节
	Data string

	// Attributes 合约自身属性与调度产生的属性（按此顺序合并）
	Attributes []types.Attribute

	// GasUsed 本次调用消耗的燃气（后端视角前后差值）
	GasUsed uint64
}

// dispatchFunc 出站消息调度回调，由引擎注入
// 返回调度过程产生的属性
type dispatchFunc func(sender string, msgs []types.CosmosMsg) []types.Attribute

// Instance 合约实例
//
// 📋 **状态机**：装载后进入Ready，生命周期调用自环于Ready，
// 没有终止态；实例存活到被热重载替换为止。失败只影响当前
// 调用，实例保持可用
type Instance struct {
	addr    string
	backend simulation.Backend
	env     types.Env
	store   *state.Store
	meter   *gas.Meter
	logger  *zap.SugaredLogger

	gasUsedTotal uint64
}

// NewInstance 绑定模块后端、专属存储与执行环境
func NewInstance(addr string, backend simulation.Backend, store *state.Store, meter *gas.Meter, env types.Env, logger *zap.SugaredLogger) *Instance {
	return &Instance{
		addr:    addr,
		backend: backend,
		env:     env,
		store:   store,
		meter:   meter,
		logger:  logger,
	}
}

// Address 合约地址
func (inst *Instance) Address() string { return inst.addr }

// Env 当前执行环境快照
func (inst *Instance) Env() types.Env { return inst.env }

// Store 实例专属存储（仅引擎内部与热重载使用）
func (inst *Instance) Store() *state.Store { return inst.store }

// GasUsedTotal 实例累计消耗的燃气
func (inst *Instance) GasUsedTotal() uint64 { return inst.gasUsedTotal }

// call 执行一次生命周期调用
//
// 流程：记录燃气水位 → 调用后端入口 → 成功时调度出站消息并
// 合并属性 → 状态变更调用推进区块高度 → 结算燃气。
// 调用期间打开的迭代器在返回前整体回收
func (inst *Instance) call(ctx context.Context, kind CallKind, info types.MessageInfo, msg []byte, dispatch dispatchFunc) CallOutcome {
	iterMark := inst.store.NextIteratorID()
	defer inst.store.ReleaseIteratorsFrom(iterMark)

	gasBefore := inst.backend.GasRemaining()

	var outcome CallOutcome
	switch kind {
	case KindQuery:
		data, err := inst.backend.Query(ctx, inst.env, msg)
		if err != nil {
			outcome.Data = errorJSON(err)
		} else {
			outcome.Data = string(data)
		}

	case KindInstantiate, KindExecute:
		var resp *types.Response
		var err error
		if kind == KindInstantiate {
			resp, err = inst.backend.Instantiate(ctx, inst.env, info, msg)
		} else {
			resp, err = inst.backend.Execute(ctx, inst.env, info, msg)
		}
		if err != nil {
			outcome.Data = errorJSON(err)
			break
		}

		outcome.Attributes = append(outcome.Attributes, resp.Attributes...)
		if dispatch != nil && len(resp.Messages) > 0 {
			// 调度产生的属性排在合约自身属性之后
			outcome.Attributes = append(outcome.Attributes, dispatch(inst.addr, resp.Messages)...)
		}

		// 成功的状态变更调用使本实例高度+1，查询不推进
		inst.env.Block.Height++
		outcome.Data = fmt.Sprintf(`{"message":"%s succeeded"}`, kind)

	default:
		outcome.Data = errorJSON(fmt.Errorf("%w: %q", ErrUnknownCallKind, kind))
	}

	if after := inst.backend.GasRemaining(); gasBefore >= after {
		outcome.GasUsed = gasBefore - after
	}
	inst.gasUsedTotal += outcome.GasUsed

	if inst.logger != nil {
		inst.logger.Debugw("合约调用完成",
			"contract", inst.addr,
			"kind", string(kind),
			"gas_used", outcome.GasUsed,
			"height", inst.env.Block.Height,
		)
	}
	return outcome
}

// Close 释放后端资源
func (inst *Instance) Close() error {
	return inst.backend.Close()
}

// errorJSON 把任意错误转换为 {"error": ...} 结果
// 燃气耗尽与合约逻辑错误同等对待：可恢复，实例继续可用
func errorJSON(err error) string {
	return string(types.MustMarshalJSON(map[string]string{"error": err.Error()}))
}
