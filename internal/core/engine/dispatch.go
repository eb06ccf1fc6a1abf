package engine

import (
	"context"
	"fmt"

	"github.com/weisyn/wasmsim/pkg/types"
)

// dispatcherAt 构造指定深度上的出站消息调度回调
//
// 📋 **递归调度协议**：
//   - wasm/execute消息：在注册表解析目标；缺失时记录失败属性
//     并继续处理剩余消息（绝不中止整个调用）；命中时以当前合约
//     为sender同步执行目标实例，原始结果串以目标地址为键记录
//     为属性
//   - 其余变体对核心不透明，以消息类别为键原样上报为属性
//
// 深度随每层跨合约执行+1，超过上限时记录可捕获的递归超限错误
func (e *Engine) dispatcherAt(ctx context.Context, depth int) dispatchFunc {
	return func(sender string, msgs []types.CosmosMsg) []types.Attribute {
		var attrs []types.Attribute
		for _, msg := range msgs {
			attrs = append(attrs, e.dispatchOne(ctx, sender, msg, depth)...)
		}
		return attrs
	}
}

func (e *Engine) dispatchOne(ctx context.Context, sender string, msg types.CosmosMsg, depth int) []types.Attribute {
	switch {
	case msg.Wasm != nil && msg.Wasm.Execute != nil:
		exec := msg.Wasm.Execute
		return []types.Attribute{{
			Key:   exec.ContractAddr,
			Value: e.executeContract(ctx, sender, exec, depth+1),
		}}

	case msg.Bank != nil:
		return []types.Attribute{{Key: "bank", Value: string(msg.Bank)}}

	case msg.Custom != nil:
		return []types.Attribute{{Key: "custom", Value: string(msg.Custom)}}

	default:
		return []types.Attribute{{Key: "message", Value: `{"error":"unsupported outbound message"}`}}
	}
}

// executeContract 同步执行目标合约，返回其原始结果串
// 调用方（dispatchOne）把结果记录为以目标地址为键的属性
func (e *Engine) executeContract(ctx context.Context, sender string, exec *types.ExecuteMsg, depth int) string {
	if depth > e.params.MaxCallDepth {
		return errorJSON(fmt.Errorf("%w: depth %d > %d", ErrRecursionLimit, depth, e.params.MaxCallDepth))
	}

	target, ok := e.registry.Get(exec.ContractAddr)
	if !ok {
		return errorJSON(fmt.Errorf("no such contract: %s", exec.ContractAddr))
	}

	info := types.MessageInfo{Sender: sender, Funds: exec.Funds}
	outcome := target.call(ctx, KindExecute, info, exec.Msg, e.dispatcherAt(ctx, depth))
	return outcome.Data
}
