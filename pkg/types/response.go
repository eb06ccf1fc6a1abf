package types

import "encoding/json"

// Attribute 合约调用产生的键值属性
// 属性最终汇总到调用结果中呈现给调用方
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response 合约入口成功执行后的返回结构
type Response struct {
	Attributes []Attribute `json:"attributes"` // 合约自身产生的属性
	Messages   []CosmosMsg `json:"messages"`   // 出站消息（由调度器继续解析）
}

// CosmosMsg 出站消息（封闭式标签联合）
// 核心只负责解析Wasm执行消息；其余变体对核心不透明，
// 由调度器以属性形式原样上报
type CosmosMsg struct {
	Wasm   *WasmMsg        `json:"wasm,omitempty"`
	Bank   json.RawMessage `json:"bank,omitempty"`
	Custom json.RawMessage `json:"custom,omitempty"`
}

// WasmMsg Wasm类出站消息
type WasmMsg struct {
	Execute *ExecuteMsg `json:"execute,omitempty"`
}

// ExecuteMsg 请求环境同步调用另一个合约
type ExecuteMsg struct {
	ContractAddr string          `json:"contract_addr"` // 目标合约地址
	Msg          json.RawMessage `json:"msg"`           // 原样透传的调用负载
	Funds        Coins           `json:"funds"`         // 随调用转移的资金
}

// ContractResult 合约层面的成功/失败判别结果
// Err非空表示合约逻辑错误（可恢复，实例保持可用）
type ContractResult struct {
	Ok  *Response `json:"ok,omitempty"`
	Err string    `json:"error,omitempty"`
}

// QueryResult 查询的成功/失败判别结果
type QueryResult struct {
	Ok  []byte `json:"ok,omitempty"`
	Err string `json:"error,omitempty"`
}
