package types

import "encoding/json"

// QueryRequest 链查询请求（封闭式标签联合）
// 路由器对四类请求做穷尽匹配，未知类型返回不支持错误
type QueryRequest struct {
	Bank    *BankQuery      `json:"bank,omitempty"`
	Staking *StakingQuery   `json:"staking,omitempty"`
	Wasm    *WasmQuery      `json:"wasm,omitempty"`
	Custom  json.RawMessage `json:"custom,omitempty"`
}

// BankQuery 银行模块查询
type BankQuery struct {
	Balance     *BalanceQuery     `json:"balance,omitempty"`
	AllBalances *AllBalancesQuery `json:"all_balances,omitempty"`
}

// BalanceQuery 查询指定地址指定币种的余额
type BalanceQuery struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
}

// AllBalancesQuery 查询指定地址的全部余额
type AllBalancesQuery struct {
	Address string `json:"address"`
}

// BalanceResponse Balance查询响应
type BalanceResponse struct {
	Amount Coin `json:"amount"`
}

// AllBalancesResponse AllBalances查询响应
// 未配置余额的地址返回空列表而非错误
type AllBalancesResponse struct {
	Amount Coins `json:"amount"`
}

// StakingQuery 质押模块查询
type StakingQuery struct {
	Validator      *ValidatorQuery      `json:"validator,omitempty"`
	AllValidators  *struct{}            `json:"all_validators,omitempty"`
	Delegation     *DelegationQuery     `json:"delegation,omitempty"`
	AllDelegations *AllDelegationsQuery `json:"all_delegations,omitempty"`
	BondedDenom    *struct{}            `json:"bonded_denom,omitempty"`
}

// ValidatorQuery 查询单个验证人
type ValidatorQuery struct {
	Address string `json:"address"`
}

// DelegationQuery 查询单笔委托
type DelegationQuery struct {
	Delegator string `json:"delegator"`
	Validator string `json:"validator"`
}

// AllDelegationsQuery 查询某委托人的全部委托
type AllDelegationsQuery struct {
	Delegator string `json:"delegator"`
}

// ValidatorResponse Validator查询响应，未找到时为nil
type ValidatorResponse struct {
	Validator *Validator `json:"validator"`
}

// AllValidatorsResponse AllValidators查询响应
type AllValidatorsResponse struct {
	Validators []Validator `json:"validators"`
}

// DelegationResponse Delegation查询响应，未找到时为nil
type DelegationResponse struct {
	Delegation *Delegation `json:"delegation"`
}

// AllDelegationsResponse AllDelegations查询响应
type AllDelegationsResponse struct {
	Delegations []Delegation `json:"delegations"`
}

// BondedDenomResponse BondedDenom查询响应
type BondedDenomResponse struct {
	Denom string `json:"denom"`
}

// WasmQuery 跨合约查询
type WasmQuery struct {
	Smart *SmartQuery `json:"smart,omitempty"`
}

// SmartQuery 调用目标合约的query入口
type SmartQuery struct {
	ContractAddr string          `json:"contract_addr"`
	Msg          json.RawMessage `json:"msg"`
}

// FetchQuery 自定义查询：外部HTTP抓取桥接
// 对应原生合约侧的 {"fetch": {...}} 自定义请求
type FetchQuery struct {
	Fetch *FetchRequest `json:"fetch,omitempty"`
}

// FetchRequest HTTP抓取参数
type FetchRequest struct {
	URL     string   `json:"url"`
	Method  *string  `json:"method,omitempty"`
	Body    *string  `json:"body,omitempty"`
	Headers []string `json:"headers,omitempty"` // "Name: Value" 形式
}
