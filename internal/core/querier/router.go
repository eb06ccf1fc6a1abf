// Package querier 实现多路复用的链查询路由
//
// 🎯 **核心职责**：在一个入口上回答银行、质押、跨合约与自定义
// 四类查询，并按请求+响应字节对调用方燃气计费。本层没有真实
// 沙箱，但它是燃气公平性的基准点：费用超限时在返回数据之前
// 以OutOfGas失败
package querier

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// GasPerRequestByte 查询请求+响应每字节燃气费用
const GasPerRequestByte = 1

// ErrUnsupportedQuery 路由器无法识别的请求类型
var ErrUnsupportedQuery = errors.New("unsupported query request")

// Router 链查询路由器
//
// 跨合约查询通过注册表递归进入目标实例的query入口；
// 目标实例的燃气独立核算，不计入调用方（独立实例原则）
type Router struct {
	accounts  *state.Accounts
	staking   *state.Staking
	contracts simulation.ContractQuerier
	custom    simulation.CustomQueryHandler
}

var _ simulation.ChainQuerier = (*Router)(nil)

// NewRouter 创建路由器
// contracts与custom均可为nil（相应类别的查询将失败）
func NewRouter(accounts *state.Accounts, staking *state.Staking, contracts simulation.ContractQuerier, custom simulation.CustomQueryHandler) *Router {
	return &Router{
		accounts:  accounts,
		staking:   staking,
		contracts: contracts,
		custom:    custom,
	}
}

// SetContractQuerier 绑定跨合约查询解析器
// 注册表在路由器之后构造，通过本方法回填
func (r *Router) SetContractQuerier(contracts simulation.ContractQuerier) {
	r.contracts = contracts
}

// Route 处理一次链查询
//
// 成功与失败都体现在QueryResult中；唯一的前置失败通道是
// 燃气计费：请求+响应字节费用超出调用方余额时返回OutOfGas
// 且不返回数据
func (r *Router) Route(request []byte, meter simulation.GasMeter) types.QueryResult {
	var req types.QueryRequest
	if err := json.Unmarshal(request, &req); err != nil {
		return types.QueryResult{Err: fmt.Sprintf("invalid query request: %v", err)}
	}

	data, err := r.dispatch(&req)
	if err != nil {
		return types.QueryResult{Err: err.Error()}
	}

	// 请求与响应的总字节量先于数据返回计费
	if meter != nil {
		cost := uint64(len(request)+len(data)) * GasPerRequestByte
		if err := meter.Consume(cost, "chain query"); err != nil {
			return types.QueryResult{Err: err.Error()}
		}
	}
	return types.QueryResult{Ok: data}
}

// dispatch 对封闭联合做穷尽匹配
func (r *Router) dispatch(req *types.QueryRequest) ([]byte, error) {
	switch {
	case req.Bank != nil:
		return r.queryBank(req.Bank)
	case req.Staking != nil:
		return r.queryStaking(req.Staking)
	case req.Wasm != nil:
		return r.queryWasm(req.Wasm)
	case req.Custom != nil:
		if r.custom == nil {
			return nil, fmt.Errorf("%w: no custom handler installed", ErrUnsupportedQuery)
		}
		return r.custom(req.Custom)
	default:
		return nil, ErrUnsupportedQuery
	}
}

func (r *Router) queryBank(q *types.BankQuery) ([]byte, error) {
	switch {
	case q.Balance != nil:
		res := types.BalanceResponse{Amount: r.accounts.Balance(q.Balance.Address, q.Balance.Denom)}
		return types.MustMarshalJSON(res), nil
	case q.AllBalances != nil:
		res := types.AllBalancesResponse{Amount: r.accounts.AllBalances(q.AllBalances.Address)}
		return types.MustMarshalJSON(res), nil
	default:
		return nil, fmt.Errorf("%w: unknown bank query", ErrUnsupportedQuery)
	}
}

func (r *Router) queryStaking(q *types.StakingQuery) ([]byte, error) {
	switch {
	case q.Validator != nil:
		res := types.ValidatorResponse{Validator: r.staking.Validator(q.Validator.Address)}
		return types.MustMarshalJSON(res), nil
	case q.AllValidators != nil:
		res := types.AllValidatorsResponse{Validators: r.staking.Validators()}
		return types.MustMarshalJSON(res), nil
	case q.Delegation != nil:
		res := types.DelegationResponse{Delegation: r.staking.Delegation(q.Delegation.Delegator, q.Delegation.Validator)}
		return types.MustMarshalJSON(res), nil
	case q.AllDelegations != nil:
		res := types.AllDelegationsResponse{Delegations: r.staking.DelegationsOf(q.AllDelegations.Delegator)}
		return types.MustMarshalJSON(res), nil
	case q.BondedDenom != nil:
		res := types.BondedDenomResponse{Denom: r.staking.BondedDenom()}
		return types.MustMarshalJSON(res), nil
	default:
		return nil, fmt.Errorf("%w: unknown staking query", ErrUnsupportedQuery)
	}
}

// queryWasm 跨合约智能查询
// 目标实例自行核算燃气，此处不向调用方转嫁其消耗
func (r *Router) queryWasm(q *types.WasmQuery) ([]byte, error) {
	if q.Smart == nil {
		return nil, fmt.Errorf("%w: unknown wasm query", ErrUnsupportedQuery)
	}
	if r.contracts == nil {
		return nil, fmt.Errorf("%w: %s", simulation.ErrNoSuchContract, q.Smart.ContractAddr)
	}
	return r.contracts.QueryContract(q.Smart.ContractAddr, q.Smart.Msg)
}
