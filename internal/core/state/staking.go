package state

import (
	"sync"

	"github.com/weisyn/wasmsim/pkg/types"
)

// Staking 质押静态表
//
// 启动时从配置装入后只读；缺失条目一律返回空结果而非错误，
// 与真实链上查询模块的宽容语义一致
type Staking struct {
	mu          sync.RWMutex
	bondedDenom string
	validators  []types.Validator
	delegations []types.Delegation
}

// NewStaking 创建质押表
func NewStaking(bondedDenom string, validators []types.Validator, delegations []types.Delegation) *Staking {
	return &Staking{
		bondedDenom: bondedDenom,
		validators:  append([]types.Validator(nil), validators...),
		delegations: append([]types.Delegation(nil), delegations...),
	}
}

// BondedDenom 质押币种
func (s *Staking) BondedDenom() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bondedDenom
}

// Validator 查找验证人，未找到返回nil
func (s *Staking) Validator(addr string) *types.Validator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.validators {
		if v.Address == addr {
			out := v
			return &out
		}
	}
	return nil
}

// Validators 全部验证人
func (s *Staking) Validators() []types.Validator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Validator(nil), s.validators...)
}

// Delegation 查找单笔委托，未找到返回nil
func (s *Staking) Delegation(delegator, validator string) *types.Delegation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.delegations {
		if d.Delegator == delegator && d.Validator == validator {
			out := d
			return &out
		}
	}
	return nil
}

// DelegationsOf 某委托人的全部委托，可能为空
func (s *Staking) DelegationsOf(delegator string) []types.Delegation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Delegation
	for _, d := range s.delegations {
		if d.Delegator == delegator {
			out = append(out, d)
		}
	}
	return out
}
