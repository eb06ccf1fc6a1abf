package state

import (
	"errors"
	"sort"
	"sync"

	"github.com/weisyn/wasmsim/pkg/types"
)

// ErrNoAccountFound 账户不存在
// 仅更新路径使用；查询路径按链上惯例对未知地址返回零余额
var ErrNoAccountFound = errors.New("no account found")

// Accounts 账户余额表
//
// 启动时从配置装入，运行期间地址只增不删；
// 余额可被路由层的更新操作修改
type Accounts struct {
	mu       sync.RWMutex
	balances map[string]types.Coins
}

// NewAccounts 从初始余额创建账户表
func NewAccounts(initial map[string]types.Coins) *Accounts {
	balances := make(map[string]types.Coins, len(initial))
	for addr, coins := range initial {
		balances[addr] = append(types.Coins(nil), coins...)
	}
	return &Accounts{balances: balances}
}

// Balance 查询指定币种余额，未知地址/币种返回零余额
func (a *Accounts) Balance(addr, denom string) types.Coin {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if coins, ok := a.balances[addr]; ok {
		if c, found := coins.Find(denom); found {
			return c
		}
	}
	return types.Coin{Denom: denom, Amount: "0"}
}

// AllBalances 查询全部余额，未知地址返回空列表（不是错误）
func (a *Accounts) AllBalances(addr string) types.Coins {
	a.mu.RLock()
	defer a.mu.RUnlock()

	coins, ok := a.balances[addr]
	if !ok {
		return types.Coins{}
	}
	return append(types.Coins(nil), coins...)
}

// UpdateBalance 整体替换地址余额，返回旧值
// 地址不存在时视为新建（对应链上的首次入金）
func (a *Accounts) UpdateBalance(addr string, coins types.Coins) types.Coins {
	a.mu.Lock()
	defer a.mu.Unlock()

	old := a.balances[addr]
	a.balances[addr] = append(types.Coins(nil), coins...)
	return old
}

// Addresses 返回全部地址（字典序）
func (a *Accounts) Addresses() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	addrs := make([]string, 0, len(a.balances))
	for addr := range a.balances {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// DefaultAddress 默认账户：字典序最小的已配置地址
// 没有任何账户时返回ErrNoAccountFound
func (a *Accounts) DefaultAddress() (string, error) {
	addrs := a.Addresses()
	if len(addrs) == 0 {
		return "", ErrNoAccountFound
	}
	return addrs[0], nil
}
