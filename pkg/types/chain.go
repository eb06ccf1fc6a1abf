// Package types 提供模拟器全局共享的数据类型定义
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Coin 单一币种余额
type Coin struct {
	Denom  string `json:"denom"`  // 币种标识（如 "orai"）
	Amount string `json:"amount"` // 金额（十进制字符串，避免精度丢失）
}

// NewCoin 创建Coin
func NewCoin(amount uint64, denom string) Coin {
	return Coin{Denom: denom, Amount: fmt.Sprintf("%d", amount)}
}

// AmountBig 解析金额为big.Int
// 无法解析时返回0，模拟链上的宽容处理
func (c Coin) AmountBig() *big.Int {
	v, ok := new(big.Int).SetString(c.Amount, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Coins 按插入顺序保存的余额列表
type Coins []Coin

// Find 查找指定币种
func (cs Coins) Find(denom string) (Coin, bool) {
	for _, c := range cs {
		if c.Denom == denom {
			return c, true
		}
	}
	return Coin{}, false
}

// BlockInfo 模拟区块信息
type BlockInfo struct {
	Height  uint64 `json:"height"`   // 区块高度（每次成功的状态变更调用后+1）
	Time    string `json:"time"`     // 区块时间（纳秒字符串，链上惯例）
	ChainID string `json:"chain_id"` // 链标识（运行期间不变）
}

// ContractInfo 合约信息
type ContractInfo struct {
	Address string `json:"address"` // 合约人类可读地址
}

// Env 合约执行环境
// 每个合约实例独占一个Env，高度推进只影响本实例
type Env struct {
	Block    BlockInfo    `json:"block"`
	Contract ContractInfo `json:"contract"`
}

// MessageInfo 调用者信息
type MessageInfo struct {
	Sender string `json:"sender"` // 调用方地址（跨合约调用时为发起合约的地址）
	Funds  Coins  `json:"funds"`  // 随调用附带的资金
}

// Validator 验证人静态信息
type Validator struct {
	Address       string `json:"address"`
	Commission    string `json:"commission"`
	MaxCommission string `json:"max_commission"`
	MaxChangeRate string `json:"max_change_rate"`
}

// Delegation 委托静态信息
type Delegation struct {
	Delegator string `json:"delegator"`
	Validator string `json:"validator"`
	Amount    Coin   `json:"amount"`
}

// MustMarshalJSON JSON序列化，失败时panic
// 仅用于内部构造的静态结构（序列化失败意味着程序缺陷）
func MustMarshalJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return data
}
