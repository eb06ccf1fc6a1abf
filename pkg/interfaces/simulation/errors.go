package simulation

import "errors"

// ErrNoSuchContract 注册表中不存在目标合约
// 跨合约智能查询与调度层共享该哨兵错误
var ErrNoSuchContract = errors.New("no such contract")
