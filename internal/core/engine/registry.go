package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/weisyn/wasmsim/internal/core/gas"
	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// Params 引擎运行参数
// 启动时从链配置装入，运行期间不变
type Params struct {
	ChainID      string // 链标识
	BaseHeight   uint64 // 初始区块高度
	BlockTime    string // 区块时间（纳秒字符串）
	GasLimit     uint64 // 每个实例的燃气上限
	MaxCallDepth int    // 跨合约调用的最大深度
}

// Registry 地址→合约实例注册表
//
// ⚠️ 注册表本身不加锁：所有读写都发生在引擎锁之内
// （装载/替换与查询/执行互斥，见Engine）
type Registry struct {
	instances map[string]*Instance
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]*Instance)}
}

// Get 查找实例
func (r *Registry) Get(addr string) (*Instance, bool) {
	inst, ok := r.instances[addr]
	return inst, ok
}

// Addresses 已注册地址（字典序）
func (r *Registry) Addresses() []string {
	addrs := make([]string, 0, len(r.instances))
	for addr := range r.instances {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// Len 实例数量
func (r *Registry) Len() int { return len(r.instances) }

// install 安装或替换实例，返回被替换的旧实例（可能为nil）
func (r *Registry) install(inst *Instance) *Instance {
	old := r.instances[inst.Address()]
	r.instances[inst.Address()] = inst
	return old
}

// buildInstance 构造一个全新实例
//
// 热重载路径：prev非nil时把旧存储整体复制进新实例，
// 模拟链状态跨合约二进制更新存活；环境高度同样延续，
// 保证单实例高度单调不减
func buildInstance(
	addr string,
	code []byte,
	prev *Instance,
	factory simulation.BackendFactory,
	codec simulation.AddressCodec,
	querier simulation.ChainQuerier,
	observer simulation.ChangeObserver,
	params Params,
	logger *zap.SugaredLogger,
) (*Instance, error) {
	var store *state.Store
	height := params.BaseHeight
	if prev != nil {
		store = prev.Store().Copy(addr, observer)
		height = prev.Env().Block.Height
	} else {
		store = state.NewStore(addr, observer)
	}

	meter := gas.NewMeter(params.GasLimit)
	backend, err := factory.NewBackend(code, simulation.BackendHost{
		Store:   store,
		Codec:   codec,
		Querier: querier,
		Meter:   meter,
	})
	if err != nil {
		return nil, fmt.Errorf("build backend for %s: %w", addr, err)
	}

	env := types.Env{
		Block: types.BlockInfo{
			Height:  height,
			Time:    params.BlockTime,
			ChainID: params.ChainID,
		},
		Contract: types.ContractInfo{Address: addr},
	}
	return NewInstance(addr, backend, store, meter, env, logger), nil
}
