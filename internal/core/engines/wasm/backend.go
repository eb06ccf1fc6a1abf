package wasm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// 合约模块必须导出的函数清单
// allocate/deallocate是区域指针ABI的内存协商入口，
// 三个生命周期入口与引擎的调用类型一一对应
var requiredExports = []string{
	"allocate",
	"deallocate",
	"instantiate",
	"execute",
	"query",
}

// Backend 单个合约实例的执行后端
//
// 📋 **区域指针ABI**：宿主与合约之间的数据通过线性内存中的
// Region结构（offset/capacity/length三个小端u32，共12字节）
// 交换。入参由allocate分配后写入，返回值由合约分配、
// 宿主读取后deallocate
type Backend struct {
	runtime wazero.Runtime
	module  api.Module
	host    simulation.BackendHost
	logger  *zap.SugaredLogger
	timeout time.Duration

	// trapErr 宿主函数中止执行时携带的原因（燃气耗尽/abort）
	// 每次进入生命周期入口前清空
	trapErr error
}

var _ simulation.Backend = (*Backend)(nil)

const regionStructSize = 12

// verifyExports 校验合约模块的必需导出
func (b *Backend) verifyExports() error {
	var missing []string
	for _, name := range requiredExports {
		if b.module.ExportedFunction(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("模块缺少必需的导出函数: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Instantiate 调用合约的instantiate入口
func (b *Backend) Instantiate(ctx context.Context, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error) {
	data, err := b.callEntry(ctx, "instantiate", types.MustMarshalJSON(env), types.MustMarshalJSON(info), msg)
	if err != nil {
		return nil, err
	}
	return parseContractResult(data)
}

// Execute 调用合约的execute入口
func (b *Backend) Execute(ctx context.Context, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error) {
	data, err := b.callEntry(ctx, "execute", types.MustMarshalJSON(env), types.MustMarshalJSON(info), msg)
	if err != nil {
		return nil, err
	}
	return parseContractResult(data)
}

// Query 调用合约的query入口
func (b *Backend) Query(ctx context.Context, env types.Env, msg []byte) ([]byte, error) {
	data, err := b.callEntry(ctx, "query", types.MustMarshalJSON(env), msg)
	if err != nil {
		return nil, err
	}
	return parseQueryData(data)
}

// GasRemaining 剩余燃气（宿主计费视角）
func (b *Backend) GasRemaining() uint64 {
	if b.host.Meter == nil {
		return 0
	}
	return b.host.Meter.Remaining()
}

// Close 关闭运行时，释放编译产物与线性内存
func (b *Backend) Close() error {
	return b.runtime.Close(context.Background())
}

// callEntry 执行一个生命周期入口
//
// 入参逐个通过allocate写入合约内存，返回值区域读出后交还
// deallocate。宿主函数通过trapErr中止时，其原因优先于
// wazero的陷阱错误返回
func (b *Backend) callEntry(ctx context.Context, name string, args ...[]byte) ([]byte, error) {
	b.trapErr = nil

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	params := make([]uint64, 0, len(args))
	for _, arg := range args {
		ptr, err := b.writeToContract(ctx, arg)
		if err != nil {
			return nil, err
		}
		params = append(params, uint64(ptr))
	}

	results, err := b.module.ExportedFunction(name).Call(ctx, params...)
	if b.trapErr != nil {
		return nil, b.trapErr
	}
	if err != nil {
		return nil, fmt.Errorf("合约执行中止: %w", err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("入口 %s 返回值数量异常: %d", name, len(results))
	}

	resPtr := uint32(results[0])
	data, err := b.readRegion(resPtr)
	if err != nil {
		return nil, err
	}
	// 返回值区域由合约分配，读取后交还
	_, _ = b.module.ExportedFunction("deallocate").Call(ctx, uint64(resPtr))
	return data, nil
}

// writeToContract 在合约内存中分配区域并写入数据，返回区域指针
func (b *Backend) writeToContract(ctx context.Context, data []byte) (uint32, error) {
	results, err := b.module.ExportedFunction("allocate").Call(ctx, uint64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("allocate失败: %w", err)
	}
	regionPtr := uint32(results[0])

	mem := b.module.Memory()
	offset, ok := mem.ReadUint32Le(regionPtr)
	if !ok {
		return 0, fmt.Errorf("区域结构读取越界: ptr=%d", regionPtr)
	}
	capacity, ok := mem.ReadUint32Le(regionPtr + 4)
	if !ok || capacity < uint32(len(data)) {
		return 0, fmt.Errorf("分配的区域容量不足: capacity=%d need=%d", capacity, len(data))
	}
	if len(data) > 0 && !mem.Write(offset, data) {
		return 0, fmt.Errorf("区域数据写入越界: offset=%d len=%d", offset, len(data))
	}
	if !mem.WriteUint32Le(regionPtr+8, uint32(len(data))) {
		return 0, fmt.Errorf("区域长度写入越界: ptr=%d", regionPtr)
	}
	return regionPtr, nil
}

// readRegion 读出区域指针指向的数据（返回独立副本）
func (b *Backend) readRegion(regionPtr uint32) ([]byte, error) {
	mem := b.module.Memory()
	offset, ok := mem.ReadUint32Le(regionPtr)
	if !ok {
		return nil, fmt.Errorf("区域结构读取越界: ptr=%d", regionPtr)
	}
	length, ok := mem.ReadUint32Le(regionPtr + 8)
	if !ok {
		return nil, fmt.Errorf("区域结构读取越界: ptr=%d", regionPtr)
	}
	if length == 0 {
		return []byte{}, nil
	}
	view, ok := mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("区域数据读取越界: offset=%d len=%d", offset, length)
	}
	// mem.Read返回底层内存视图，必须复制
	data := make([]byte, length)
	copy(data, view)
	return data, nil
}

// parseContractResult 解析instantiate/execute的返回JSON
// 合约逻辑错误以error返回，由调用边界转换为 {"error": ...}
func parseContractResult(data []byte) (*types.Response, error) {
	var result types.ContractResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("合约返回值解析失败: %w", err)
	}
	if result.Err != "" {
		return nil, errors.New(result.Err)
	}
	if result.Ok == nil {
		return nil, errors.New("合约返回值缺少ok与error分支")
	}
	return result.Ok, nil
}

// parseQueryData 解析query的返回JSON，ok分支为base64二进制
func parseQueryData(data []byte) ([]byte, error) {
	var result types.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("查询返回值解析失败: %w", err)
	}
	if result.Err != "" {
		return nil, errors.New(result.Err)
	}
	return result.Ok, nil
}
