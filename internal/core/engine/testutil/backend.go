// Package testutil 提供脚本化的执行后端假件
//
// 后端行为由测试注册的处理函数决定，宿主能力（存储/编解码/
// 查询/燃气）从真实的BackendHost注入，燃气流转与生产路径一致
package testutil

import (
	"context"
	"fmt"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// Handler 单个合约的脚本化行为
// 未设置的入口返回"未实现"错误
type Handler struct {
	Instantiate func(host simulation.BackendHost, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error)
	Execute     func(host simulation.BackendHost, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error)
	Query       func(host simulation.BackendHost, env types.Env, msg []byte) ([]byte, error)
}

// Factory 以模块字节内容为键查找脚本
// 测试用合约的"字节码"就是它的名字
type Factory struct {
	Handlers map[string]Handler
}

var _ simulation.BackendFactory = (*Factory)(nil)

// NewFactory 创建脚本工厂
func NewFactory() *Factory {
	return &Factory{Handlers: make(map[string]Handler)}
}

// Register 注册脚本
func (f *Factory) Register(name string, h Handler) {
	f.Handlers[name] = h
}

// NewBackend 根据模块字节构造后端
func (f *Factory) NewBackend(code []byte, host simulation.BackendHost) (simulation.Backend, error) {
	h, ok := f.Handlers[string(code)]
	if !ok {
		return nil, fmt.Errorf("no scripted handler for module %q", code)
	}
	return &Backend{handler: h, host: host}, nil
}

// Backend 脚本化后端
type Backend struct {
	handler Handler
	host    simulation.BackendHost
	closed  bool
}

var _ simulation.Backend = (*Backend)(nil)

// Instantiate 调用脚本的instantiate入口
func (b *Backend) Instantiate(_ context.Context, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error) {
	if b.handler.Instantiate == nil {
		return nil, fmt.Errorf("instantiate not implemented")
	}
	return b.handler.Instantiate(b.host, env, info, msg)
}

// Execute 调用脚本的execute入口
func (b *Backend) Execute(_ context.Context, env types.Env, info types.MessageInfo, msg []byte) (*types.Response, error) {
	if b.handler.Execute == nil {
		return nil, fmt.Errorf("execute not implemented")
	}
	return b.handler.Execute(b.host, env, info, msg)
}

// Query 调用脚本的query入口
func (b *Backend) Query(_ context.Context, env types.Env, msg []byte) ([]byte, error) {
	if b.handler.Query == nil {
		return nil, fmt.Errorf("query not implemented")
	}
	return b.handler.Query(b.host, env, msg)
}

// GasRemaining 后端视角的剩余燃气
func (b *Backend) GasRemaining() uint64 {
	if b.host.Meter == nil {
		return 0
	}
	return b.host.Meter.Remaining()
}

// Close 标记关闭
func (b *Backend) Close() error {
	b.closed = true
	return nil
}

// Closed 是否已关闭（热重载测试用）
func (b *Backend) Closed() bool { return b.closed }
