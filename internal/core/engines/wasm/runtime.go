// Package wasm 基于wazero的沙箱化执行后端
//
// 🎯 **核心职责**：把合约WASM模块编译、实例化为可执行后端，
// 通过env宿主模块向合约暴露存储、地址编解码与链查询能力
//
// 📋 **设计特点**：
//   - 编译缓存：工厂级CompilationCache跨实例共享编译结果
//   - 资源隔离：每个后端独立的wazero运行时与线性内存
//   - 宿主计费：所有宿主调用按调用方燃气表计费
package wasm

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

// Config wazero运行时配置
type Config struct {
	// 编译模式：true使用编译器模式（高性能），false使用解释器模式（兼容性）
	UseCompiler bool

	// 执行超时（秒），0表示不限制
	ExecutionTimeoutSeconds int

	// 最大内存页数（每页64KB）
	MaxMemoryPages int

	// 是否启用WASI支持（合约模块不导入WASI时无副作用）
	EnableWASI bool
}

// DefaultConfig 默认运行时配置
func DefaultConfig() *Config {
	return &Config{
		UseCompiler:             true,
		ExecutionTimeoutSeconds: 30,
		MaxMemoryPages:          1024, // 64MB
		EnableWASI:              true,
	}
}

// Factory 执行后端工厂
//
// 同一工厂创建的全部后端共享编译缓存：热重载同一模块或
// 多地址装载相同字节码时命中缓存，免去重复编译
type Factory struct {
	config *Config
	cache  wazero.CompilationCache
	logger *zap.SugaredLogger
}

var _ simulation.BackendFactory = (*Factory)(nil)

// NewFactory 创建后端工厂
func NewFactory(config *Config, logger *zap.SugaredLogger) *Factory {
	if config == nil {
		config = DefaultConfig()
	}
	return &Factory{
		config: config,
		cache:  wazero.NewCompilationCache(),
		logger: logger,
	}
}

// NewBackend 编译并实例化一个合约执行后端
//
// 📋 **装配流程**：
//  1. 创建独立的wazero运行时（共享工厂级编译缓存）
//  2. 注册env宿主模块（闭包绑定本实例的宿主能力）
//  3. 编译模块字节码（缓存命中时直接复用）
//  4. 实例化并校验必需的导出函数
func (f *Factory) NewBackend(code []byte, host simulation.BackendHost) (simulation.Backend, error) {
	ctx := context.Background()

	rcfg := wazero.NewRuntimeConfig()
	if !f.config.UseCompiler {
		rcfg = wazero.NewRuntimeConfigInterpreter()
	}
	rcfg = rcfg.
		WithCompilationCache(f.cache).
		WithMemoryLimitPages(uint32(f.config.MaxMemoryPages)).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, rcfg)

	backend := &Backend{
		runtime: runtime,
		host:    host,
		logger:  f.logger,
		timeout: time.Duration(f.config.ExecutionTimeoutSeconds) * time.Second,
	}

	// 宿主模块必须在合约模块实例化之前就位
	if err := backend.registerHostModule(ctx); err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("注册宿主模块失败: %w", err)
	}
	if f.config.EnableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
			_ = runtime.Close(ctx)
			return nil, fmt.Errorf("WASI模块实例化失败: %w", err)
		}
	}

	compiled, err := runtime.CompileModule(ctx, code)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("模块编译失败: %w", err)
	}

	hash := sha256.Sum256(code)
	module, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(fmt.Sprintf("contract_%x", hash[:8])).
		WithStartFunctions())
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("模块实例化失败: %w", err)
	}
	backend.module = module

	if err := backend.verifyExports(); err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	if f.logger != nil {
		f.logger.Debugw("合约模块已装配", "hash", fmt.Sprintf("%x", hash[:8]), "size", len(code))
	}
	return backend, nil
}

// Close 释放工厂级编译缓存
func (f *Factory) Close() error {
	return f.cache.Close(context.Background())
}
