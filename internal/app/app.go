// Package app 应用装配
//
// 🎯 **核心职责**：把配置、日志、模拟引擎、文件监视与REST服务
// 装配成一个fx应用，对外暴露 Start/Stop 与REPL所需的句柄
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	apihttp "github.com/weisyn/wasmsim/internal/api/http"
	"github.com/weisyn/wasmsim/internal/cli/analyzer"
	"github.com/weisyn/wasmsim/internal/config"
	"github.com/weisyn/wasmsim/internal/core/address"
	"github.com/weisyn/wasmsim/internal/core/engine"
	"github.com/weisyn/wasmsim/internal/core/engines/wasm"
	"github.com/weisyn/wasmsim/internal/core/infrastructure/event"
	log "github.com/weisyn/wasmsim/internal/core/infrastructure/log"
	"github.com/weisyn/wasmsim/internal/core/querier"
	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/internal/core/watcher"
	"github.com/weisyn/wasmsim/pkg/types"
)

// 启动/停止的默认时限
const lifecycleTimeout = 30 * time.Second

// App 已装配的模拟器应用
type App struct {
	fxApp   *fx.App
	engine  *engine.Engine
	logger  *zap.SugaredLogger
	schemas map[string]*analyzer.Analyzer
}

// New 装配应用
// 合约文件与同级合约目录在这里解析一次，目标列表同时喂给
// 监视器（装载+热重载）与schema分析器（REPL消息提示）
func New(opts Options) (*App, error) {
	appConfig, err := config.LoadAppConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	appConfig = applyPortOverride(appConfig, opts.Port)

	targets, err := watcher.DiscoverArtifacts(opts.ContractPath)
	if err != nil {
		return nil, err
	}

	schemas := make(map[string]*analyzer.Analyzer, len(targets))
	for _, target := range targets {
		schemas[target.Address] = analyzer.FromContractFile(target.Path)
	}

	app := &App{schemas: schemas}
	app.fxApp = fx.New(
		fx.Provide(
			func() *types.AppConfig { return appConfig },
			func() []watcher.Target { return targets },
		),
		config.Module(),
		log.Module(),
		event.Module(),
		address.Module(),
		state.Module(),
		querier.Module(),
		wasm.Module(),
		engine.Module(),
		watcher.Module(),
		apihttp.Module(),
		fx.Populate(&app.engine, &app.logger),
	)
	if err := app.fxApp.Err(); err != nil {
		return nil, fmt.Errorf("应用装配失败: %w", err)
	}
	return app, nil
}

// applyPortOverride 命令行端口覆盖配置文件：强制启用REST
func applyPortOverride(appConfig *types.AppConfig, port int) *types.AppConfig {
	if port <= 0 {
		return appConfig
	}
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	if appConfig.API == nil {
		appConfig.API = &types.UserAPIConfig{}
	}
	enabled := true
	appConfig.API.Enabled = &enabled
	appConfig.API.Port = &port
	return appConfig
}

// Engine 模拟引擎句柄
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Logger 应用日志器
func (a *App) Logger() *zap.SugaredLogger {
	return a.logger
}

// Schemas 合约地址→消息目录
func (a *App) Schemas() map[string]*analyzer.Analyzer {
	return a.schemas
}

// Start 启动全部模块（装载合约、起动监视与REST）
func (a *App) Start(ctx context.Context) error {
	startCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	return a.fxApp.Start(startCtx)
}

// Stop 优雅停止
func (a *App) Stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, lifecycleTimeout)
	defer cancel()
	return a.fxApp.Stop(stopCtx)
}
