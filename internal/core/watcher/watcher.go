// Package watcher 监视合约二进制文件并触发热重载
//
// 🎯 **核心职责**：按固定间隔轮询合约文件的修改时间，
// 变化时读取新字节码并通过引擎热替换对应实例。
// 轮询而非inotify：行为跨平台一致，且合约文件数量很小
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ContractFolder 主合约旁的同级合约目录名
// 目录下每个子目录 <name>/ 内的 <name>.wasm 作为地址<name>装载
const ContractFolder = "contract"

// DefaultInterval 默认轮询间隔
const DefaultInterval = time.Second

// Target 一个被监视的合约文件
type Target struct {
	Path    string // wasm文件路径
	Address string // 装载到的合约地址（文件名去扩展名）
}

// Loader 装载或热替换合约模块的能力（由模拟引擎提供）
type Loader interface {
	LoadOrReplace(addr string, code []byte) error
}

// DiscoverArtifacts 解析命令行给出的主合约文件并扫描同级合约目录
//
// 📋 **目录约定**：
//   - 主文件必须以.wasm结尾且存在，地址取文件名去扩展名
//   - 主文件所在目录下的 contract/<name>/<name>.wasm 一并装载
func DiscoverArtifacts(path string) ([]Target, error) {
	if !strings.HasSuffix(path, ".wasm") {
		return nil, fmt.Errorf("仅支持*.wasm文件: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("合约文件不可用: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("合约路径是目录: %s", path)
	}

	base := filepath.Base(path)
	targets := []Target{{
		Path:    path,
		Address: strings.TrimSuffix(base, ".wasm"),
	}}

	folder := filepath.Join(filepath.Dir(path), ContractFolder)
	entries, err := os.ReadDir(folder)
	if err != nil {
		// 同级合约目录不存在不是错误
		return targets, nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		wasmPath := filepath.Join(folder, name, name+".wasm")
		if fi, err := os.Stat(wasmPath); err == nil && !fi.IsDir() {
			targets = append(targets, Target{Path: wasmPath, Address: name})
		}
	}
	return targets, nil
}

// Watcher 合约文件轮询器
type Watcher struct {
	loader   Loader
	targets  []Target
	interval time.Duration
	logger   *zap.SugaredLogger

	// 每个目标上次观察到的修改时间
	modified map[string]time.Time
}

// New 创建轮询器
func New(loader Loader, targets []Target, interval time.Duration, logger *zap.SugaredLogger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		loader:   loader,
		targets:  targets,
		interval: interval,
		logger:   logger,
		modified: make(map[string]time.Time),
	}
}

// LoadAll 启动时装载全部目标
// 任何一个目标失败都让启动失败：带着缺失的合约运行没有意义
func (w *Watcher) LoadAll() error {
	for _, target := range w.targets {
		if err := w.load(target); err != nil {
			return err
		}
	}
	return nil
}

// Run 轮询循环，ctx取消时返回
//
// 单个目标的重载失败只记录日志（文件可能正被构建工具写到
// 一半），下个周期重试
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	for _, target := range w.targets {
		info, err := os.Stat(target.Path)
		if err != nil {
			continue
		}
		if info.ModTime().Equal(w.modified[target.Path]) {
			continue
		}
		if err := w.load(target); err != nil {
			if w.logger != nil {
				w.logger.Warnw("合约热重载失败", "contract", target.Address, "error", err)
			}
		}
	}
}

// load 读取文件并装载，成功后记录修改时间
func (w *Watcher) load(target Target) error {
	info, err := os.Stat(target.Path)
	if err != nil {
		return fmt.Errorf("读取合约元信息失败: %w", err)
	}
	code, err := os.ReadFile(target.Path)
	if err != nil {
		return fmt.Errorf("读取合约文件失败: %w", err)
	}
	if err := w.loader.LoadOrReplace(target.Address, code); err != nil {
		return err
	}
	w.modified[target.Path] = info.ModTime()
	if w.logger != nil {
		w.logger.Infow("合约已装载", "contract", target.Address, "file", target.Path, "size", len(code))
	}
	return nil
}
