// Package config 提供应用配置管理功能
package config

import (
	"encoding/json"
	"fmt"
	"os"

	apicfg "github.com/weisyn/wasmsim/internal/config/api"
	chaincfg "github.com/weisyn/wasmsim/internal/config/chain"
	logcfg "github.com/weisyn/wasmsim/internal/config/log"
	"github.com/weisyn/wasmsim/pkg/types"
)

// Provider 配置提供者
// 持有用户配置，按区域装配带默认值的配置对象
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者，appConfig为nil时全部使用默认值
func NewProvider(appConfig *types.AppConfig) *Provider {
	return &Provider{appConfig: appConfig}
}

// LoadAppConfig 从JSON文件装载用户配置
// path为空表示未指定配置文件，返回nil（全默认值）
func LoadAppConfig(path string) (*types.AppConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &appConfig, nil
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *logcfg.Config {
	var userConfig *types.UserLogConfig
	if p.appConfig != nil {
		userConfig = p.appConfig.Log
	}
	return logcfg.New(userConfig)
}

// GetAPI 获取REST服务配置
func (p *Provider) GetAPI() *apicfg.Config {
	var userConfig *types.UserAPIConfig
	if p.appConfig != nil {
		userConfig = p.appConfig.API
	}
	return apicfg.New(userConfig)
}

// GetChain 获取模拟链配置
func (p *Provider) GetChain() *chaincfg.Config {
	var userConfig *types.UserChainConfig
	if p.appConfig != nil {
		userConfig = p.appConfig.Chain
	}
	return chaincfg.New(userConfig)
}
