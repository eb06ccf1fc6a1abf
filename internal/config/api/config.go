// Package api REST服务配置区域
package api

import (
	"fmt"

	"github.com/weisyn/wasmsim/pkg/types"
)

// Options REST服务配置选项
type Options struct {
	Enabled bool   `json:"enabled"` // 是否启动REST服务
	Host    string `json:"host"`    // 监听地址
	Port    int    `json:"port"`    // 监听端口
}

// Config REST服务配置实现
type Config struct {
	options *Options
}

// New 创建REST服务配置，用户配置覆盖默认值
func New(userConfig *types.UserAPIConfig) *Config {
	options := &Options{
		Enabled: defaultEnabled,
		Host:    defaultHost,
		Port:    defaultPort,
	}
	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.Host != nil {
			options.Host = *userConfig.Host
		}
		if userConfig.Port != nil {
			options.Port = *userConfig.Port
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的REST服务配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// ListenAddr 监听地址 host:port
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.options.Host, c.options.Port)
}
