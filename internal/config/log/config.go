// Package log 日志配置区域
package log

import (
	"go.uber.org/zap/zapcore"

	"github.com/weisyn/wasmsim/pkg/types"
)

// Options 日志配置选项
type Options struct {
	Level     string `json:"level"`      // 日志级别 (debug, info, warn, error)
	ToConsole bool   `json:"to_console"` // 是否输出到控制台
	FilePath  string `json:"file_path"`  // 日志文件路径（空表示不写文件）

	// 文件轮转配置（FilePath非空时生效）
	MaxSize    int  `json:"max_size"`    // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age"`     // 日志文件最大保留天数
	Compress   bool `json:"compress"`    // 是否压缩历史日志文件
}

// Config 日志配置实现
type Config struct {
	options *Options
}

// New 创建日志配置，用户配置覆盖默认值
func New(userConfig *types.UserLogConfig) *Config {
	options := &Options{
		Level:      defaultLogLevel,
		ToConsole:  defaultToConsole,
		FilePath:   defaultFilePath,
		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAge,
		Compress:   defaultCompress,
	}
	if userConfig != nil {
		if userConfig.Level != nil {
			options.Level = *userConfig.Level
		}
		if userConfig.FilePath != nil {
			options.FilePath = *userConfig.FilePath
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *Options {
	return c.options
}

// GetZapLevel 获取zap日志级别
func (c *Config) GetZapLevel() zapcore.Level {
	if level, ok := levelMap[c.options.Level]; ok {
		return level
	}
	return zapcore.InfoLevel
}

var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}
