// Package log 基于zap的日志基础设施
//
// 🎯 **核心职责**：按日志配置装配zap日志器：
// 控制台输出走彩色console编码，文件输出走JSON编码并由
// lumberjack负责轮转
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	logcfg "github.com/weisyn/wasmsim/internal/config/log"
)

// New 根据配置创建日志器
func New(config *logcfg.Config) (*zap.SugaredLogger, error) {
	options := config.GetOptions()
	level := config.GetZapLevel()

	var cores []zapcore.Core
	if options.ToConsole {
		cores = append(cores, zapcore.NewCore(
			consoleEncoder(),
			zapcore.Lock(os.Stdout),
			zap.NewAtomicLevelAt(level),
		))
	}
	if options.FilePath != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   options.FilePath,
			MaxSize:    options.MaxSize,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAge,
			Compress:   options.Compress,
		})
		cores = append(cores, zapcore.NewCore(fileEncoder(), writer, zap.NewAtomicLevelAt(level)))
	}
	if len(cores) == 0 {
		return zap.NewNop().Sugar(), nil
	}

	logger := zap.New(
		zapcore.NewTee(cores...),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return logger.Sugar(), nil
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	})
}

func fileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
}
