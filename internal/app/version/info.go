// Package version provides version information for the application.
package version

import (
	"fmt"
	"runtime"
)

// 构建时注入的变量，通过ldflags设置
var (
	// Version 语义化版本号
	Version = "v0.1.0"

	// BuildTime 构建时间戳（RFC3339格式）
	BuildTime = "unknown"

	// GoVersion Go版本
	GoVersion = runtime.Version()
)

// GetVersion 获取版本号
func GetVersion() string {
	return Version
}

// GetFullVersion 获取带构建信息的完整版本串
func GetFullVersion() string {
	return fmt.Sprintf("%s (built %s, %s %s/%s)", Version, BuildTime, GoVersion, runtime.GOOS, runtime.GOARCH)
}
