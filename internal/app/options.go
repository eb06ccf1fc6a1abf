package app

// Options 应用启动选项
type Options struct {
	// ContractPath 主合约wasm文件路径（命令行位置参数）
	ContractPath string

	// ConfigPath 用户配置文件路径，空串表示全部使用默认值
	ConfigPath string

	// Port REST端口覆盖，>0时强制启用REST并使用该端口
	Port int
}
