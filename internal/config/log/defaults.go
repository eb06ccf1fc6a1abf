package log

// 日志配置默认值
const (
	// defaultLogLevel info级别平衡信息量和输出噪音
	defaultLogLevel = "info"

	// defaultToConsole 本地开发工具，控制台输出默认开启
	defaultToConsole = true

	// defaultFilePath 默认不落盘；交互式REPL场景下文件日志意义有限
	defaultFilePath = ""

	// 文件轮转：单文件100MB，保留10份/30天，历史压缩
	defaultMaxSize    = 100
	defaultMaxBackups = 10
	defaultMaxAge     = 30
	defaultCompress   = true
)
