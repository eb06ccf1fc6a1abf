package api

// REST服务配置默认值
const (
	// defaultEnabled REST服务默认关闭，REPL是主要交互入口
	defaultEnabled = false

	// defaultHost 本地开发工具只监听回环地址
	defaultHost = "127.0.0.1"

	// defaultPort 默认端口
	defaultPort = 8080
)
